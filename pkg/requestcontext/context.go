// Package requestcontext carries request-scoped values between middleware and
// services without pulling net/http into the service layer.
//
// Services read values:
//
//	sessionID := requestcontext.SessionID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject them:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"veil/pkg/domain"
)

type (
	sessionIDKey   struct{}
	companyIDKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	deviceLabelKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported keys for tests that need context.WithValue directly.
var (
	ContextKeySessionID   = sessionIDKey{}
	ContextKeyCompanyID   = companyIDKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyDeviceLabel = deviceLabelKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// SessionID returns the authenticated session id, or the nil id.
func SessionID(ctx context.Context) domain.SessionID {
	if v, ok := ctx.Value(ContextKeySessionID).(domain.SessionID); ok {
		return v
	}
	return domain.SessionID{}
}

func WithSessionID(ctx context.Context, id domain.SessionID) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, id)
}

// CompanyID returns the company bound to the current session.
func CompanyID(ctx context.Context) domain.CompanyID {
	if v, ok := ctx.Value(ContextKeyCompanyID).(domain.CompanyID); ok {
		return v
	}
	return ""
}

func WithCompanyID(ctx context.Context, id domain.CompanyID) context.Context {
	return context.WithValue(ctx, ContextKeyCompanyID, id)
}

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// DeviceLabel is a coarse "browser/os" label derived from the User-Agent.
// It is the only client detail that reaches audit entries.
func DeviceLabel(ctx context.Context) string {
	if l, ok := ctx.Value(ContextKeyDeviceLabel).(string); ok {
		return l
	}
	return ""
}

// WithClientMetadata injects client IP, User-Agent and device label.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, deviceLabel string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	ctx = context.WithValue(ctx, ContextKeyDeviceLabel, deviceLabel)
	return ctx
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request-scoped time, falling back to time.Now() for
// workers and CLI paths that never set one.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins "now" for a request, a batch, or a test.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
