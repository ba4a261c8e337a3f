package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"veil/internal/platform/metrics"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/httputil"
	"veil/pkg/requestcontext"
)

// Limits is the per-class request budget for one window.
type Limits struct {
	Standard  int
	Sensitive int
	Window    time.Duration
}

func (l Limits) For(class Class) int {
	if class == ClassSensitive {
		return l.Sensitive
	}
	return l.Standard
}

// Middleware enforces Limits per client IP. A nil *Middleware admits
// everything, so routers can be built with limiting switched off.
type Middleware struct {
	store   Store
	limits  Limits
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Middleware)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) { m.logger = logger }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) { m.metrics = mt }
}

func New(store Store, limits Limits, opts ...Option) *Middleware {
	m := &Middleware{store: store, limits: limits, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Limit returns middleware that charges one request against class.
// Store failures are logged and the request is let through.
func (m *Middleware) Limit(class Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			res, err := m.store.Allow(ctx, string(class)+":"+ip, m.limits.For(class), m.limits.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"class", string(class),
					"ip_prefix", ipPrefix(ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			setHeaders(w, res)
			if !res.Allowed {
				m.metrics.IncRateLimited(string(class))
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class),
					"ip_prefix", ipPrefix(ip),
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setHeaders(w http.ResponseWriter, res Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}

// ipPrefix keeps client addresses out of logs: /24 for IPv4, /48 for IPv6.
func ipPrefix(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return "unknown"
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String() + "/24"
	}
	return ip.Mask(net.CIDRMask(48, 128)).String() + "/48"
}
