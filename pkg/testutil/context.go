package testutil

import (
	"net/http"

	"veil/pkg/domain"
	"veil/pkg/requestcontext"
)

// WithSession simulates what the session middleware does for an
// authenticated request. Invalid ids are ignored.
func WithSession(req *http.Request, sessionID string, companyID string) *http.Request {
	ctx := req.Context()
	if parsed, err := domain.ParseSessionID(sessionID); err == nil {
		ctx = requestcontext.WithSessionID(ctx, parsed)
	}
	if companyID != "" {
		ctx = requestcontext.WithCompanyID(ctx, domain.CompanyID(companyID))
	}
	return req.WithContext(ctx)
}

// WithRequestID tags the request the way the request-id middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
