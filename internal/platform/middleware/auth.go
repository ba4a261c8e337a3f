package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/httputil"
	"veil/pkg/requestcontext"
)

// HeaderSessionID carries the opaque session id.
const HeaderSessionID = "X-Session-ID"

// TokenResolver maps a bearer token to the session it was issued for.
type TokenResolver func(ctx context.Context, raw string) (domain.SessionID, error)

// RequireSession puts the caller's session id on the context. The
// X-Session-ID header wins; otherwise a bearer token is resolved. Whether
// the session is live and what it may do is checked by the services.
func RequireSession(resolve TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := strings.TrimSpace(r.Header.Get(HeaderSessionID)); raw != "" {
				id, err := domain.ParseSessionID(raw)
				if err != nil {
					reject(ctx, w, logger, "malformed session header")
					return
				}
				next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, id)))
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				reject(ctx, w, logger, "missing session")
				return
			}
			id, err := resolve(ctx, strings.TrimSpace(token))
			if err != nil {
				reject(ctx, w, logger, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, id)))
		})
	}
}

func reject(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, reason string) {
	logger.WarnContext(ctx, "unauthorized access",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidSession, "a valid session is required"))
}
