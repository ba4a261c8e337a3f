package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"veil/internal/platform/middleware"
	"veil/internal/ratelimit"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/httputil"
	"veil/pkg/platform/middleware/admin"
	"veil/pkg/platform/middleware/metadata"
	"veil/pkg/platform/middleware/request"
	"veil/pkg/platform/middleware/requesttime"
	"veil/pkg/requestcontext"
)

const requestTimeout = 30 * time.Second

// Handler is the thin HTTP layer over the gateway services.
type Handler struct {
	sessions  SessionService
	data      DataService
	reports   ComplianceReporter
	retention RetentionEnforcer
	companies CompanyLister
	logger    *slog.Logger

	reapGuard      SweepGuard
	retentionGuard SweepGuard
}

type HandlerOption func(*Handler)

// WithSweepGuards serialises the admin sweep endpoints with the scheduled
// reaper and retention tasks.
func WithSweepGuards(reap, retention SweepGuard) HandlerOption {
	return func(h *Handler) {
		h.reapGuard = reap
		h.retentionGuard = retention
	}
}

func NewHandler(
	sessions SessionService,
	data DataService,
	reports ComplianceReporter,
	retention RetentionEnforcer,
	companies CompanyLister,
	logger *slog.Logger,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		sessions:  sessions,
		data:      data,
		reports:   reports,
		retention: retention,
		companies: companies,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RouterConfig carries the surface-level settings.
type RouterConfig struct {
	AdminToken string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// RateLimit bounds /v1 traffic per client; nil disables limiting.
	RateLimit *ratelimit.Middleware
}

// NewRouter wires every public endpoint.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(h.logger))
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(cfg.RateLimit.Limit(ratelimit.ClassStandard))
		sensitive := cfg.RateLimit.Limit(ratelimit.ClassSensitive)

		r.With(sensitive).Post("/sessions", h.handleCreateSession)
		r.Get("/sessions/{id}", h.handleGetSession)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.resolveToken, h.logger))
			r.Get("/identity", h.handleResolveIdentity)
			r.Post("/data/anonymize", h.handleAnonymize)
			r.Post("/data/{id}/supersede", h.handleSupersede)
			r.With(sensitive).Post("/data/decrypt", h.handleDecrypt)
			r.Get("/data/{id}/integrity", h.handleVerifyIntegrity)
			r.Get("/compliance/report", h.handleComplianceReport)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.AdminToken, h.logger))
			r.Post("/reap", h.handleReap)
			r.Post("/retention", h.handleRetention)
			r.Get("/companies", h.handleListCompanies)
		})
	})
	return r
}

func (h *Handler) resolveToken(ctx context.Context, raw string) (domain.SessionID, error) {
	sess, err := h.sessions.ValidateToken(ctx, raw)
	if err != nil {
		return domain.SessionID{}, err
	}
	return sess.ID, nil
}

// writeServiceError logs before writing the error envelope. Client errors
// are logged by code only.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.CodeOf(err)
	if httputil.StatusFor(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", string(code),
		)
	}
	httputil.WriteError(w, err)
}
