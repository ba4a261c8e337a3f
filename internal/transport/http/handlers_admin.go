package httptransport

import (
	"context"
	"net/http"

	"veil/internal/platform/scheduler"
	"veil/internal/retention"
	"veil/internal/session"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/httputil"
	"veil/pkg/requestcontext"
)

var errSweepRunning = dErrors.New(dErrors.CodeConflict, "sweep already running")

// guarded runs fn under g, or directly when no guard is configured.
func guarded(ctx context.Context, g SweepGuard, fn scheduler.Func) (bool, error) {
	if g == nil {
		return true, fn(ctx)
	}
	return g.Exclusive(ctx, fn)
}

func (h *Handler) handleReap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var res session.ReapResult
	ran, err := guarded(ctx, h.reapGuard, func(ctx context.Context) error {
		var err error
		res, err = h.sessions.ReapExpired(ctx)
		return err
	})
	if !ran {
		httputil.WriteError(w, errSweepRunning)
		return
	}
	if err != nil {
		h.writeServiceError(ctx, w, "reap sessions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRetention(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var res *retention.Result
	ran, err := guarded(ctx, h.retentionGuard, func(ctx context.Context) error {
		var err error
		res, err = h.retention.EnforceRetention(ctx, requestcontext.Now(ctx))
		return err
	})
	if !ran {
		httputil.WriteError(w, errSweepRunning)
		return
	}
	if err != nil {
		h.writeServiceError(ctx, w, "enforce retention", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies := h.companies.List(r.Context())
	out := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, toCompanyResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"companies": out})
}
