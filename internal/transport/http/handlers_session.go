package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"veil/pkg/domain"
	"veil/pkg/platform/httputil"
	"veil/pkg/requestcontext"
)

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createSessionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	created, err := h.sessions.CreateSession(ctx, req.ExternalUserID, req.companyID, req.level)
	if err != nil {
		h.writeServiceError(ctx, w, "create session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:   created.Session.ID.String(),
		AnonymousID: created.Session.AnonymousID,
		ExpiresAt:   created.Session.ExpiresAt,
		Permissions: created.Session.Permissions,
		Token:       created.Token,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess, err := h.sessions.GetSession(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.Summary())
}

func (h *Handler) handleResolveIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := h.sessions.ResolveIdentity(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "resolve identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"user_id": userID})
}
