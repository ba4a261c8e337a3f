package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veil/internal/session"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/httputil"
	"veil/pkg/requestcontext"
)

func (h *Handler) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[anonymizeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.data.AnonymizeData(ctx, requestcontext.SessionID(ctx), req.Payload, req.classification)
	if err != nil {
		h.writeServiceError(ctx, w, "anonymize", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) handleSupersede(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	previousID, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[anonymizeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.data.SupersedeData(ctx, requestcontext.SessionID(ctx), previousID, req.Payload, req.classification)
	if err != nil {
		h.writeServiceError(ctx, w, "supersede", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[decryptRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sessionID := requestcontext.SessionID(ctx)

	var (
		payload map[string]any
		err     error
	)
	if req.EncryptedPayload != nil {
		payload, err = h.data.DecryptData(ctx, sessionID, *req.EncryptedPayload)
	} else {
		payload, err = h.data.DecryptRecord(ctx, sessionID, req.recordID)
	}
	if err != nil {
		h.writeServiceError(ctx, w, "decrypt", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"payload": payload})
}

func (h *Handler) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	valid, err := h.data.VerifyRecord(ctx, requestcontext.SessionID(ctx), recordID)
	if err != nil {
		h.writeServiceError(ctx, w, "verify integrity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, integrityResponse{RecordID: recordID.String(), Valid: valid})
}

// handleComplianceReport needs a session holding report:aggregate. start
// and end are RFC3339; a missing end means now.
func (h *Handler) handleComplianceReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.sessions.Require(ctx, requestcontext.SessionID(ctx), session.PermAggregateReport); err != nil {
		h.writeServiceError(ctx, w, "compliance report", err)
		return
	}

	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "start must be an RFC3339 timestamp"))
		return
	}
	end := requestcontext.Now(ctx)
	if raw := q.Get("end"); raw != "" {
		end, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "end must be an RFC3339 timestamp"))
			return
		}
	}

	report, err := h.reports.GenerateComplianceReport(ctx, start, end)
	if err != nil {
		h.writeServiceError(ctx, w, "compliance report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
