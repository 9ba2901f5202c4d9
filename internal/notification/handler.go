package notification

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/fcm"
)

const maxWebhookBody = 1 << 20

// Handler receives database webhooks and relays them as pushes.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type response struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warnw("read webhook body failed", "err", err)
		h.writeJSON(w, http.StatusBadRequest, response{Error: "invalid body"})
		return
	}
	h.logger.Debugw("webhook received", "body", string(raw))

	var ev WebhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.logger.Warnw("webhook JSON parse failed", "err", err)
		h.writeJSON(w, http.StatusBadRequest, response{Error: "invalid JSON"})
		return
	}

	result, err := h.svc.Relay(r.Context(), &ev)
	if err != nil {
		var sendErr *fcm.SendError
		switch {
		case errors.Is(err, ErrNotInsert):
			h.logger.Warnw("webhook event ignored", "type", ev.Type, "table", ev.Table)
			h.writeJSON(w, http.StatusBadRequest, response{Error: err.Error()})
		case errors.Is(err, ErrInvalidRecord):
			h.writeJSON(w, http.StatusBadRequest, response{Error: err.Error()})
		case errors.Is(err, ErrNoActiveToken):
			h.logger.Warnw("no active push token", "recipient", ev.Record.RecipientID.String())
			h.writeJSON(w, http.StatusBadRequest, response{Error: "token not found"})
		case errors.Is(err, ErrNotificationsDisabled):
			h.logger.Infow("recipient does not allow notifications", "recipient", ev.Record.RecipientID.String())
			h.writeJSON(w, http.StatusBadRequest, response{Error: "user does not allow notifications"})
		case errors.As(err, &sendErr):
			h.logger.Errorw("gateway rejected push", "status", sendErr.StatusCode, "error_code", sendErr.ErrorCode, "body", sendErr.Body)
			h.writeJSON(w, http.StatusInternalServerError, response{Error: sendErr.Body})
		default:
			h.logger.Errorw("relay push failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, response{Error: err.Error()})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, response{Success: true, Result: result})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
