package pushtoken

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/auth"
)

// maxRegisterBody caps the registration payload. A device token is a few
// hundred bytes.
const maxRegisterBody = 64 << 10

// UserVerifier resolves a bearer token to the calling user.
type UserVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

// Handler exposes push token registration and pruning.
type Handler struct {
	svc      *Service
	verifier UserVerifier
	logger   *zap.SugaredLogger
}

func NewHandler(svc *Service, verifier UserVerifier, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, verifier: verifier, logger: logger}
}

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	Token string `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	bearer, ok := auth.BearerToken(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing auth token"})
		return
	}
	principal, err := h.verifier.Verify(bearer)
	if err != nil {
		h.logger.Debugw("push token registration rejected", "err", err)
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "user not authenticated"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRegisterBody)
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid push token payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if req.Token == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "push token required"})
		return
	}

	if _, err := h.svc.Register(r.Context(), principal.UserID, req.Token); err != nil {
		if errors.Is(err, ErrTokenRequired) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "push token required"})
			return
		}
		h.logger.Errorw("save push token failed", "user_id", principal.UserID, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to save token"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Prune(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Prune(r.Context())
	if err != nil {
		h.logger.Errorw("prune push tokens failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to prune tokens"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "removidos": n})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
