package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namemart/internal/transport/http/shared"
	id "namemart/pkg/domain"
	dErrors "namemart/pkg/domain-errors"
)

// TokenIssuer mints bearer tokens for a caller address.
type TokenIssuer interface {
	Issue(caller id.Address) (string, error)
}

// AuthHandler exposes the dev-mode token endpoint: any address gets a token,
// no questions asked. It must never be mounted outside dev mode.
type AuthHandler struct {
	issuer TokenIssuer
	logger *slog.Logger
}

func NewAuthHandler(issuer TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/token", h.handleToken)
}

type tokenRequest struct {
	Address string `json:"address"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	caller, err := id.ParseAddress(req.Address)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid address"))
		return
	}

	token, err := h.issuer.Issue(caller)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token mint failed", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "token mint failed"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}
