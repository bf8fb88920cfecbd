package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namemart/internal/transport/http/shared"
	id "namemart/pkg/domain"
	dErrors "namemart/pkg/domain-errors"
	"namemart/pkg/platform/sentinel"
	"namemart/pkg/requestcontext"
)

// LedgerService is the slice of the balance ledger the HTTP layer drives.
type LedgerService interface {
	Withdraw(ctx context.Context, account id.Address) (id.Amount, error)
	Balance(ctx context.Context, account id.Address) (id.Amount, error)
}

// LedgerHandler exposes the caller's pending balance and its payout.
type LedgerHandler struct {
	ledger LedgerService
	logger *slog.Logger
}

func NewLedgerHandler(ledger LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

func (h *LedgerHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/ledger/withdraw", h.handleWithdraw)
	r.With(requireAuth).Get("/ledger/balance", h.handleBalance)
}

type amountResponse struct {
	Amount uint64 `json:"amount"`
}

func (h *LedgerHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	amount, err := h.ledger.Withdraw(ctx, caller)
	if err != nil {
		h.logger.WarnContext(ctx, "withdrawal failed",
			"request_id", requestcontext.RequestID(ctx),
			"account", caller.String(),
			"error", err.Error(),
		)
		if errors.Is(err, sentinel.ErrPaymentFailed) {
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "payment push failed, funds restored to balance"))
			return
		}
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "withdrawal failed", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, amountResponse{Amount: uint64(amount)})
}

func (h *LedgerHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	amount, err := h.ledger.Balance(ctx, requestcontext.Caller(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "balance lookup failed", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, amountResponse{Amount: uint64(amount)})
}
