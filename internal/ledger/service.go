package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"namemart/internal/payments"
	"namemart/internal/platform/metrics"
	id "namemart/pkg/domain"
	"namemart/pkg/platform/sentinel"
)

// Service owns escrow accounting. The one rule that matters: the balance is
// zeroed before the outbound push, and restored only if the push fails, so a
// reentrant caller mid-push can never withdraw the same funds twice.
type Service struct {
	store   Store
	payer   payments.Payer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, payer payments.Payer, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, payer: payer, metrics: m, logger: logger}
}

// Credit escrows an amount for later withdrawal.
func (s *Service) Credit(ctx context.Context, account id.Address, amount id.Amount) error {
	if amount == 0 {
		return nil
	}
	return s.store.Credit(ctx, account, amount)
}

// Balance reads the pending amount owed to an account.
func (s *Service) Balance(ctx context.Context, account id.Address) (id.Amount, error) {
	return s.store.Balance(ctx, account)
}

// Withdraw pays out the account's full pending balance. Debit-first: the
// balance is zeroed before the push; on push failure it is credited back and
// the caller may retry. A zero balance is a no-op, not an error.
func (s *Service) Withdraw(ctx context.Context, account id.Address) (id.Amount, error) {
	amount, err := s.store.Debit(ctx, account)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		if s.metrics != nil {
			s.metrics.IncWithdrawal("noop")
		}
		return 0, nil
	}

	if err := s.payer.Push(ctx, account, amount); err != nil {
		if restoreErr := s.store.Credit(ctx, account, amount); restoreErr != nil {
			// Both the push and the restore failed; this is the one path that
			// loses accounting consistency, so it must be loud.
			s.logger.ErrorContext(ctx, "withdrawal restore failed",
				"account", account.String(),
				"amount", uint64(amount),
				"push_error", err.Error(),
				"restore_error", restoreErr.Error(),
			)
			return 0, fmt.Errorf("restore after failed push: %w", restoreErr)
		}
		if s.metrics != nil {
			s.metrics.IncWithdrawal("restored")
		}
		return 0, fmt.Errorf("withdraw %d for %s: %w", amount, account, sentinel.ErrPaymentFailed)
	}

	if s.metrics != nil {
		s.metrics.IncWithdrawal("paid")
	}
	return amount, nil
}

// Flush opportunistically drains the caller's pending balance before a
// market operation. Failures only get logged: a broken payout channel must
// not block an unrelated purchase or bid.
func (s *Service) Flush(ctx context.Context, account id.Address) {
	if _, err := s.Withdraw(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "opportunistic withdrawal failed",
			"account", account.String(),
			"error", err.Error(),
		)
	}
}
