// Package ledger is the pull-payment escrow: pending amounts owed to
// accounts from outbid returns or failed payouts, withdrawable on demand.
package ledger

import (
	"context"

	id "namemart/pkg/domain"
)

// Store persists per-account pending balances. Implementations must make
// Debit atomic: read the balance and zero it in one step, so a reentrant
// withdrawal during an outbound push observes nothing left to take.
type Store interface {
	// Credit adds to an account's pending balance, creating it on first use.
	Credit(ctx context.Context, account id.Address, amount id.Amount) error

	// Debit zeroes the account's balance and returns what it held.
	// A missing account debits zero.
	Debit(ctx context.Context, account id.Address) (id.Amount, error)

	// Balance reads the pending amount without mutating it.
	Balance(ctx context.Context, account id.Address) (id.Amount, error)
}
