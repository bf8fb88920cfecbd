// Package payments is the outbound money boundary. A push is fallible and
// may synchronously re-enter the marketplace through the recipient; callers
// therefore mutate their own accounting before pushing, never after.
package payments

import (
	"context"

	id "namemart/pkg/domain"
)

//go:generate mockgen -source=payer.go -destination=mocks/payer_mocks.go -package=mocks Payer

// Payer pushes funds from the treasury to an account. A returned error means
// no funds moved; the caller decides whether to escrow or abort.
type Payer interface {
	Push(ctx context.Context, to id.Address, amount id.Amount) error
}
