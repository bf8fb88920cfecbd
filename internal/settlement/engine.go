// Package settlement splits sale proceeds between seller and referrers.
package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"namemart/internal/payments"
	"namemart/internal/platform/metrics"
	id "namemart/pkg/domain"
)

// Fixed split: seller 90%, each referrer 5%. Integer division; whatever the
// truncation leaves over stays with the treasury.
const (
	sellerPercent   = 90
	referrerPercent = 5
)

// Escrow is the ledger fallback for shares whose push failed.
type Escrow interface {
	Credit(ctx context.Context, account id.Address, amount id.Amount) error
}

// Share is the outcome of one recipient's cut.
type Share struct {
	Account  id.Address
	Amount   id.Amount
	Escrowed bool
}

// Outcome reports where every unit of a settled amount went.
type Outcome struct {
	Seller        Share
	StartReferrer Share
	BidReferrer   Share
	// Remainder is retained by the treasury: integer-division dust plus the
	// shares of unset referrers.
	Remainder id.Amount
}

// Engine pushes each share directly and escrows the ones that bounce. An
// unset referrer's share is never pushed anywhere; it stays in Remainder.
type Engine struct {
	payer   payments.Payer
	escrow  Escrow
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewEngine(payer payments.Payer, escrow Escrow, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{payer: payer, escrow: escrow, metrics: m, logger: logger}
}

// Distribute splits amount between seller and the two referrers. The only
// error path is an escrow credit failing after a failed push; everything
// else resolves into the Outcome.
func (e *Engine) Distribute(ctx context.Context, amount id.Amount, seller, startReferrer, bidReferrer id.Address) (Outcome, error) {
	sellerShare := percentage(amount, sellerPercent)
	referrerShare := percentage(amount, referrerPercent)

	out := Outcome{
		Remainder: amount - sellerShare - 2*referrerShare,
	}

	var err error
	out.Seller, err = e.pay(ctx, seller, sellerShare)
	if err != nil {
		return out, err
	}
	out.StartReferrer, err = e.pay(ctx, startReferrer, referrerShare)
	if err != nil {
		return out, err
	}
	out.BidReferrer, err = e.pay(ctx, bidReferrer, referrerShare)
	if err != nil {
		return out, err
	}

	if out.StartReferrer.Account.IsZero() {
		out.Remainder += referrerShare
	}
	if out.BidReferrer.Account.IsZero() {
		out.Remainder += referrerShare
	}
	return out, nil
}

func (e *Engine) pay(ctx context.Context, account id.Address, amount id.Amount) (Share, error) {
	if account.IsZero() || amount == 0 {
		return Share{Account: account}, nil
	}
	share := Share{Account: account, Amount: amount}
	if err := e.payer.Push(ctx, account, amount); err != nil {
		e.logger.WarnContext(ctx, "settlement push failed, escrowing share",
			"account", account.String(),
			"amount", uint64(amount),
			"error", err.Error(),
		)
		if creditErr := e.escrow.Credit(ctx, account, amount); creditErr != nil {
			return share, fmt.Errorf("escrow share for %s: %w", account, creditErr)
		}
		share.Escrowed = true
		if e.metrics != nil {
			e.metrics.EscrowedShares.Inc()
		}
	}
	return share, nil
}

// percentage computes amount*pct/100 with integer truncation and without
// overflowing on large amounts.
func percentage(amount id.Amount, pct id.Amount) id.Amount {
	return amount/100*pct + amount%100*pct/100
}
