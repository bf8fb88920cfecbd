package settlement_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namemart/internal/ledger"
	ledgerstore "namemart/internal/ledger/store"
	"namemart/internal/payments"
	"namemart/internal/settlement"
	id "namemart/pkg/domain"
)

var (
	seller   = id.Address("0x0000000000000000000000000000000000000002")
	startRef = id.Address("0x0000000000000000000000000000000000000004")
	bidRef   = id.Address("0x0000000000000000000000000000000000000005")
)

func newEngine(t *testing.T) (*settlement.Engine, *payments.FakeTreasurer, *ledger.Service) {
	t.Helper()
	treasurer := payments.NewFakeTreasurer()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	escrow := ledger.NewService(ledgerstore.NewMemory(), treasurer, nil, logger)
	engine := settlement.NewEngine(treasurer, escrow, nil, logger)
	return engine, treasurer, escrow
}

func TestDistribute_FullSplit(t *testing.T) {
	ctx := context.Background()
	engine, treasurer, _ := newEngine(t)

	out, err := engine.Distribute(ctx, 100, seller, startRef, bidRef)
	require.NoError(t, err)

	assert.Equal(t, id.Amount(90), treasurer.Paid(seller))
	assert.Equal(t, id.Amount(5), treasurer.Paid(startRef))
	assert.Equal(t, id.Amount(5), treasurer.Paid(bidRef))
	assert.Zero(t, out.Remainder)
}

func TestDistribute_TruncationRemainder(t *testing.T) {
	ctx := context.Background()
	engine, treasurer, _ := newEngine(t)

	// 99: seller 89, referrers 4 each, remainder 2.
	out, err := engine.Distribute(ctx, 99, seller, startRef, bidRef)
	require.NoError(t, err)

	assert.Equal(t, id.Amount(89), treasurer.Paid(seller))
	assert.Equal(t, id.Amount(4), treasurer.Paid(startRef))
	assert.Equal(t, id.Amount(4), treasurer.Paid(bidRef))
	assert.Equal(t, id.Amount(2), out.Remainder)

	total := out.Seller.Amount + out.StartReferrer.Amount + out.BidReferrer.Amount + out.Remainder
	assert.Equal(t, id.Amount(99), total)
}

func TestDistribute_SharesNeverExceedAmount(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newEngine(t)

	for _, amount := range []id.Amount{0, 1, 7, 19, 100, 101, 12345, 1<<62 + 3} {
		out, err := engine.Distribute(ctx, amount, seller, startRef, bidRef)
		require.NoError(t, err)
		total := out.Seller.Amount + out.StartReferrer.Amount + out.BidReferrer.Amount + out.Remainder
		assert.Equal(t, amount, total, "amount %d must be fully accounted", amount)
	}
}

func TestDistribute_UnsetReferrerShareStaysWithTreasury(t *testing.T) {
	ctx := context.Background()
	engine, treasurer, _ := newEngine(t)

	out, err := engine.Distribute(ctx, 100, seller, id.ZeroAddress, id.ZeroAddress)
	require.NoError(t, err)

	assert.Equal(t, id.Amount(90), treasurer.Paid(seller))
	assert.Equal(t, id.Amount(10), out.Remainder)
	assert.Zero(t, out.StartReferrer.Amount)
	assert.Zero(t, out.BidReferrer.Amount)
}

func TestDistribute_FailedPushLandsInEscrow(t *testing.T) {
	ctx := context.Background()
	engine, treasurer, escrow := newEngine(t)

	treasurer.Reject(startRef)

	out, err := engine.Distribute(ctx, 100, seller, startRef, bidRef)
	require.NoError(t, err)

	assert.True(t, out.StartReferrer.Escrowed)
	assert.Zero(t, treasurer.Paid(startRef))

	balance, err := escrow.Balance(ctx, startRef)
	require.NoError(t, err)
	assert.Equal(t, id.Amount(5), balance)

	// Seller and the other referrer are unaffected.
	assert.Equal(t, id.Amount(90), treasurer.Paid(seller))
	assert.Equal(t, id.Amount(5), treasurer.Paid(bidRef))
}

func TestDistribute_FailedSellerPushEscrowsSellerShare(t *testing.T) {
	ctx := context.Background()
	engine, treasurer, escrow := newEngine(t)

	treasurer.Reject(seller)

	out, err := engine.Distribute(ctx, 200, seller, startRef, bidRef)
	require.NoError(t, err)
	assert.True(t, out.Seller.Escrowed)

	balance, err := escrow.Balance(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, id.Amount(180), balance)
}
