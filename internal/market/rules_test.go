package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "namemart/pkg/domain"
)

func TestMinimumBid(t *testing.T) {
	t.Run("equals reserve before any bid", func(t *testing.T) {
		sale := &Sale{Reserve: 50}
		assert.Equal(t, id.Amount(50), MinimumBid(sale))
	})

	t.Run("adds ten percent of standing bid", func(t *testing.T) {
		sale := &Sale{Reserve: 50, LastBid: 60, LastBidder: "0x0000000000000000000000000000000000000003"}
		assert.Equal(t, id.Amount(66), MinimumBid(sale))
	})

	t.Run("increment truncates", func(t *testing.T) {
		sale := &Sale{Reserve: 50, LastBid: 19, LastBidder: "0x0000000000000000000000000000000000000003"}
		// 19 + 19/10 = 19 + 1
		assert.Equal(t, id.Amount(20), MinimumBid(sale))
	})
}

func TestBidWindowOpen(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("always open before first bid despite zero deadline", func(t *testing.T) {
		sale := &Sale{Reserve: 50}
		assert.True(t, sale.AuctionEnds.IsZero())
		assert.True(t, BidWindowOpen(sale, now))
	})

	t.Run("open while before the deadline", func(t *testing.T) {
		sale := &Sale{Reserve: 50, LastBid: 60, AuctionEnds: now.Add(time.Hour)}
		assert.True(t, BidWindowOpen(sale, now))
	})

	t.Run("closed at and after the deadline", func(t *testing.T) {
		sale := &Sale{Reserve: 50, LastBid: 60, AuctionEnds: now}
		assert.False(t, BidWindowOpen(sale, now))
		assert.False(t, BidWindowOpen(sale, now.Add(time.Minute)))
	})
}

func TestNextDeadline_ResetsNotExtends(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(24*time.Hour), NextDeadline(now))

	// A later bid resets from its own instant, independent of any earlier
	// deadline.
	later := now.Add(20 * time.Hour)
	assert.Equal(t, later.Add(24*time.Hour), NextDeadline(later))
}

func TestValidateListing(t *testing.T) {
	assert.True(t, ValidateListing(100, 50))
	assert.True(t, ValidateListing(0, 50), "auction-only listing")
	assert.True(t, ValidateListing(100, 0), "direct-only listing")
	assert.True(t, ValidateListing(50, 50))
	assert.False(t, ValidateListing(0, 0), "listing must offer something")
	assert.False(t, ValidateListing(49, 50), "price below reserve")
}

func TestSaleStateHelpers(t *testing.T) {
	sale := &Sale{Reserve: 50, Price: 100}
	assert.True(t, sale.IsAuction())
	assert.True(t, sale.IsDirect())
	assert.False(t, sale.HasBid())

	sale.LastBid = 60
	sale.LastBidder = "0x0000000000000000000000000000000000000003"
	assert.True(t, sale.HasBid())

	directOnly := &Sale{Price: 100}
	assert.False(t, directOnly.IsAuction())
	assert.True(t, directOnly.IsDirect())
}
