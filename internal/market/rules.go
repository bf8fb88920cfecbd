package market

import (
	"time"

	id "namemart/pkg/domain"
)

// BidWindow is how long an auction stays open after an accepted bid. Each
// valid bid resets the deadline to now + BidWindow; it does not stack.
const BidWindow = 24 * time.Hour

// minIncrementDivisor makes the minimum raise 10% of the standing bid,
// truncated. A raise that ties the bar is rejected.
const minIncrementDivisor = 10

// MinimumBid is the amount a new bid must strictly exceed: the reserve
// before any bid, afterwards the standing bid plus 10%.
func MinimumBid(sale *Sale) id.Amount {
	if !sale.HasBid() {
		return sale.Reserve
	}
	return sale.LastBid + sale.LastBid/minIncrementDivisor
}

// BidWindowOpen reports whether a bid may still be placed. The deadline only
// applies once a bid exists: the first bid is accepted regardless of the
// zero-valued AuctionEnds. That quirk is inherited behavior; changing it
// changes auction semantics.
func BidWindowOpen(sale *Sale, now time.Time) bool {
	if !sale.HasBid() {
		return true
	}
	return now.Before(sale.AuctionEnds)
}

// NextDeadline computes the deadline set by an accepted bid.
func NextDeadline(now time.Time) time.Time {
	return now.Add(BidWindow)
}

// ValidateListing checks the price/reserve relation for a new listing.
func ValidateListing(price, reserve id.Amount) bool {
	if price == 0 && reserve == 0 {
		return false
	}
	return price == 0 || price >= reserve
}
