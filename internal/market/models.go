// Package market implements the sale/auction state machine: per-name sale
// records, bidding rules, and the settlement paths that move ownership and
// money together.
package market

import (
	"time"

	id "namemart/pkg/domain"
)

// Sale is the per-name listing record. A name with no Sale record is
// unlisted; clearing the record is how every terminal path (cancel, buy,
// finish) returns a name to that state.
//
// Invariants: Price == 0 || Price >= Reserve; at least one of Price and
// Reserve is nonzero while listed; LastBid > 0 implies LastBidder is set.
type Sale struct {
	Key  id.NameKey
	Name string

	// Reserve is the minimum acceptable auction bid; zero means the listing
	// takes no bids.
	Reserve id.Amount

	// Price is the fixed purchase price; zero means no direct purchase.
	Price id.Amount

	// LastBid/LastBidder track the current high bid; zero/none before the
	// first bid.
	LastBid    id.Amount
	LastBidder id.Address

	// AuctionEnds is meaningful only once a bid exists; it starts at the
	// zero time.
	AuctionEnds time.Time

	// StartReferrer was credited at listing time; BidReferrer rides on the
	// current high bid and is replaced by every outbid.
	StartReferrer id.Address
	BidReferrer   id.Address
}

// HasBid reports whether the auction has started. Listing and cancellation
// are locked out from this point on.
func (s *Sale) HasBid() bool { return s.LastBid > 0 }

// IsAuction reports whether the listing accepts bids.
func (s *Sale) IsAuction() bool { return s.Reserve > 0 }

// IsDirect reports whether the listing can be bought outright.
func (s *Sale) IsDirect() bool { return s.Price > 0 }
