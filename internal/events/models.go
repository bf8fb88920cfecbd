// Package events carries the market notifications external observers index:
// nothing in the marketplace consumes them internally.
package events

import (
	"time"

	"github.com/google/uuid"

	id "namemart/pkg/domain"
)

// Type names a market notification.
type Type string

const (
	// TypePrices: a listing's reserve/price were set.
	TypePrices Type = "prices_set"
	// TypeBid: a bid was accepted.
	TypeBid Type = "bid"
	// TypeTransfer: ownership moved and funds settled (buy or finish).
	TypeTransfer Type = "transfer"
	// TypeCancel: a listing was cancelled before any bid.
	TypeCancel Type = "cancelled"
)

// Event is one market notification. Fields beyond ID/Type/Name/At are
// populated per type; absent ones are omitted from the wire form.
type Event struct {
	ID   string    `json:"id"`
	Type Type      `json:"type"`
	Name string    `json:"name"`
	Key  string    `json:"key"`
	At   time.Time `json:"at"`

	Reserve id.Amount `json:"reserve,omitempty"`
	Price   id.Amount `json:"price,omitempty"`

	Amount id.Amount  `json:"amount,omitempty"`
	From   id.Address `json:"from,omitempty"`
	To     id.Address `json:"to,omitempty"`

	// Remainder is the settlement dust retained by the treasury; only set on
	// transfer events so operators can audit it.
	Remainder id.Amount `json:"remainder,omitempty"`
}

func base(t Type, name string, at time.Time) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: t,
		Name: name,
		Key:  id.KeyForName(name).String(),
		At:   at,
	}
}

// NewPrices builds the "prices set" notification.
func NewPrices(name string, reserve, price id.Amount, at time.Time) Event {
	e := base(TypePrices, name, at)
	e.Reserve = reserve
	e.Price = price
	return e
}

// NewBid builds the bid notification.
func NewBid(name string, amount id.Amount, at time.Time) Event {
	e := base(TypeBid, name, at)
	e.Amount = amount
	return e
}

// NewTransfer builds the ownership-transfer notification.
func NewTransfer(name string, from, to id.Address, amount, remainder id.Amount, at time.Time) Event {
	e := base(TypeTransfer, name, at)
	e.From = from
	e.To = to
	e.Amount = amount
	e.Remainder = remainder
	return e
}

// NewCancel builds the cancellation notification.
func NewCancel(name string, at time.Time) Event {
	return base(TypeCancel, name, at)
}
