// Package registry is the boundary to the external name-registry service,
// the only system that actually owns and can reassign name records. The
// marketplace never caches ownership: authorization decisions must see the
// registry's current state.
package registry

import (
	"context"

	id "namemart/pkg/domain"
)

//go:generate mockgen -source=client.go -destination=mocks/registry_mocks.go -package=mocks Client

// Record is the ownership pair the registry tracks per name.
type Record struct {
	Owner         id.Address
	PreviousOwner id.Address
}

// Client queries and mutates name ownership in the external registry.
type Client interface {
	// Record returns the current and previous holder of a name.
	// Returns sentinel.ErrNotFound when the name does not exist.
	Record(ctx context.Context, key id.NameKey) (Record, error)

	// Transfer reassigns the name to newOwner. The registry rejects the call
	// when the marketplace is not the current owner, which fails the whole
	// operation.
	Transfer(ctx context.Context, key id.NameKey, newOwner id.Address) error
}

// Authorize reports whether caller may act on a listed name: the registry
// must show the marketplace as owner (the name was handed over for sale) and
// the caller as the previous holder (the party who handed it over).
func Authorize(ctx context.Context, client Client, key id.NameKey, caller, market id.Address) (Record, bool, error) {
	record, err := client.Record(ctx, key)
	if err != nil {
		return Record{}, false, err
	}
	return record, record.Owner == market && record.PreviousOwner == caller, nil
}
