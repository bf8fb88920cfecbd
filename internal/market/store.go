package market

import (
	"context"

	id "namemart/pkg/domain"
)

// Store persists Sale records keyed by name key. Get returns
// sentinel.ErrNotFound for unlisted names; Delete on a missing record is a
// no-op so terminal paths stay idempotent under rollback-and-retry.
type Store interface {
	Get(ctx context.Context, key id.NameKey) (*Sale, error)
	Put(ctx context.Context, sale *Sale) error
	Delete(ctx context.Context, key id.NameKey) error
}
