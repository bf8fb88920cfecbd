package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"namemart/internal/market"
	id "namemart/pkg/domain"
	"namemart/pkg/platform/sentinel"
	"namemart/pkg/platform/tx"
)

// PostgresStore persists sale records in PostgreSQL, keyed by the name key
// hex. All statements go through tx.Use so a sale mutation joins the
// surrounding market transaction when one is open.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the sales table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sales (
			key            TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			reserve        BIGINT NOT NULL,
			price          BIGINT NOT NULL,
			last_bid       BIGINT NOT NULL DEFAULT 0,
			last_bidder    TEXT NOT NULL DEFAULT '',
			auction_ends   TIMESTAMPTZ,
			start_referrer TEXT NOT NULL DEFAULT '',
			bid_referrer   TEXT NOT NULL DEFAULT '',
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create sales table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key id.NameKey) (*market.Sale, error) {
	row := tx.Use(ctx, s.db).QueryRowContext(ctx, `
		SELECT name, reserve, price, last_bid, last_bidder, auction_ends, start_referrer, bid_referrer
		FROM sales WHERE key = $1`, key.String())

	var (
		sale market.Sale
		ends sql.NullTime
	)
	err := row.Scan(&sale.Name, &sale.Reserve, &sale.Price, &sale.LastBid, &sale.LastBidder,
		&ends, &sale.StartReferrer, &sale.BidReferrer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select sale: %w", err)
	}
	sale.Key = key
	if ends.Valid {
		sale.AuctionEnds = ends.Time.UTC()
	}
	return &sale, nil
}

func (s *PostgresStore) Put(ctx context.Context, sale *market.Sale) error {
	var ends sql.NullTime
	if !sale.AuctionEnds.IsZero() {
		ends = sql.NullTime{Time: sale.AuctionEnds.UTC(), Valid: true}
	}
	_, err := tx.Use(ctx, s.db).ExecContext(ctx, `
		INSERT INTO sales (key, name, reserve, price, last_bid, last_bidder, auction_ends, start_referrer, bid_referrer, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (key) DO UPDATE SET
			name           = EXCLUDED.name,
			reserve        = EXCLUDED.reserve,
			price          = EXCLUDED.price,
			last_bid       = EXCLUDED.last_bid,
			last_bidder    = EXCLUDED.last_bidder,
			auction_ends   = EXCLUDED.auction_ends,
			start_referrer = EXCLUDED.start_referrer,
			bid_referrer   = EXCLUDED.bid_referrer,
			updated_at     = EXCLUDED.updated_at`,
		sale.Key.String(), sale.Name, sale.Reserve, sale.Price, sale.LastBid, sale.LastBidder,
		ends, sale.StartReferrer, sale.BidReferrer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert sale: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key id.NameKey) error {
	_, err := tx.Use(ctx, s.db).ExecContext(ctx, `DELETE FROM sales WHERE key = $1`, key.String())
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return nil
}
