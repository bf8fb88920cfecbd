package store

import (
	"context"
	"database/sql"
	"fmt"

	id "namemart/pkg/domain"
	"namemart/pkg/platform/tx"
)

// PostgresStore persists pending balances in PostgreSQL. All statements go
// through tx.Use so a ledger mutation joins the surrounding market
// transaction when one is open.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_balances (
			account    TEXT PRIMARY KEY,
			amount     BIGINT NOT NULL CHECK (amount >= 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Credit(ctx context.Context, account id.Address, amount id.Amount) error {
	query := `
		INSERT INTO ledger_balances (account, amount, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account) DO UPDATE SET
			amount     = ledger_balances.amount + EXCLUDED.amount,
			updated_at = NOW()
	`
	if _, err := tx.Use(ctx, s.db).ExecContext(ctx, query, account.String(), int64(amount)); err != nil {
		return fmt.Errorf("credit ledger: %w", err)
	}
	return nil
}

func (s *PostgresStore) Debit(ctx context.Context, account id.Address) (id.Amount, error) {
	// Zero-and-return in one statement: the row lock makes concurrent debits
	// of the same account serialize, and the second one reads zero.
	query := `
		UPDATE ledger_balances t
		SET amount = 0, updated_at = NOW()
		FROM (
			SELECT account, amount FROM ledger_balances
			WHERE account = $1 FOR UPDATE
		) old
		WHERE t.account = old.account
		RETURNING old.amount
	`
	var amount int64
	err := tx.Use(ctx, s.db).QueryRowContext(ctx, query, account.String()).Scan(&amount)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("debit ledger: %w", err)
	}
	return id.Amount(amount), nil
}

func (s *PostgresStore) Balance(ctx context.Context, account id.Address) (id.Amount, error) {
	var amount int64
	err := tx.Use(ctx, s.db).QueryRowContext(ctx,
		`SELECT amount FROM ledger_balances WHERE account = $1`, account.String(),
	).Scan(&amount)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("read ledger balance: %w", err)
	}
	return id.Amount(amount), nil
}
