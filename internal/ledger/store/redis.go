package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	platformredis "namemart/internal/platform/redis"
	id "namemart/pkg/domain"
)

const keyPrefix = "ledger:"

// RedisStore keeps pending balances in Redis. GETDEL gives the debit-first
// withdrawal its atomic zero-and-read step without any locking.
type RedisStore struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func balanceKey(account id.Address) string {
	return keyPrefix + account.String()
}

func (s *RedisStore) Credit(ctx context.Context, account id.Address, amount id.Amount) error {
	if err := s.client.IncrBy(ctx, balanceKey(account), int64(amount)).Err(); err != nil {
		return fmt.Errorf("credit ledger: %w", err)
	}
	return nil
}

func (s *RedisStore) Debit(ctx context.Context, account id.Address) (id.Amount, error) {
	val, err := s.client.GetDel(ctx, balanceKey(account)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("debit ledger: %w", err)
	}
	amount, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt ledger balance %q: %w", val, err)
	}
	return id.Amount(amount), nil
}

func (s *RedisStore) Balance(ctx context.Context, account id.Address) (id.Amount, error) {
	val, err := s.client.Get(ctx, balanceKey(account)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read ledger balance: %w", err)
	}
	amount, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt ledger balance %q: %w", val, err)
	}
	return id.Amount(amount), nil
}
