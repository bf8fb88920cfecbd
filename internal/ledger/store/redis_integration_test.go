//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"namemart/internal/ledger/store"
	platformredis "namemart/internal/platform/redis"
	id "namemart/pkg/domain"
	"namemart/pkg/testutil/containers"
)

type RedisLedgerSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLedgerSuite))
}

func (s *RedisLedgerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(&platformredis.Client{Client: s.redis.Client})
}

func (s *RedisLedgerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLedgerSuite) TestCreditDebitRoundTrip() {
	ctx := context.Background()
	account := id.Address("0x00000000000000000000000000000000000000aa")

	s.Require().NoError(s.store.Credit(ctx, account, 25))
	s.Require().NoError(s.store.Credit(ctx, account, 75))

	balance, err := s.store.Balance(ctx, account)
	s.Require().NoError(err)
	s.Equal(id.Amount(100), balance)

	// GETDEL takes the whole balance in one step.
	amount, err := s.store.Debit(ctx, account)
	s.Require().NoError(err)
	s.Equal(id.Amount(100), amount)

	amount, err = s.store.Debit(ctx, account)
	s.Require().NoError(err)
	s.Zero(amount)
}

func (s *RedisLedgerSuite) TestMissingAccountReadsZero() {
	ctx := context.Background()
	account := id.Address("0x00000000000000000000000000000000000000bb")

	balance, err := s.store.Balance(ctx, account)
	s.Require().NoError(err)
	s.Zero(balance)

	amount, err := s.store.Debit(ctx, account)
	s.Require().NoError(err)
	s.Zero(amount)
}
