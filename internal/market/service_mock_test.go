package market_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"namemart/internal/events"
	"namemart/internal/ledger"
	ledgerstore "namemart/internal/ledger/store"
	"namemart/internal/market"
	marketstore "namemart/internal/market/store"
	"namemart/internal/payments"
	"namemart/internal/registry"
	"namemart/internal/registry/mocks"
	"namemart/internal/settlement"
	id "namemart/pkg/domain"
	dErrors "namemart/pkg/domain-errors"
)

// withMockRegistry builds a service whose registry is a gomock client, for
// driving failure modes the fake cannot produce.
func withMockRegistry(t *testing.T, names *mocks.MockClient) *market.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	treasurer := payments.NewFakeTreasurer()
	escrow := ledger.NewService(ledgerstore.NewMemory(), treasurer, nil, logger)

	return market.NewService(market.Deps{
		Store:      marketstore.NewMemory(),
		Registry:   names,
		Escrow:     escrow,
		Settlement: settlement.NewEngine(treasurer, escrow, nil, logger),
		Events:     events.NewMemorySink(),
		Logger:     logger,
		Market:     marketAddr,
	})
}

func TestList_RegistryOutageSurfacesAsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	names := mocks.NewMockClient(ctrl)
	service := withMockRegistry(t, names)
	ctx := context.Background()

	key := id.KeyForName(saleName)
	names.EXPECT().Record(gomock.Any(), key).Return(registry.Record{}, errors.New("registry timeout"))

	err := service.List(ctx, alice, saleName, 100, 0, id.ZeroAddress)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestCancel_FailedTransferRestoresTheListing(t *testing.T) {
	ctrl := gomock.NewController(t)
	names := mocks.NewMockClient(ctrl)
	service := withMockRegistry(t, names)
	ctx := context.Background()

	key := id.KeyForName(saleName)
	held := registry.Record{Owner: marketAddr, PreviousOwner: alice}
	names.EXPECT().Record(gomock.Any(), key).Return(held, nil).Times(2)
	require.NoError(t, service.List(ctx, alice, saleName, 100, 0, id.ZeroAddress))

	names.EXPECT().Transfer(gomock.Any(), key, alice).Return(errors.New("registry rejected transfer"))

	err := service.Cancel(ctx, alice, saleName)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	// The aborted cancel must leave the listing in place.
	sale, err := service.Sale(ctx, saleName)
	require.NoError(t, err)
	assert.Equal(t, id.Amount(100), sale.Price)
}
