package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "namemart/pkg/domain"
	"namemart/pkg/platform/sentinel"
)

var (
	market = id.Address("0x0000000000000000000000000000000000000001")
	seller = id.Address("0x0000000000000000000000000000000000000002")
	buyer  = id.Address("0x0000000000000000000000000000000000000003")
)

func TestFakeClient_TransferTracksPreviousOwner(t *testing.T) {
	ctx := context.Background()
	client := NewFakeClient()
	key := id.KeyForName("alice")
	client.Seed(key, market, seller)

	require.NoError(t, client.Transfer(ctx, key, buyer))

	record, err := client.Record(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, buyer, record.Owner)
	assert.Equal(t, market, record.PreviousOwner)
}

func TestFakeClient_UnknownName(t *testing.T) {
	ctx := context.Background()
	client := NewFakeClient()
	key := id.KeyForName("ghost")

	_, err := client.Record(ctx, key)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	err = client.Transfer(ctx, key, buyer)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	client := NewFakeClient()
	key := id.KeyForName("alice")
	client.Seed(key, market, seller)

	t.Run("previous holder may act while market owns the name", func(t *testing.T) {
		record, ok, err := Authorize(ctx, client, key, seller, market)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, seller, record.PreviousOwner)
	})

	t.Run("anyone else is refused", func(t *testing.T) {
		_, ok, err := Authorize(ctx, client, key, buyer, market)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("refused once the name left the market", func(t *testing.T) {
		require.NoError(t, client.Transfer(ctx, key, buyer))
		_, ok, err := Authorize(ctx, client, key, seller, market)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHTTPClient_Record(t *testing.T) {
	key := id.KeyForName("alice")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/records/"+key.String(), r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"owner":          market.String(),
			"previous_owner": seller.String(),
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	record, err := client.Record(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, Record{Owner: market, PreviousOwner: seller}, record)
}

func TestHTTPClient_RecordNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	_, err := client.Record(context.Background(), id.KeyForName("ghost"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestHTTPClient_TransferRefused(t *testing.T) {
	var gotBody transferRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	err := client.Transfer(context.Background(), id.KeyForName("alice"), buyer)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.Equal(t, buyer.String(), gotBody.NewOwner)
}
