package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namemart/internal/auth"
	"namemart/internal/events"
	"namemart/internal/ledger"
	ledgerstore "namemart/internal/ledger/store"
	"namemart/internal/market"
	marketstore "namemart/internal/market/store"
	"namemart/internal/payments"
	"namemart/internal/registry"
	"namemart/internal/settlement"
	httptransport "namemart/internal/transport/http"
	id "namemart/pkg/domain"
)

const (
	marketAddr = id.Address("0x00000000000000000000000000000000000000f1")
	alice      = "0x00000000000000000000000000000000000000a1"
	bob        = "0x00000000000000000000000000000000000000b2"
)

type testServer struct {
	*httptest.Server
	names     *registry.FakeClient
	treasurer *payments.FakeTreasurer
	escrow    *ledger.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	treasurer := payments.NewFakeTreasurer()
	escrow := ledger.NewService(ledgerstore.NewMemory(), treasurer, nil, logger)
	names := registry.NewFakeClient()
	jwt := auth.NewJWTService("test-signing-key", time.Hour)

	service := market.NewService(market.Deps{
		Store:      marketstore.NewMemory(),
		Registry:   names,
		Escrow:     escrow,
		Settlement: settlement.NewEngine(treasurer, escrow, nil, logger),
		Events:     events.NewMemorySink(),
		Logger:     logger,
		Market:     marketAddr,
	})

	router := httptransport.NewRouter(httptransport.Deps{
		Market:  service,
		Ledger:  escrow,
		Tokens:  jwt,
		Issuer:  jwt,
		Logger:  logger,
		DevMode: true,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, names: names, treasurer: treasurer, escrow: escrow}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.ContentLength != 0 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func (s *testServer) token(t *testing.T, address string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/auth/token", "", map[string]string{"address": address})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

func (s *testServer) handIn(name string, seller string) {
	s.names.Seed(id.KeyForName(name), marketAddr, id.Address(seller))
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_MutationsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/market/sales/vault.example"},
		{http.MethodDelete, "/market/sales/vault.example"},
		{http.MethodPost, "/market/sales/vault.example/buy"},
		{http.MethodPost, "/market/sales/vault.example/bids"},
		{http.MethodPost, "/market/sales/vault.example/finish"},
		{http.MethodPost, "/ledger/withdraw"},
		{http.MethodGet, "/ledger/balance"},
	} {
		resp, _ := s.do(t, tc.method, tc.path, "", map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_TokenEndpointValidatesAddress(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodPost, "/auth/token", "", map[string]string{"address": "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestRouter_ListGetBuy(t *testing.T) {
	s := newTestServer(t)
	s.handIn("vault.example", alice)
	sellerToken := s.token(t, alice)
	buyerToken := s.token(t, bob)

	resp, _ := s.do(t, http.MethodPost, "/market/sales/vault.example", sellerToken,
		map[string]any{"price": 100, "reserve": 50})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, sale := s.do(t, http.MethodGet, "/market/sales/vault.example", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(100), sale["price"])
	assert.Equal(t, float64(50), sale["reserve"])
	assert.Equal(t, float64(50), sale["minimum_bid"])
	assert.Equal(t, false, sale["auction_started"])

	resp, outcome := s.do(t, http.MethodPost, "/market/sales/vault.example/buy", buyerToken,
		map[string]any{"amount": 100})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	seller := outcome["seller"].(map[string]any)
	assert.Equal(t, alice, seller["account"])
	assert.Equal(t, float64(90), seller["amount"])
	assert.Equal(t, float64(10), outcome["remainder"])

	resp, body := s.do(t, http.MethodGet, "/market/sales/vault.example", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}

func TestRouter_BidAndFinish(t *testing.T) {
	s := newTestServer(t)
	s.handIn("vault.example", alice)
	sellerToken := s.token(t, alice)
	bidderToken := s.token(t, bob)

	resp, _ := s.do(t, http.MethodPost, "/market/sales/vault.example", sellerToken,
		map[string]any{"reserve": 50})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/market/sales/vault.example/bids", bidderToken,
		map[string]any{"amount": 40})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "failed_precondition", body["error"])

	resp, body = s.do(t, http.MethodPost, "/market/sales/vault.example/bids", bidderToken,
		map[string]any{"amount": 60})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(60), body["amount"])
	assert.NotEmpty(t, body["auction_ends"])

	// The 24h window is still open, so finishing is premature.
	resp, body = s.do(t, http.MethodPost, "/market/sales/vault.example/finish", bidderToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "failed_precondition", body["error"])
}

func TestRouter_CancelRequiresSeller(t *testing.T) {
	s := newTestServer(t)
	s.handIn("vault.example", alice)
	sellerToken := s.token(t, alice)
	otherToken := s.token(t, bob)

	resp, _ := s.do(t, http.MethodPost, "/market/sales/vault.example", sellerToken,
		map[string]any{"price": 100})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := s.do(t, http.MethodDelete, "/market/sales/vault.example", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])

	resp, _ = s.do(t, http.MethodDelete, "/market/sales/vault.example", sellerToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRouter_BalanceAndWithdraw(t *testing.T) {
	s := newTestServer(t)
	bobToken := s.token(t, bob)
	require.NoError(t, s.escrow.Credit(context.Background(), id.Address(bob), 75))

	resp, body := s.do(t, http.MethodGet, "/ledger/balance", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(75), body["amount"])

	resp, body = s.do(t, http.MethodPost, "/ledger/withdraw", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(75), body["amount"])
	assert.Equal(t, id.Amount(75), s.treasurer.Paid(id.Address(bob)))

	// Nothing left: withdrawing again is a harmless no-op.
	resp, body = s.do(t, http.MethodPost, "/ledger/withdraw", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["amount"])
}

func TestRouter_InvalidBodyRejected(t *testing.T) {
	s := newTestServer(t)
	s.handIn("vault.example", alice)
	token := s.token(t, alice)

	req, err := http.NewRequest(http.MethodPost, s.URL+"/market/sales/vault.example", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
