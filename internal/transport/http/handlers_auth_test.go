package httptransport

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	id "namemart/pkg/domain"
	"namemart/pkg/testutil"
)

type stubIssuer struct {
	token string
	err   error
	last  id.Address
}

func (s *stubIssuer) Issue(caller id.Address) (string, error) {
	s.last = caller
	return s.token, s.err
}

func newAuthRouter(issuer *stubIssuer) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewAuthHandler(issuer, logger).Register(r)
	return r
}

func TestAuthHandler_IssuesToken(t *testing.T) {
	issuer := &stubIssuer{token: "signed-token"}
	router := newAuthRouter(issuer)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token",
		map[string]string{"address": "0x00000000000000000000000000000000000000a1"})
	rr := testutil.DoRequest(router, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	testutil.DecodeJSON(t, rr, &body)
	assert.Equal(t, "signed-token", body["token"])
	assert.Equal(t, id.Address("0x00000000000000000000000000000000000000a1"), issuer.last)
}

func TestAuthHandler_RejectsBadAddress(t *testing.T) {
	router := newAuthRouter(&stubIssuer{token: "unused"})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token",
		map[string]string{"address": "0xshort"})
	rr := testutil.DoRequest(router, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_ReportsMintFailure(t *testing.T) {
	router := newAuthRouter(&stubIssuer{err: errors.New("keystore offline")})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token",
		map[string]string{"address": "0x00000000000000000000000000000000000000a1"})
	rr := testutil.DoRequest(router, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	testutil.DecodeJSON(t, rr, &body)
	assert.Equal(t, "internal", body["error"])
}
