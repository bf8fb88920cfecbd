// Package httptransport is the thin HTTP layer: it decodes requests,
// delegates to the domain services, and translates their errors. No
// business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namemart/internal/platform/metrics"
	"namemart/internal/platform/middleware"
	"namemart/internal/transport/http/shared"
)

// Deps collects everything the router mounts.
type Deps struct {
	Market  MarketService
	Ledger  LedgerService
	Tokens  middleware.TokenValidator
	Issuer  TokenIssuer
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// DevMode mounts the open token endpoint.
	DevMode bool
}

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(d.Metrics))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	requireAuth := middleware.RequireAuth(d.Tokens, d.Logger)
	api := chi.NewRouter()
	api.Use(middleware.ContentTypeJSON)
	NewMarketHandler(d.Market, d.Logger).Register(api, requireAuth)
	NewLedgerHandler(d.Ledger, d.Logger).Register(api, requireAuth)
	if d.DevMode {
		NewAuthHandler(d.Issuer, d.Logger).Register(api)
	}
	r.Mount("/", api)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
