package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared across the application.
type Metrics struct {
	ListingsCreated   prometheus.Counter
	ListingsCancelled prometheus.Counter
	BidsAccepted      prometheus.Counter
	BidsRejected      prometheus.Counter
	DirectPurchases   prometheus.Counter
	AuctionsSettled   prometheus.Counter
	Withdrawals       *prometheus.CounterVec
	EscrowedShares    prometheus.Counter
	RequestLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namemart_listings_created_total",
			Help: "Total number of sale listings created",
		}),
		ListingsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namemart_listings_cancelled_total",
			Help: "Total number of sale listings cancelled before any bid",
		}),
		BidsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namemart_bids_accepted_total",
			Help: "Total number of bids accepted",
		}),
		BidsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namemart_bids_rejected_total",
			Help: "Total number of bids rejected by the minimum-bid or window rules",
		}),
		DirectPurchases: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namemart_direct_purchases_total",
			Help: "Total number of fixed-price purchases settled",
		}),
		AuctionsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namemart_auctions_settled_total",
			Help: "Total number of auctions finished and settled",
		}),
		Withdrawals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namemart_withdrawals_total",
			Help: "Escrow withdrawal attempts by outcome",
		}, []string{"outcome"}),
		EscrowedShares: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namemart_settlement_escrowed_shares_total",
			Help: "Settlement shares routed to the balance ledger after a failed push",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "namemart_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(route, method string, d time.Duration) {
	m.RequestLatency.WithLabelValues(route, method).Observe(d.Seconds())
}

// IncWithdrawal counts a withdrawal attempt outcome: "paid", "noop",
// "restored".
func (m *Metrics) IncWithdrawal(outcome string) {
	m.Withdrawals.WithLabelValues(outcome).Inc()
}
