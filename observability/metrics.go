package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type auctionMetrics struct {
	created     prometheus.Counter
	bids        *prometheus.CounterVec
	refunds     prometheus.Counter
	settlements *prometheus.CounterVec
	rpcLatency  *prometheus.HistogramVec
}

var (
	auctionMetricsOnce sync.Once
	auctionRegistry    *auctionMetrics
)

// AuctionMetrics returns the lazily-initialised metrics registry used to
// record auction activity.
func AuctionMetrics() *auctionMetrics {
	auctionMetricsOnce.Do(func() {
		auctionRegistry = &auctionMetrics{
			created: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "engine",
				Name:      "created_total",
				Help:      "Total auctions created.",
			}),
			bids: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "engine",
				Name:      "bids_total",
				Help:      "Total bids segmented by outcome.",
			}, []string{"outcome"}),
			refunds: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "engine",
				Name:      "refunds_total",
				Help:      "Total refunds issued to displaced bidders.",
			}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "engine",
				Name:      "settlements_total",
				Help:      "Total auction closings segmented by result.",
			}, []string{"result"}),
			rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "auction",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "outcome"}),
		}
		prometheus.MustRegister(
			auctionRegistry.created,
			auctionRegistry.bids,
			auctionRegistry.refunds,
			auctionRegistry.settlements,
			auctionRegistry.rpcLatency,
		)
	})
	return auctionRegistry
}

// RecordAuctionCreated increments the creation counter.
func (m *auctionMetrics) RecordAuctionCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// RecordBid increments the bid counter for the supplied outcome
// ("accepted" or "rejected").
func (m *auctionMetrics) RecordBid(outcome string) {
	if m == nil {
		return
	}
	m.bids.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// RecordRefund increments the refund counter.
func (m *auctionMetrics) RecordRefund() {
	if m == nil {
		return
	}
	m.refunds.Inc()
}

// RecordSettlement increments the settlement counter for the supplied result
// ("winner" or "no_bids").
func (m *auctionMetrics) RecordSettlement(result string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveRPC records the latency of an RPC handler invocation.
func (m *auctionMetrics) ObserveRPC(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.rpcLatency.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	normalized := strings.TrimSpace(strings.ToLower(v))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
