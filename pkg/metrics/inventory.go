package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics counts stock-affecting events of the settlement engine and catalog sync.
type InventoryMetrics struct {
	settled      *prometheus.CounterVec
	cancelled    *prometheus.CounterVec
	settleTime   prometheus.Histogram
	clamped      prometheus.Counter
	syncFailures prometheus.Counter
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kitchenpos_sales_settled_total",
		Help: "Settled sales by payment method.",
	}, []string{"payment_method"})
	cancelled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kitchenpos_sales_cancelled_total",
		Help: "Cancelled sales by the status they were cancelled from.",
	}, []string{"from_status"})
	settleTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kitchenpos_settlement_duration_seconds",
		Help:    "Duration of the settlement transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	clamped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kitchenpos_stock_clamped_total",
		Help: "Ingredient decrements clamped at zero during settlement.",
	})
	syncFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kitchenpos_catalog_sync_failures_total",
		Help: "Failed ingredient to product synchronisations.",
	})
	reg.MustRegister(settled, cancelled, settleTime, clamped, syncFailures)
	return &InventoryMetrics{
		settled:      settled,
		cancelled:    cancelled,
		settleTime:   settleTime,
		clamped:      clamped,
		syncFailures: syncFailures,
	}
}

func (m *InventoryMetrics) IncSettled(paymentMethod string) {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func (m *InventoryMetrics) IncCancelled(fromStatus string) {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.WithLabelValues(normalizeLabel(fromStatus)).Inc()
}

func (m *InventoryMetrics) ObserveSettlement(duration time.Duration) {
	if m == nil || m.settleTime == nil {
		return
	}
	m.settleTime.Observe(duration.Seconds())
}

func (m *InventoryMetrics) IncClamped() {
	if m == nil || m.clamped == nil {
		return
	}
	m.clamped.Inc()
}

func (m *InventoryMetrics) IncSyncFailure() {
	if m == nil || m.syncFailures == nil {
		return
	}
	m.syncFailures.Inc()
}
