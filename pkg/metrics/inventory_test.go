package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInventoryMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewInventoryMetrics(reg)
	m.IncSettled("cash")
	m.IncSettled("cash")
	m.IncCancelled("settled")
	m.IncClamped()
	m.IncSyncFailure()
	m.ObserveSettlement(40 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "kitchenpos_sales_settled_total", "payment_method", "cash"); err != nil || got != 2 {
		t.Fatalf("expected settled=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "kitchenpos_sales_cancelled_total", "from_status", "settled"); err != nil || got != 1 {
		t.Fatalf("expected cancelled=1, got %f (%v)", got, err)
	}
	clamped := findMetricFamily(mfs, "kitchenpos_stock_clamped_total")
	if clamped == nil || clamped.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected clamped counter to be 1")
	}
	sync := findMetricFamily(mfs, "kitchenpos_catalog_sync_failures_total")
	if sync == nil || sync.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected sync failure counter to be 1")
	}
	if findMetricFamily(mfs, "kitchenpos_settlement_duration_seconds") == nil {
		t.Fatalf("expected settlement histogram")
	}
}

func TestNilInventoryMetricsIsNoop(t *testing.T) {
	var m *InventoryMetrics
	m.IncSettled("cash")
	m.IncClamped()
	NewInventoryMetrics(nil).IncSyncFailure()
}
