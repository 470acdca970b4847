package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStoreMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.ObservePlacement("admin_approve", "placed", 20*time.Millisecond)
	m.ObservePlacement("admin_approve", "placed", 10*time.Millisecond)
	m.ObservePlacement("checkout", "", time.Millisecond)
	m.IncGatewayCall("initiate", errors.New("timeout"))
	m.IncDeliveryVerification("challenge", "mismatch")

	if got := testutil.ToFloat64(m.placements.WithLabelValues("admin_approve", "placed")); got != 2 {
		t.Fatalf("expected 2 placements, got %f", got)
	}
	if got := testutil.ToFloat64(m.placements.WithLabelValues("checkout", "unknown")); got != 1 {
		t.Fatalf("empty outcome should normalize to unknown, got %f", got)
	}
	if got := testutil.ToFloat64(m.gatewayCalls.WithLabelValues("initiate", "error")); got != 1 {
		t.Fatalf("expected gateway error count 1, got %f", got)
	}
	if count := testutil.CollectAndCount(m.placementTime); count != 2 {
		t.Fatalf("expected 2 histogram series, got %d", count)
	}
}

func TestStoreMetricsNilSafe(t *testing.T) {
	var m *StoreMetrics
	m.ObservePlacement("checkout", "placed", time.Second)
	m.IncPaymentTransition("manual", "success")
	m.ObserveBroadcastBatch("running", 10)

	empty := NewStoreMetrics(nil)
	empty.IncGatewayCall("verify", nil)
	empty.IncDeliveryVerification("code", "verified")
}
