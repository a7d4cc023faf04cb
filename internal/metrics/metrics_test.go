package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"slotguard/internal/monitor"
)

func TestObserveVerification(t *testing.T) {
	m := New()

	m.ObserveVerification("verified", 0.12, 3)
	m.ObserveVerification("verified", 0.08, 3)
	m.ObserveVerification("rejected", 0.05, 2)

	if got := testutil.ToFloat64(m.Verifications.WithLabelValues("verified")); got != 2 {
		t.Fatalf("expected 2 verified, got %v", got)
	}
	if got := testutil.ToFloat64(m.Verifications.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("expected 1 rejected, got %v", got)
	}
}

func TestSetNetworkHealth(t *testing.T) {
	m := New()

	m.SetNetworkHealth(monitor.Halted)
	if got := testutil.ToFloat64(m.NetworkHealth); got != 2 {
		t.Fatalf("halted must map to 2, got %v", got)
	}
	m.SetNetworkHealth(monitor.Healthy)
	if got := testutil.ToFloat64(m.NetworkHealth); got != 0 {
		t.Fatalf("healthy must map to 0, got %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.SourceFailures.WithLabelValues("rpc-a").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "slotguard_source_failures_total") {
		t.Fatal("exposition must include source failure counter")
	}
}
