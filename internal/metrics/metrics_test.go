package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersWithoutPanic(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m := New(registry)
	if m == nil {
		t.Fatal("Expected metrics instance")
	}
}

func TestCountersIncrement(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.PortalQueriesTotal.WithLabelValues("assignment_status", "ok").Inc()
	m.PortalQueriesTotal.WithLabelValues("assignment_status", "ok").Inc()
	m.PortalExtractorHits.WithLabelValues("pattern").Inc()
	m.BotRateLimitedTotal.Inc()

	got := testutil.ToFloat64(m.PortalQueriesTotal.WithLabelValues("assignment_status", "ok"))
	if got != 2 {
		t.Errorf("Expected counter value 2, got %v", got)
	}
	if testutil.ToFloat64(m.BotRateLimitedTotal) != 1 {
		t.Error("Expected rate limited counter to be 1")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	_ = New(registry)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	_ = New(registry)
}
