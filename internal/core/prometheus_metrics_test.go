package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	ctx := context.Background()
	rec.Observe(ctx, "create_recipe", true, 5*time.Millisecond)
	rec.Observe(ctx, "create_recipe", true, 7*time.Millisecond)
	rec.Observe(ctx, "delete_recipe", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	if got := testutil.ToFloat64(rec.results.WithLabelValues("create_recipe", "success")); got != 2 {
		t.Fatalf("expected 2 create successes, got %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("delete_recipe", "error")); got != 1 {
		t.Fatalf("expected 1 delete error, got %v", got)
	}
}

func TestPrometheusMetricsRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
