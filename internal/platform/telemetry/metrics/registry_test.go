package metrics

import (
	"errors"
	"testing"
)

func TestRegisterCounter_IdempotentWithSameSchema(t *testing.T) {
	reg := NewRegistry()

	first, err := reg.RegisterCounter("requests_total", "method", "route")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := reg.RegisterCounter("requests_total", "method", "route")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.m != second.m {
		t.Fatal("re-registration should return the existing metric")
	}
}

func TestRegister_SchemaConflict(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.RegisterCounter("requests_total", "method", "route"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := reg.RegisterGauge("requests_total", "method", "route"); !errors.Is(err, ErrSchemaConflict) {
		t.Fatalf("kind change: got %v, want ErrSchemaConflict", err)
	}
	if _, err := reg.RegisterCounter("requests_total", "method"); !errors.Is(err, ErrSchemaConflict) {
		t.Fatalf("label change: got %v, want ErrSchemaConflict", err)
	}
}

func TestRegisterHistogram_BucketConflict(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.RegisterHistogram("latency_seconds", []float64{0.1, 0.5}, "route"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.RegisterHistogram("latency_seconds", []float64{0.1, 1.0}, "route"); !errors.Is(err, ErrSchemaConflict) {
		t.Fatalf("bucket change: got %v, want ErrSchemaConflict", err)
	}
}

func TestObserve_UnknownMetric(t *testing.T) {
	reg := NewRegistry()

	err := reg.Observe("never_registered", Labels{}, 1)
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("got %v, want ErrUnknownMetric", err)
	}
}

func TestObserve_DelegatesByKind(t *testing.T) {
	reg := NewRegistry()

	counter, err := reg.RegisterCounter("events_total", "kind")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gauge, err := reg.RegisterGauge("queue_depth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := reg.Observe("events_total", Labels{"kind": "login"}, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Observe("queue_depth", Labels{}, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Observe("queue_depth", Labels{}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := counter.Value(Labels{"kind": "login"}); got != 2 {
		t.Fatalf("counter = %v, want 2", got)
	}
	if got := gauge.Value(Labels{}); got != 3 {
		t.Fatalf("gauge should be last write, got %v want 3", got)
	}
}

func TestCardinalityCeiling_DropsAndCounts(t *testing.T) {
	const limit = 5
	reg := NewRegistry(WithCardinalityLimit(limit))

	counter, err := reg.RegisterCounter("player_actions_total", "player")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var dropped int
	for i := 0; i < limit+3; i++ {
		err := counter.Inc(Labels{"player": string(rune('a' + i))})
		if errors.Is(err, ErrCardinalityLimitExceeded) {
			dropped++
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	if got := len(counter.Snapshot().Series); got != limit {
		t.Fatalf("persisted series = %d, want %d", got, limit)
	}
	if got := reg.DroppedObservations("player_actions_total"); got < 1 {
		t.Fatalf("dropped side channel = %v, want >= 1", got)
	}
}

func TestCardinalityCeiling_ExistingTupleStillWritable(t *testing.T) {
	reg := NewRegistry(WithCardinalityLimit(1))

	counter, err := reg.RegisterCounter("hits_total", "route")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := counter.Inc(Labels{"route": "/a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := counter.Inc(Labels{"route": "/b"}); !errors.Is(err, ErrCardinalityLimitExceeded) {
		t.Fatalf("got %v, want ErrCardinalityLimitExceeded", err)
	}
	// The established tuple keeps accumulating after the ceiling is hit.
	if err := counter.Inc(Labels{"route": "/a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := counter.Value(Labels{"route": "/a"}); got != 2 {
		t.Fatalf("value = %v, want 2", got)
	}
}
