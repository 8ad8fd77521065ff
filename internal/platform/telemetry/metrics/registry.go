package metrics

import (
	"fmt"
	"sync"
)

// DefaultCardinalityLimit bounds the distinct label tuples kept per metric
// before observations are dropped.
const DefaultCardinalityLimit = 2000

// DroppedObservationsMetric is the side-channel counter incremented when
// the cardinality guard drops an observation, labeled by metric name.
const DroppedObservationsMetric = "telemetry_observations_dropped_total"

// Registry is the authoritative store mapping metric name to primitive.
//
// Construct one Registry per process (or per test) and share it by
// reference. Registration is rare and exclusively locked. Observation
// through a typed handle goes straight to the per-metric state without
// touching the registry lock; name-based Observe pays a read lock for the
// lookup.
type Registry struct {
	limit int

	mu      sync.RWMutex
	metrics map[string]*metric

	dropped *Counter
}

// Option configures a Registry.
type Option func(*Registry)

// WithCardinalityLimit overrides the per-metric series ceiling. Zero or
// negative disables the guard.
func WithCardinalityLimit(n int) Option {
	return func(r *Registry) {
		r.limit = n
	}
}

// NewRegistry creates an empty registry with the dropped-observation side
// channel pre-registered.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		limit:   DefaultCardinalityLimit,
		metrics: make(map[string]*metric),
	}
	for _, opt := range opts {
		opt(r)
	}
	// The side channel has one series per metric name, so its own
	// cardinality is bounded by registration and it takes no drop callback.
	m := newMetric(DroppedObservationsMetric, KindCounter, []string{"metric"}, nil, 0, nil)
	r.metrics[DroppedObservationsMetric] = m
	r.dropped = &Counter{m: m}
	return r
}

// noteDrop records one dropped observation for a metric name.
func (r *Registry) noteDrop(name string) {
	_ = r.dropped.Inc(Labels{"metric": name})
}

// DroppedObservations returns how many observations were dropped for a
// metric name by the cardinality guard.
func (r *Registry) DroppedObservations(name string) float64 {
	return r.dropped.Value(Labels{"metric": name})
}

// register resolves or creates the named metric, enforcing one schema per
// name for the process lifetime.
func (r *Registry) register(name string, kind Kind, labelNames []string, buckets []float64) (*metric, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: metric name is required", ErrInvalidOperation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.metrics[name]; ok {
		if !existing.schemaMatches(kind, labelNames, buckets) {
			return nil, fmt.Errorf("%w: %s already registered as %s%v", ErrSchemaConflict, name, existing.kind, existing.labelNames)
		}
		return existing, nil
	}
	m := newMetric(name, kind, labelNames, buckets, r.limit, r.noteDrop)
	r.metrics[name] = m
	return m, nil
}

// RegisterCounter declares or looks up a counter. Re-registration with an
// identical schema returns the same underlying metric.
func (r *Registry) RegisterCounter(name string, labelNames ...string) (*Counter, error) {
	m, err := r.register(name, KindCounter, labelNames, nil)
	if err != nil {
		return nil, err
	}
	return &Counter{m: m}, nil
}

// RegisterGauge declares or looks up a gauge.
func (r *Registry) RegisterGauge(name string, labelNames ...string) (*Gauge, error) {
	m, err := r.register(name, KindGauge, labelNames, nil)
	if err != nil {
		return nil, err
	}
	return &Gauge{m: m}, nil
}

// RegisterHistogram declares or looks up a histogram with the given bucket
// boundaries. Boundaries are sorted; the +Inf bucket is implicit.
func (r *Registry) RegisterHistogram(name string, buckets []float64, labelNames ...string) (*Histogram, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("%w: histogram %s needs at least one bucket boundary", ErrInvalidOperation, name)
	}
	m, err := r.register(name, KindHistogram, labelNames, buckets)
	if err != nil {
		return nil, err
	}
	return &Histogram{m: m}, nil
}

// Observe resolves a metric by name and records a value: counters add,
// gauges set, histograms observe a sample.
func (r *Registry) Observe(name string, labels Labels, value float64) error {
	r.mu.RLock()
	m, ok := r.metrics[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	switch m.kind {
	case KindCounter:
		return (&Counter{m: m}).Add(labels, value)
	case KindGauge:
		return (&Gauge{m: m}).Set(labels, value)
	case KindHistogram:
		return (&Histogram{m: m}).Observe(labels, value)
	default:
		return fmt.Errorf("%w: metric %s has unknown kind", ErrInvalidOperation, name)
	}
}

// Value returns the accumulated value for one label tuple of a named
// metric, zero when the tuple has never been observed. Histograms report
// their running sum.
func (r *Registry) Value(name string, labels Labels) (float64, error) {
	r.mu.RLock()
	m, ok := r.metrics[name]
	r.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return m.value(labels), nil
}

// snapshots returns a point-in-time view of every metric, sorted by name.
func (r *Registry) snapshots() []Snapshot {
	r.mu.RLock()
	all := make([]*metric, 0, len(r.metrics))
	for _, m := range r.metrics {
		all = append(all, m)
	}
	r.mu.RUnlock()

	views := make([]Snapshot, 0, len(all))
	for _, m := range all {
		views = append(views, m.snapshot())
	}
	sortSnapshots(views)
	return views
}
