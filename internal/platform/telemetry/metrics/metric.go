package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Kind identifies the accumulation behavior of a metric.
type Kind int

const (
	KindCounter Kind = iota + 1
	KindGauge
	KindHistogram
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels carries the label values for one observation, keyed by label name.
// An observation must supply exactly the metric's declared label names.
type Labels map[string]string

// labelSeparator joins label values into a series key. It cannot appear in
// UTF-8 text, so joined values never collide.
const labelSeparator = "\xff"

func joinValues(values []string) string {
	return strings.Join(values, labelSeparator)
}

// metric is the shared state behind Counter, Gauge and Histogram handles.
//
// The series map is guarded by mu; individual counter and gauge series
// accumulate through atomics so concurrent writers to an existing series
// only take the read lock.
type metric struct {
	name       string
	kind       Kind
	labelNames []string
	buckets    []float64 // histogram boundaries, sorted ascending
	limit      int
	onDrop     func(name string)

	mu     sync.RWMutex
	series map[string]*series
}

// series is one label tuple's accumulator.
type series struct {
	labelValues []string

	// Counter and gauge value as float64 bits.
	bits atomic.Uint64

	// Histogram state, guarded by hmu so a snapshot never sees a partially
	// applied bucket update.
	hmu    sync.Mutex
	counts []uint64 // one slot per boundary plus +Inf
	sum    float64
	count  uint64
}

func newMetric(name string, kind Kind, labelNames []string, buckets []float64, limit int, onDrop func(string)) *metric {
	names := append([]string(nil), labelNames...)
	var bounds []float64
	if kind == KindHistogram {
		bounds = append([]float64(nil), buckets...)
		sort.Float64s(bounds)
	}
	return &metric{
		name:       name,
		kind:       kind,
		labelNames: names,
		buckets:    bounds,
		limit:      limit,
		onDrop:     onDrop,
		series:     make(map[string]*series),
	}
}

// schemaMatches reports whether a re-registration is compatible.
func (m *metric) schemaMatches(kind Kind, labelNames []string, buckets []float64) bool {
	if m.kind != kind || len(m.labelNames) != len(labelNames) {
		return false
	}
	for i, name := range m.labelNames {
		if labelNames[i] != name {
			return false
		}
	}
	if kind != KindHistogram {
		return true
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	if len(m.buckets) != len(sorted) {
		return false
	}
	for i, b := range m.buckets {
		if sorted[i] != b {
			return false
		}
	}
	return true
}

// valuesFor validates labels against the declared schema and returns the
// values in declaration order.
func (m *metric) valuesFor(labels Labels) ([]string, error) {
	if len(labels) != len(m.labelNames) {
		return nil, fmt.Errorf("%w: metric %s wants labels %v, got %d keys", ErrLabelSchemaMismatch, m.name, m.labelNames, len(labels))
	}
	values := make([]string, len(m.labelNames))
	for i, name := range m.labelNames {
		value, ok := labels[name]
		if !ok {
			return nil, fmt.Errorf("%w: metric %s missing label %q", ErrLabelSchemaMismatch, m.name, name)
		}
		values[i] = value
	}
	return values, nil
}

// seriesFor resolves or lazily creates the series for a label tuple,
// enforcing the cardinality ceiling on creation.
func (m *metric) seriesFor(labels Labels) (*series, error) {
	values, err := m.valuesFor(labels)
	if err != nil {
		return nil, err
	}
	key := joinValues(values)

	m.mu.RLock()
	s, ok := m.series[key]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	s, ok = m.series[key]
	if !ok {
		if m.limit > 0 && len(m.series) >= m.limit {
			m.mu.Unlock()
			if m.onDrop != nil {
				m.onDrop(m.name)
			}
			return nil, fmt.Errorf("%w: metric %s at %d series", ErrCardinalityLimitExceeded, m.name, m.limit)
		}
		s = &series{labelValues: values}
		if m.kind == KindHistogram {
			s.counts = make([]uint64, len(m.buckets)+1)
		}
		m.series[key] = s
	}
	m.mu.Unlock()
	return s, nil
}

// addFloat accumulates delta into the series value with a CAS loop.
func (s *series) addFloat(delta float64) {
	for {
		old := s.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if s.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// setFloat stores value, last write wins.
func (s *series) setFloat(value float64) {
	s.bits.Store(math.Float64bits(value))
}

// observe records one histogram sample into every cumulative slot it
// belongs to, the running sum and the sample count.
func (s *series) observe(bounds []float64, value float64) {
	s.hmu.Lock()
	for i, bound := range bounds {
		if value <= bound {
			s.counts[i]++
		}
	}
	s.counts[len(bounds)]++ // +Inf
	s.sum += value
	s.count++
	s.hmu.Unlock()
}
