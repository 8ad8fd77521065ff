package metrics

import (
	"math"
	"sort"
)

// Bucket is one cumulative histogram bucket in a snapshot.
type Bucket struct {
	UpperBound      float64
	CumulativeCount uint64
}

// Series is an immutable view of one label tuple's accumulated state.
type Series struct {
	LabelValues []string

	// Value holds counter and gauge state.
	Value float64

	// Histogram state; Buckets ends with the +Inf bucket.
	Buckets []Bucket
	Sum     float64
	Count   uint64
}

// Snapshot is an immutable point-in-time view of one metric.
//
// Series are sorted by label tuple. A snapshot tolerates writes that are
// concurrently in flight, but a counter never appears to go backward and a
// histogram's bucket set is copied under the series lock so it is never
// partially applied.
type Snapshot struct {
	Name       string
	Kind       Kind
	LabelNames []string
	Series     []Series
}

func (m *metric) snapshot() Snapshot {
	m.mu.RLock()
	all := make([]*series, 0, len(m.series))
	for _, s := range m.series {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := Snapshot{
		Name:       m.name,
		Kind:       m.kind,
		LabelNames: append([]string(nil), m.labelNames...),
		Series:     make([]Series, 0, len(all)),
	}
	for _, s := range all {
		view := Series{LabelValues: append([]string(nil), s.labelValues...)}
		switch m.kind {
		case KindHistogram:
			s.hmu.Lock()
			view.Buckets = make([]Bucket, len(s.counts))
			for i := range m.buckets {
				view.Buckets[i] = Bucket{UpperBound: m.buckets[i], CumulativeCount: s.counts[i]}
			}
			view.Buckets[len(m.buckets)] = Bucket{UpperBound: math.Inf(1), CumulativeCount: s.counts[len(m.buckets)]}
			view.Sum = s.sum
			view.Count = s.count
			s.hmu.Unlock()
		default:
			view.Value = math.Float64frombits(s.bits.Load())
		}
		out.Series = append(out.Series, view)
	}
	sort.Slice(out.Series, func(i, j int) bool {
		return lessTuples(out.Series[i].LabelValues, out.Series[j].LabelValues)
	})
	return out
}

// lessTuples orders label tuples lexicographically for stable exposition.
func lessTuples(a, b []string) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// value returns the current accumulated value for a label tuple, or zero
// when the tuple has never been observed. Intended for tests and samplers.
func (m *metric) value(labels Labels) float64 {
	values, err := m.valuesFor(labels)
	if err != nil {
		return 0
	}
	key := joinValues(values)
	m.mu.RLock()
	s, ok := m.series[key]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	if m.kind == KindHistogram {
		s.hmu.Lock()
		defer s.hmu.Unlock()
		return s.sum
	}
	return math.Float64frombits(s.bits.Load())
}
