package metrics

import "fmt"

// Counter is a monotonically non-decreasing accumulated value.
type Counter struct {
	m *metric
}

// Add accumulates a non-negative delta for the given label tuple.
func (c *Counter) Add(labels Labels, delta float64) error {
	if delta < 0 {
		return fmt.Errorf("%w: negative counter delta %v on %s", ErrInvalidOperation, delta, c.m.name)
	}
	s, err := c.m.seriesFor(labels)
	if err != nil {
		return err
	}
	s.addFloat(delta)
	return nil
}

// Inc adds one.
func (c *Counter) Inc(labels Labels) error {
	return c.Add(labels, 1)
}

// Value returns the accumulated value for a label tuple, zero if unseen.
func (c *Counter) Value(labels Labels) float64 {
	return c.m.value(labels)
}

// Snapshot returns an immutable view of every series.
func (c *Counter) Snapshot() Snapshot {
	return c.m.snapshot()
}

// Gauge is a last-write-wins point value that may rise or fall.
type Gauge struct {
	m *metric
}

// Set stores the value for the given label tuple.
func (g *Gauge) Set(labels Labels, value float64) error {
	s, err := g.m.seriesFor(labels)
	if err != nil {
		return err
	}
	s.setFloat(value)
	return nil
}

// Add adjusts the value relatively; the delta may be negative.
func (g *Gauge) Add(labels Labels, delta float64) error {
	s, err := g.m.seriesFor(labels)
	if err != nil {
		return err
	}
	s.addFloat(delta)
	return nil
}

// Value returns the current value for a label tuple, zero if unseen.
func (g *Gauge) Value(labels Labels) float64 {
	return g.m.value(labels)
}

// Snapshot returns an immutable view of every series.
func (g *Gauge) Snapshot() Snapshot {
	return g.m.snapshot()
}

// Histogram summarizes a distribution through cumulative bucket counts, a
// running sum and a sample count.
type Histogram struct {
	m *metric
}

// Observe records one sample. The sample lands in every bucket whose
// boundary is greater than or equal to it, plus the +Inf overflow bucket.
func (h *Histogram) Observe(labels Labels, value float64) error {
	s, err := h.m.seriesFor(labels)
	if err != nil {
		return err
	}
	s.observe(h.m.buckets, value)
	return nil
}

// Snapshot returns an immutable view of every series.
func (h *Histogram) Snapshot() Snapshot {
	return h.m.snapshot()
}
