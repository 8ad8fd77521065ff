// Package metrics provides operational metrics collection.
//
// This package implements the in-process instrumentation primitives used
// across the backend and the traffic simulator:
//
// # Metric Kinds
//
//   - Counter: monotonically non-decreasing accumulated value
//   - Gauge: last-write-wins point value, may rise or fall
//   - Histogram: cumulative bucket counts plus running sum and count
//
// # Registry
//
// A Registry owns every named metric and enforces one schema (kind plus
// label names) per name for the lifetime of the process. Registration is
// idempotent and happens at startup; observation is frequent and each
// metric synchronizes its own series independently, so unrelated metrics
// never contend on a shared lock.
//
// # Cardinality
//
// Label values are part of a series identity, so unbounded label values
// (raw user IDs, raw URL paths) would grow memory without limit. The
// registry enforces a per-metric ceiling on distinct label tuples;
// observations past the ceiling are dropped and counted on the
// telemetry_observations_dropped_total side channel instead of failing
// the caller.
//
// # Exposition
//
// Registry state is rendered in the Prometheus text format, stable-ordered
// by metric name and then label tuple so repeated scrapes are diffable.
package metrics
