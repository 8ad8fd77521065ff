// Package telemetry provides observability for BattleArena.
//
// This package separates two distinct concerns:
//
// # Operational Metrics (telemetry/metrics)
//
// Operational metrics capture system health and performance:
//   - Request latency
//   - Error rates
//   - API usage patterns
//   - Resource utilization
//
// They are accumulated in-process and exposed through a text exposition
// endpoint for an external scrape collector.
//
// # Business Events
//
// Business events (registrations, matches, purchases) are recorded by the
// game service's event recorder on top of the same metrics registry, but
// with their own metric names and label schemas, so operational and
// business dashboards stay independent.
package telemetry
