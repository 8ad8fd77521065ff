// Package events records business metrics for completed game operations.
//
// The recorder is a write-only façade over the metrics registry: handlers
// call one method per business event after the operation finished, and the
// recorder never reads or mutates domain state. Callers are responsible
// for invoking each method at most once per logical event; duplicate calls
// double-count.
package events

import (
	"fmt"

	"github.com/louisbranch/battlearena/internal/platform/telemetry/metrics"
)

// Metric names recorded by the façade.
const (
	RegistrationsMetric = "players_registered_total"
	LoginsMetric        = "logins_total"
	ActivePlayersMetric = "active_players_count"
	MatchesMetric       = "matches_total"
	TransactionsMetric  = "transactions_total"
	RevenueMetric       = "revenue_total_usd"
	FailureRateMetric   = "transaction_failure_rate"
)

// Outcome labels shared across event counters.
const (
	OutcomeOK        = "ok"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Match status labels.
const (
	MatchStarted   = "started"
	MatchCompleted = "completed"
	MatchCrashed   = "crashed"
)

// Recorder updates business metrics through a shared registry.
type Recorder struct {
	registrations *metrics.Counter
	logins        *metrics.Counter
	activePlayers *metrics.Gauge
	matches       *metrics.Counter
	transactions  *metrics.Counter
	revenue       *metrics.Counter
	failureRate   *metrics.Gauge
}

// NewRecorder registers the business metrics on reg.
func NewRecorder(reg *metrics.Registry) (*Recorder, error) {
	rec := &Recorder{}
	var err error
	if rec.registrations, err = reg.RegisterCounter(RegistrationsMetric, "status"); err != nil {
		return nil, fmt.Errorf("register %s: %w", RegistrationsMetric, err)
	}
	if rec.logins, err = reg.RegisterCounter(LoginsMetric, "status"); err != nil {
		return nil, fmt.Errorf("register %s: %w", LoginsMetric, err)
	}
	if rec.activePlayers, err = reg.RegisterGauge(ActivePlayersMetric); err != nil {
		return nil, fmt.Errorf("register %s: %w", ActivePlayersMetric, err)
	}
	if rec.matches, err = reg.RegisterCounter(MatchesMetric, "match_type", "status"); err != nil {
		return nil, fmt.Errorf("register %s: %w", MatchesMetric, err)
	}
	if rec.transactions, err = reg.RegisterCounter(TransactionsMetric, "status", "item_type"); err != nil {
		return nil, fmt.Errorf("register %s: %w", TransactionsMetric, err)
	}
	if rec.revenue, err = reg.RegisterCounter(RevenueMetric, "item_type"); err != nil {
		return nil, fmt.Errorf("register %s: %w", RevenueMetric, err)
	}
	if rec.failureRate, err = reg.RegisterGauge(FailureRateMetric); err != nil {
		return nil, fmt.Errorf("register %s: %w", FailureRateMetric, err)
	}
	return rec, nil
}

// Registration records a registration outcome.
func (r *Recorder) Registration(ok bool) {
	_ = r.registrations.Inc(metrics.Labels{"status": outcome(ok)})
}

// Login records a login outcome; successful logins raise the active count.
func (r *Recorder) Login(ok bool) {
	_ = r.logins.Inc(metrics.Labels{"status": outcome(ok)})
	if ok {
		_ = r.activePlayers.Add(metrics.Labels{}, 1)
	}
}

// Logout lowers the active player count.
func (r *Recorder) Logout() {
	_ = r.activePlayers.Add(metrics.Labels{}, -1)
}

// SetActivePlayers overwrites the active player gauge from an external
// count, such as a periodic database sample.
func (r *Recorder) SetActivePlayers(count int) {
	_ = r.activePlayers.Set(metrics.Labels{}, float64(count))
}

// MatchStarted records a new match of the given type.
func (r *Recorder) MatchStarted(matchType string) {
	_ = r.matches.Inc(metrics.Labels{"match_type": matchType, "status": MatchStarted})
}

// MatchCompleted records a normal match completion.
func (r *Recorder) MatchCompleted(matchType string) {
	_ = r.matches.Inc(metrics.Labels{"match_type": matchType, "status": MatchCompleted})
}

// MatchCrashed records a crashed match.
func (r *Recorder) MatchCrashed(matchType string) {
	_ = r.matches.Inc(metrics.Labels{"match_type": matchType, "status": MatchCrashed})
}

// TransactionCompleted records a successful purchase and its revenue.
func (r *Recorder) TransactionCompleted(itemType string, amount float64) {
	_ = r.transactions.Inc(metrics.Labels{"status": OutcomeCompleted, "item_type": itemType})
	if amount > 0 {
		_ = r.revenue.Add(metrics.Labels{"item_type": itemType}, amount)
	}
}

// TransactionFailed records a failed purchase attempt.
func (r *Recorder) TransactionFailed(itemType string) {
	_ = r.transactions.Inc(metrics.Labels{"status": OutcomeFailed, "item_type": itemType})
}

// failureRatio computes failed/total across every item type from the
// transaction counter's snapshot.
func (r *Recorder) failureRatio() float64 {
	snap := r.transactions.Snapshot()
	var failed, total float64
	for _, s := range snap.Series {
		total += s.Value
		// Label values follow declaration order: status, item_type.
		if len(s.LabelValues) > 0 && s.LabelValues[0] == OutcomeFailed {
			failed += s.Value
		}
	}
	if total == 0 {
		return 0
	}
	return failed / total
}

func outcome(ok bool) string {
	if ok {
		return OutcomeOK
	}
	return OutcomeFailed
}
