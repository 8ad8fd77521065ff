package events

import (
	"context"
	"errors"
	"log"
	"math"
	"testing"
	"time"

	"github.com/louisbranch/battlearena/internal/platform/telemetry/metrics"
)

func newTestRecorder(t *testing.T) (*Recorder, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	rec, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec, reg
}

func counterValue(t *testing.T, reg *metrics.Registry, name string, labels metrics.Labels) float64 {
	t.Helper()
	v, err := reg.Value(name, labels)
	if err != nil {
		t.Fatalf("value %s: %v", name, err)
	}
	return v
}

func TestRecorder_RegistrationAndLogin(t *testing.T) {
	rec, reg := newTestRecorder(t)

	rec.Registration(true)
	rec.Registration(true)
	rec.Registration(false)
	rec.Login(true)
	rec.Login(false)

	if got := counterValue(t, reg, RegistrationsMetric, metrics.Labels{"status": OutcomeOK}); got != 2 {
		t.Fatalf("registrations ok = %v, want 2", got)
	}
	if got := counterValue(t, reg, RegistrationsMetric, metrics.Labels{"status": OutcomeFailed}); got != 1 {
		t.Fatalf("registrations failed = %v, want 1", got)
	}
	if got := counterValue(t, reg, LoginsMetric, metrics.Labels{"status": OutcomeOK}); got != 1 {
		t.Fatalf("logins ok = %v, want 1", got)
	}
	if got := counterValue(t, reg, ActivePlayersMetric, metrics.Labels{}); got != 1 {
		t.Fatalf("active players = %v, want 1", got)
	}
}

func TestRecorder_ActivePlayersBalance(t *testing.T) {
	rec, reg := newTestRecorder(t)

	rec.Login(true)
	rec.Login(true)
	rec.Logout()
	if got := counterValue(t, reg, ActivePlayersMetric, metrics.Labels{}); got != 1 {
		t.Fatalf("active players = %v, want 1", got)
	}

	rec.SetActivePlayers(40)
	if got := counterValue(t, reg, ActivePlayersMetric, metrics.Labels{}); got != 40 {
		t.Fatalf("active players = %v, want 40", got)
	}
}

func TestRecorder_MatchOutcomes(t *testing.T) {
	rec, reg := newTestRecorder(t)

	rec.MatchStarted("solo")
	rec.MatchStarted("team")
	rec.MatchCompleted("solo")
	rec.MatchCrashed("team")

	if got := counterValue(t, reg, MatchesMetric, metrics.Labels{"match_type": "solo", "status": MatchStarted}); got != 1 {
		t.Fatalf("solo started = %v, want 1", got)
	}
	if got := counterValue(t, reg, MatchesMetric, metrics.Labels{"match_type": "team", "status": MatchCrashed}); got != 1 {
		t.Fatalf("team crashed = %v, want 1", got)
	}
}

func TestRecorder_TransactionsAndRevenue(t *testing.T) {
	rec, reg := newTestRecorder(t)

	rec.TransactionCompleted("skin", 9.99)
	rec.TransactionCompleted("skin", 4.99)
	rec.TransactionFailed("weapon")

	if got := counterValue(t, reg, TransactionsMetric, metrics.Labels{"status": OutcomeCompleted, "item_type": "skin"}); got != 2 {
		t.Fatalf("completed skins = %v, want 2", got)
	}
	if got := counterValue(t, reg, RevenueMetric, metrics.Labels{"item_type": "skin"}); math.Abs(got-14.98) > 1e-9 {
		t.Fatalf("skin revenue = %v, want 14.98", got)
	}
	if got := counterValue(t, reg, RevenueMetric, metrics.Labels{"item_type": "weapon"}); got != 0 {
		t.Fatalf("failed purchase credited revenue: %v", got)
	}
}

func TestFailureRateSampler_ComputesRatio(t *testing.T) {
	rec, reg := newTestRecorder(t)
	sampler := NewFailureRateSampler(rec, time.Second, log.New(log.Writer(), "", 0))

	sampler.Sample()
	if got := counterValue(t, reg, FailureRateMetric, metrics.Labels{}); got != 0 {
		t.Fatalf("failure rate with no transactions = %v, want 0", got)
	}

	rec.TransactionCompleted("skin", 9.99)
	rec.TransactionCompleted("coins", 4.99)
	rec.TransactionFailed("skin")
	rec.TransactionFailed("weapon")
	sampler.Sample()

	if got := counterValue(t, reg, FailureRateMetric, metrics.Labels{}); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("failure rate = %v, want 0.5", got)
	}
}

func TestFailureRateSampler_RunStopsOnCancel(t *testing.T) {
	rec, _ := newTestRecorder(t)
	sampler := NewFailureRateSampler(rec, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sampler.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sampler did not stop")
	}
}
