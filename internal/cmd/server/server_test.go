package server

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.MetricsPath != "/metrics" {
		t.Fatalf("expected default metrics path, got %q", cfg.MetricsPath)
	}
	if cfg.TransactionFailureRate != 0.01 {
		t.Fatalf("expected default failure rate 0.01, got %v", cfg.TransactionFailureRate)
	}
	if cfg.CardinalityLimit != 2000 {
		t.Fatalf("expected default cardinality limit 2000, got %d", cfg.CardinalityLimit)
	}
	if cfg.FailureRateInterval != 15*time.Second {
		t.Fatalf("expected default sample interval 15s, got %v", cfg.FailureRateInterval)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{
		"-port", "9001",
		"-db-path", "/tmp/test.db",
		"-transaction-failure-rate", "0.25",
	})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Fatalf("expected db path override, got %q", cfg.DBPath)
	}
	if cfg.TransactionFailureRate != 0.25 {
		t.Fatalf("expected failure rate 0.25, got %v", cfg.TransactionFailureRate)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("BATTLEARENA_PORT", "7777")
	t.Setenv("BATTLEARENA_HISTOGRAM_BUCKETS", "0.1,0.5,1")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 7777 {
		t.Fatalf("expected env port 7777, got %d", cfg.Port)
	}
	if len(cfg.HistogramBuckets) != 3 || cfg.HistogramBuckets[1] != 0.5 {
		t.Fatalf("unexpected buckets: %v", cfg.HistogramBuckets)
	}
}
