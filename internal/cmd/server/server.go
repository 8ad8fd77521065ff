// Package server parses server command flags and starts the game API.
package server

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/battlearena/internal/platform/cmd"
	"github.com/louisbranch/battlearena/internal/services/game/app"
)

// Config holds server command configuration.
type Config struct {
	Port        int    `env:"BATTLEARENA_PORT"         envDefault:"8080"`
	Addr        string `env:"BATTLEARENA_ADDR"`
	DBPath      string `env:"BATTLEARENA_DB_PATH"      envDefault:"data/battlearena.db"`
	MetricsPath string `env:"BATTLEARENA_METRICS_PATH" envDefault:"/metrics"`

	SessionSecret string        `env:"BATTLEARENA_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"BATTLEARENA_SESSION_TTL" envDefault:"12h"`

	TransactionFailureRate float64       `env:"BATTLEARENA_TRANSACTION_FAILURE_RATE" envDefault:"0.01"`
	CardinalityLimit       int           `env:"BATTLEARENA_CARDINALITY_LIMIT"        envDefault:"2000"`
	FailureRateInterval    time.Duration `env:"BATTLEARENA_FAILURE_RATE_INTERVAL"    envDefault:"15s"`
	HistogramBuckets       []float64     `env:"BATTLEARENA_HISTOGRAM_BUCKETS"        envSeparator:","`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The API server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The API server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the sqlite database")
	fs.StringVar(&cfg.MetricsPath, "metrics-path", cfg.MetricsPath, "Path of the metrics exposition endpoint")
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "HMAC secret for session tokens")
	fs.Float64Var(&cfg.TransactionFailureRate, "transaction-failure-rate", cfg.TransactionFailureRate, "Probability a purchase fails server-side")
	fs.IntVar(&cfg.CardinalityLimit, "cardinality-limit", cfg.CardinalityLimit, "Per-metric label tuple ceiling")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the game API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		addr := cfg.Addr
		if addr == "" {
			addr = fmt.Sprintf(":%d", cfg.Port)
		}
		server, err := app.NewServer(app.Config{
			Addr:                   addr,
			DBPath:                 cfg.DBPath,
			MetricsPath:            cfg.MetricsPath,
			SessionSecret:          cfg.SessionSecret,
			SessionTTL:             cfg.SessionTTL,
			TransactionFailureRate: cfg.TransactionFailureRate,
			CardinalityLimit:       cfg.CardinalityLimit,
			SampleInterval:         cfg.FailureRateInterval,
			DurationBuckets:        cfg.HistogramBuckets,
		})
		if err != nil {
			return fmt.Errorf("init game server: %w", err)
		}
		defer server.Close()
		return server.ListenAndServe(ctx)
	})
}
