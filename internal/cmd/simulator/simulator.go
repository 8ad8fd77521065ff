// Package simulator parses simulator command flags and starts the traffic
// generator.
package simulator

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/battlearena/internal/platform/cmd"
	sim "github.com/louisbranch/battlearena/internal/services/simulator"
)

// Config holds simulator command configuration.
type Config struct {
	APIURL string `env:"BATTLEARENA_SIM_API_URL" envDefault:"http://localhost:8080"`

	Population          int           `env:"BATTLEARENA_SIM_POPULATION"           envDefault:"50"`
	ThinkMin            time.Duration `env:"BATTLEARENA_SIM_THINK_MIN"            envDefault:"200ms"`
	ThinkMax            time.Duration `env:"BATTLEARENA_SIM_THINK_MAX"            envDefault:"2s"`
	CrashProbability    float64       `env:"BATTLEARENA_SIM_CRASH_PROBABILITY"    envDefault:"0.02"`
	PurchaseProbability float64       `env:"BATTLEARENA_SIM_PURCHASE_PROBABILITY" envDefault:"0.15"`
	LogoutProbability   float64       `env:"BATTLEARENA_SIM_LOGOUT_PROBABILITY"   envDefault:"0.05"`
	ChaosProbability    float64       `env:"BATTLEARENA_SIM_CHAOS_PROBABILITY"    envDefault:"0.05"`
	RegistrationRetries int           `env:"BATTLEARENA_SIM_REGISTRATION_RETRIES" envDefault:"3"`
	Cycles              int           `env:"BATTLEARENA_SIM_CYCLES"               envDefault:"0"`
	SeedTimeout         time.Duration `env:"BATTLEARENA_SIM_SEED_TIMEOUT"         envDefault:"5s"`
	Seed                int64         `env:"BATTLEARENA_SIM_SEED"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Base URL of the game API")
	fs.IntVar(&cfg.Population, "population", cfg.Population, "Target virtual player population")
	fs.DurationVar(&cfg.ThinkMin, "think-min", cfg.ThinkMin, "Minimum think time between actions")
	fs.DurationVar(&cfg.ThinkMax, "think-max", cfg.ThinkMax, "Maximum think time between actions")
	fs.Float64Var(&cfg.CrashProbability, "crash-probability", cfg.CrashProbability, "Probability a match resolves as crashed")
	fs.Float64Var(&cfg.PurchaseProbability, "purchase-probability", cfg.PurchaseProbability, "Probability a logged-in action is a purchase")
	fs.Float64Var(&cfg.ChaosProbability, "chaos-probability", cfg.ChaosProbability, "Per-cycle probability of injecting a synthetic system failure")
	fs.IntVar(&cfg.Cycles, "cycles", cfg.Cycles, "Actions per worker before exiting (0 = run until signal)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed (0 = time-based)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the traffic simulator.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSimulator, func(ctx context.Context) error {
		client := sim.NewClient(cfg.APIURL)
		sched, err := sim.NewScheduler(client, sim.Config{
			Population:          cfg.Population,
			ThinkMin:            cfg.ThinkMin,
			ThinkMax:            cfg.ThinkMax,
			CrashProbability:    cfg.CrashProbability,
			PurchaseProbability: cfg.PurchaseProbability,
			LogoutProbability:   cfg.LogoutProbability,
			ChaosProbability:    cfg.ChaosProbability,
			RegistrationRetries: cfg.RegistrationRetries,
			Cycles:              cfg.Cycles,
			SeedTimeout:         cfg.SeedTimeout,
			Seed:                cfg.Seed,
		})
		if err != nil {
			return err
		}
		return sched.Run(ctx)
	})
}
