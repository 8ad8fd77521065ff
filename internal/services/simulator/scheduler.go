package simulator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/sync/errgroup"
)

const (
	healthAttempts = 30
	healthDelay    = 2 * time.Second
	seedAttempts   = 3
	seedDelay      = 500 * time.Millisecond
	backoffBase    = 250 * time.Millisecond
)

// Config holds the scheduler knobs.
type Config struct {
	Population          int
	ThinkMin            time.Duration
	ThinkMax            time.Duration
	CrashProbability    float64
	PurchaseProbability float64
	LogoutProbability   float64
	RegistrationRetries int

	// ChaosProbability is the per-cycle chance of reporting a synthetic
	// operational failure to the backend's system event log. Zero disables
	// chaos injection.
	ChaosProbability float64

	// Cycles bounds the number of actions per worker; zero runs until the
	// context ends.
	Cycles int

	// SeedTimeout bounds each seeding registration; zero means no bound
	// beyond the run context.
	SeedTimeout time.Duration

	// Seed makes runs reproducible; zero picks a time-based seed.
	Seed int64

	Logger *log.Logger

	// nameFunc overrides username generation, for tests.
	nameFunc func(rng *rand.Rand, slot, attempt int) string
}

// Scheduler owns the virtual player population and paces their workers.
type Scheduler struct {
	client *Client
	cfg    Config
	logger *log.Logger
	seed   int64

	mu         sync.Mutex
	population map[int]*Player
	nextSlot   int
	replaced   int
}

// NewScheduler creates a scheduler over the given backend client.
func NewScheduler(client *Client, cfg Config) (*Scheduler, error) {
	if client == nil {
		return nil, errors.New("simulator: client is required")
	}
	if cfg.Population <= 0 {
		return nil, fmt.Errorf("simulator: population must be positive, got %d", cfg.Population)
	}
	if cfg.ThinkMin < 0 || cfg.ThinkMax < cfg.ThinkMin {
		return nil, fmt.Errorf("simulator: invalid think bounds [%v,%v]", cfg.ThinkMin, cfg.ThinkMax)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "simulator: ", log.LstdFlags)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Scheduler{
		client:     client,
		cfg:        cfg,
		logger:     cfg.Logger,
		seed:       seed,
		population: make(map[int]*Player),
	}, nil
}

// Population returns the current population size.
func (s *Scheduler) Population() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.population)
}

// Replaced returns how many exhausted slots were replaced.
func (s *Scheduler) Replaced() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaced
}

func (s *Scheduler) behavior() behavior {
	return behavior{
		crashProbability:    s.cfg.CrashProbability,
		purchaseProbability: s.cfg.PurchaseProbability,
		logoutProbability:   s.cfg.LogoutProbability,
		registrationRetries: s.cfg.RegistrationRetries,
		nameFunc:            s.cfg.nameFunc,
	}
}

// spawn creates a fresh player on the next free slot and tracks it.
func (s *Scheduler) spawn() *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.nextSlot
	s.nextSlot++
	rng := rand.New(rand.NewSource(s.seed + int64(slot)))
	p := newPlayer(slot, s.client, rng, s.logger, s.behavior())
	s.population[slot] = p
	return p
}

// replace swaps an exhausted slot for a freshly spawned player.
func (s *Scheduler) replace(old *Player) *Player {
	s.mu.Lock()
	delete(s.population, old.slot)
	s.replaced++
	s.mu.Unlock()
	s.logger.Printf("slot %d exhausted, replacing", old.slot)
	return s.spawn()
}

// Run seeds the population and drives one worker per player until the
// context ends or every worker finishes its cycle budget.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.waitForBackend(ctx); err != nil {
		return fmt.Errorf("backend never became healthy: %w", err)
	}

	players, err := s.seedPopulation(ctx)
	if err != nil {
		return err
	}
	s.logger.Printf("seeded %d players, starting traffic", len(players))

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range players {
		p := p
		g.Go(func() error {
			return s.runWorker(ctx, p)
		})
	}
	if s.cfg.ChaosProbability > 0 {
		// Slot rngs start at seed+0, so the chaos stream sits below them.
		rng := rand.New(rand.NewSource(s.seed - 1))
		g.Go(func() error {
			return s.runChaos(ctx, rng)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Scheduler) waitForBackend(ctx context.Context) error {
	return retry.Do(
		func() error {
			if !s.client.Healthy(ctx) {
				return errors.New("health check failed")
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(healthAttempts),
		retry.Delay(healthDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// seedPopulation registers the initial players one at a time so a cold
// backend is not overwhelmed before steady state.
func (s *Scheduler) seedPopulation(ctx context.Context) ([]*Player, error) {
	players := make([]*Player, 0, s.cfg.Population)
	for len(players) < s.cfg.Population {
		p := s.spawn()
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			err := s.seedPlayer(ctx, p)
			if err == nil {
				players = append(players, p)
				break
			}
			if errors.Is(err, ErrSlotExhausted) {
				p = s.replace(p)
				continue
			}
			return nil, err
		}
	}
	return players, nil
}

func (s *Scheduler) seedPlayer(ctx context.Context, p *Player) error {
	return retry.Do(
		func() error {
			stepCtx := ctx
			if s.cfg.SeedTimeout > 0 {
				var cancel context.CancelFunc
				stepCtx, cancel = context.WithTimeout(ctx, s.cfg.SeedTimeout)
				defer cancel()
			}
			if err := p.Step(stepCtx); err != nil {
				return err
			}
			if p.State() == StateAnonymous {
				return errors.New("registration did not land")
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(seedAttempts),
		retry.Delay(seedDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrSlotExhausted)
		}),
	)
}

// runWorker drives one slot's action loop. Cancellation is observed
// between actions; an in-flight action always completes.
func (s *Scheduler) runWorker(ctx context.Context, p *Player) error {
	for cycle := 0; s.cfg.Cycles == 0 || cycle < s.cfg.Cycles; cycle++ {
		if err := s.think(ctx, p.rng); err != nil {
			return nil
		}
		if err := p.Step(ctx); err != nil {
			if errors.Is(err, ErrSlotExhausted) {
				p = s.replace(p)
				continue
			}
			return nil
		}
	}
	return nil
}

// runChaos rolls once per cycle for the whole population and reports a
// random synthetic failure on a hit. Delivery errors are logged, never
// fatal.
func (s *Scheduler) runChaos(ctx context.Context, rng *rand.Rand) error {
	for cycle := 0; s.cfg.Cycles == 0 || cycle < s.cfg.Cycles; cycle++ {
		if err := s.think(ctx, rng); err != nil {
			return nil
		}
		if rng.Float64() >= s.cfg.ChaosProbability {
			continue
		}
		ev := pickChaosEvent(rng)
		if err := s.client.SystemEvent(ctx, ev.Type, ev.Severity, ev.Message); err != nil {
			s.logger.Printf("chaos event %s: %v", ev.Type, err)
			continue
		}
		s.logger.Printf("chaos injected: %s", ev.Message)
	}
	return nil
}

// think pauses for a randomized interval within the configured bounds.
func (s *Scheduler) think(ctx context.Context, rng *rand.Rand) error {
	d := s.cfg.ThinkMin
	if span := s.cfg.ThinkMax - s.cfg.ThinkMin; span > 0 {
		d += time.Duration(rng.Int63n(int64(span)))
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
