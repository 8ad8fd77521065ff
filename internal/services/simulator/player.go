package simulator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// State is a virtual player's position in its action loop.
type State int

const (
	StateAnonymous State = iota
	StateRegistered
	StateLoggedIn
	StateInMatch
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateRegistered:
		return "registered"
	case StateLoggedIn:
		return "logged_in"
	case StateInMatch:
		return "in_match"
	default:
		return "unknown"
	}
}

// ErrSlotExhausted signals that a player slot burned through its
// registration retries and must be replaced by the scheduler.
var ErrSlotExhausted = errors.New("simulator: registration retries exhausted")

// behavior carries the knobs one virtual player acts under.
type behavior struct {
	crashProbability    float64
	purchaseProbability float64
	logoutProbability   float64
	registrationRetries int
	nameFunc            func(rng *rand.Rand, slot, attempt int) string
}

// Player is one virtual actor. Its state is owned exclusively by the
// worker goroutine driving it; only the scheduler's population map needs
// locking.
type Player struct {
	slot   int
	client *Client
	rng    *rand.Rand
	logger *log.Logger
	b      behavior

	state        State
	id           int64
	username     string
	token        string
	matchID      int64
	matchType    string
	matchStarted time.Time
	lastActionAt time.Time
}

func newPlayer(slot int, client *Client, rng *rand.Rand, logger *log.Logger, b behavior) *Player {
	if b.nameFunc == nil {
		b.nameFunc = randomUsername
	}
	return &Player{
		slot:   slot,
		client: client,
		rng:    rng,
		logger: logger,
		b:      b,
		state:  StateAnonymous,
	}
}

// State returns the player's current state.
func (p *Player) State() State {
	return p.state
}

// Step performs exactly one action for the player's current state and
// advances the state machine. Backend failures are logged and leave the
// player in its last stable state; only slot exhaustion is returned.
func (p *Player) Step(ctx context.Context) error {
	defer func() { p.lastActionAt = time.Now() }()
	switch p.state {
	case StateAnonymous:
		return p.register(ctx)
	case StateRegistered:
		p.login(ctx)
	case StateLoggedIn:
		p.act(ctx)
	case StateInMatch:
		p.resolveMatch(ctx)
	}
	return nil
}

// register creates the account, regenerating the username on duplicate
// collisions up to the retry bound.
func (p *Player) register(ctx context.Context) error {
	for attempt := 0; attempt <= p.b.registrationRetries; attempt++ {
		username := p.b.nameFunc(p.rng, p.slot, attempt)
		id, err := p.client.RegisterPlayer(ctx, username, username+"@battlearena.example", 1+p.rng.Intn(50))
		if err == nil {
			p.id = id
			p.username = username
			p.state = StateRegistered
			return nil
		}
		if !IsUsernameTaken(err) {
			p.logger.Printf("slot %d: register: %v", p.slot, err)
			return nil
		}
	}
	return fmt.Errorf("slot %d: %w", p.slot, ErrSlotExhausted)
}

func (p *Player) login(ctx context.Context) {
	token, err := p.client.Login(ctx, p.id)
	if err != nil {
		p.logger.Printf("slot %d: login: %v", p.slot, err)
		return
	}
	p.token = token
	p.state = StateLoggedIn
}

// act picks the next logged-in action: logout, purchase, or matchmaking.
func (p *Player) act(ctx context.Context) {
	roll := p.rng.Float64()
	switch {
	case roll < p.b.logoutProbability:
		p.logout(ctx)
	case roll < p.b.logoutProbability+p.b.purchaseProbability:
		p.purchase(ctx)
	default:
		p.startMatch(ctx)
	}
}

func (p *Player) logout(ctx context.Context) {
	if err := p.client.Logout(ctx, p.token); err != nil {
		p.logger.Printf("slot %d: logout: %v", p.slot, err)
		return
	}
	p.token = ""
	p.state = StateRegistered
}

func (p *Player) purchase(ctx context.Context) {
	item := pickItem(p.rng)
	status, err := p.client.CreateTransaction(ctx, p.token, item.Type, item.Name, item.Price)
	if err != nil {
		p.logger.Printf("slot %d: purchase %s: %v", p.slot, item.Name, err)
		return
	}
	if status != "completed" {
		p.logger.Printf("slot %d: purchase %s rejected by payment processor", p.slot, item.Name)
	}
}

func (p *Player) startMatch(ctx context.Context) {
	matchType := pickMatchType(p.rng)
	matchID, err := p.client.StartMatch(ctx, matchType, []int64{p.id}, pickRegion(p.rng))
	if err != nil {
		p.logger.Printf("slot %d: start match: %v", p.slot, err)
		return
	}
	p.matchID = matchID
	p.matchType = matchType
	p.matchStarted = time.Now()
	p.state = StateInMatch
}

// resolveMatch finishes the in-flight match as completed or crashed,
// emitting exactly one terminal event either way.
func (p *Player) resolveMatch(ctx context.Context) {
	var err error
	if p.rng.Float64() < p.b.crashProbability {
		err = p.client.CrashMatch(ctx, p.matchID, pickCrashReason(p.rng))
	} else {
		duration := int(time.Since(p.matchStarted).Seconds())
		if duration < 1 {
			duration = 1
		}
		err = p.client.CompleteMatch(ctx, p.matchID, p.id, duration, []ParticipantResult{{
			PlayerID: p.id,
			Score:    100 + p.rng.Intn(4900),
			Kills:    p.rng.Intn(21),
			Deaths:   p.rng.Intn(16),
		}})
	}
	if err != nil {
		p.logger.Printf("slot %d: resolve match %d: %v", p.slot, p.matchID, err)
	}
	// The match is terminal either way; do not resolve it twice.
	p.matchID = 0
	p.state = StateLoggedIn
}
