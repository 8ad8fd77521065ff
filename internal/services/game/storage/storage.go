// Package storage defines the game persistence boundary.
package storage

import (
	"context"
	"time"
)

// Match lifecycle states.
const (
	MatchInProgress = "in_progress"
	MatchCompleted  = "completed"
	MatchCrashed    = "crashed"
)

// Transaction outcomes.
const (
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

// Player is one registered account.
type Player struct {
	ID             int64
	Username       string
	Email          string
	Level          int
	TotalPoints    int
	AccountBalance float64
	CreatedAt      time.Time
	LastLogin      time.Time
	IsActive       bool
}

// Match is one game match.
type Match struct {
	ID              int64
	MatchType       string
	Status          string
	StartTime       time.Time
	EndTime         time.Time
	WinnerID        int64
	DurationSeconds int
	ServerRegion    string
}

// ParticipantStat carries one player's result inside a completed match.
type ParticipantStat struct {
	PlayerID int64
	Score    int
	Kills    int
	Deaths   int
}

// Transaction is one in-game purchase attempt.
type Transaction struct {
	ID        int64
	PlayerID  int64
	ItemType  string
	ItemName  string
	Amount    float64
	Currency  string
	Status    string
	CreatedAt time.Time
}

// SystemEvent is one operational log entry.
type SystemEvent struct {
	ID        int64
	EventType string
	Severity  string
	Message   string
	Metadata  string
	Timestamp time.Time
}

// PlayerStats aggregates player counts for the stats endpoint.
type PlayerStats struct {
	TotalPlayers int
	ActiveToday  int
	ActiveNow    int
	NewToday     int
}

// MatchStats aggregates match counts for the stats endpoint.
type MatchStats struct {
	TotalMatches       int
	InProgress         int
	CompletedToday     int
	CrashedToday       int
	AvgDurationSeconds int
}

// RevenueStats aggregates purchase totals for the stats endpoint.
type RevenueStats struct {
	RevenueToday      float64
	RevenueMonth      float64
	TransactionsToday int
	FailedToday       int
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	PlayerID int64
	Username string
	Level    int
	Points   int
}

// Store is the persistence surface the game API depends on.
type Store interface {
	CreatePlayer(ctx context.Context, player Player) (int64, error)
	GetPlayer(ctx context.Context, id int64) (Player, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) error
	CountPlayersByIDs(ctx context.Context, ids []int64) (int, error)
	PlayerStats(ctx context.Context, now time.Time) (PlayerStats, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	CreateMatch(ctx context.Context, match Match, playerIDs []int64) (int64, error)
	GetMatch(ctx context.Context, id int64) (Match, error)
	CompleteMatch(ctx context.Context, id int64, winnerID int64, durationSeconds int, stats []ParticipantStat, at time.Time) error
	CrashMatch(ctx context.Context, id int64, at time.Time) error
	MatchStats(ctx context.Context, now time.Time) (MatchStats, error)

	CreateTransaction(ctx context.Context, tx Transaction) (int64, error)
	RevenueStats(ctx context.Context, now time.Time) (RevenueStats, error)

	AppendSystemEvent(ctx context.Context, event SystemEvent) error

	Ping(ctx context.Context) error
	Close() error
}
