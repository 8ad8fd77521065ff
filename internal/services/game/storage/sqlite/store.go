// Package sqlite implements game persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/louisbranch/battlearena/internal/platform/errors"
	"github.com/louisbranch/battlearena/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/battlearena/internal/services/game/storage"
	"github.com/louisbranch/battlearena/internal/services/game/storage/sqlite/migrations"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements storage.Store over a single SQLite file.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens the game SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies database connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// isUniqueViolation detects SQLite unique constraint failures.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreatePlayer inserts a new player and returns its id.
func (s *Store) CreatePlayer(ctx context.Context, player storage.Player) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO players (username, email, level, created_at, last_login, is_active)
VALUES (?, ?, ?, ?, ?, 1)`,
		player.Username, player.Email, player.Level,
		toMillis(player.CreatedAt), toMillis(player.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.Wrap(apperrors.CodeUsernameTaken, fmt.Sprintf("username %q already exists", player.Username), err)
		}
		return 0, fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("player id: %w", err)
	}
	return id, nil
}

// GetPlayer loads one player by id.
func (s *Store) GetPlayer(ctx context.Context, id int64) (storage.Player, error) {
	var (
		player    storage.Player
		createdAt int64
		lastLogin sql.NullInt64
		active    int
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, email, level, total_points, account_balance, created_at, last_login, is_active
FROM players WHERE id = ?`, id).Scan(
		&player.ID, &player.Username, &player.Email, &player.Level,
		&player.TotalPoints, &player.AccountBalance, &createdAt, &lastLogin, &active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Player{}, apperrors.New(apperrors.CodePlayerNotFound, fmt.Sprintf("player %d not found", id))
	}
	if err != nil {
		return storage.Player{}, fmt.Errorf("select player: %w", err)
	}
	player.CreatedAt = fromMillis(createdAt)
	if lastLogin.Valid {
		player.LastLogin = fromMillis(lastLogin.Int64)
	}
	player.IsActive = active != 0
	return player, nil
}

// RecordLogin stamps a player's last login time.
func (s *Store) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE players SET last_login = ? WHERE id = ?", toMillis(at), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodePlayerNotFound, fmt.Sprintf("player %d not found", id))
	}
	return nil
}

// CountPlayersByIDs returns how many of the given ids exist.
func (s *Store) CountPlayersByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM players WHERE id IN (%s)", placeholders)
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

// PlayerStats aggregates player counts relative to now.
func (s *Store) PlayerStats(ctx context.Context, now time.Time) (storage.PlayerStats, error) {
	var stats storage.PlayerStats
	dayAgo := toMillis(now.Add(-24 * time.Hour))
	fiveMinAgo := toMillis(now.Add(-5 * time.Minute))
	midnight := toMillis(startOfDay(now))

	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN last_login >= ? THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN last_login >= ? THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
FROM players`, dayAgo, fiveMinAgo, midnight).Scan(
		&stats.TotalPlayers, &stats.ActiveToday, &stats.ActiveNow, &stats.NewToday,
	)
	if err != nil {
		return storage.PlayerStats{}, fmt.Errorf("player stats: %w", err)
	}
	return stats, nil
}

// Leaderboard returns the top active players by points.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, username, level, total_points
FROM players
WHERE is_active = 1
ORDER BY total_points DESC, id ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []storage.LeaderboardEntry
	for rows.Next() {
		var entry storage.LeaderboardEntry
		if err := rows.Scan(&entry.PlayerID, &entry.Username, &entry.Level, &entry.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CreateMatch inserts a match and its participants atomically.
func (s *Store) CreateMatch(ctx context.Context, match storage.Match, playerIDs []int64) (int64, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin match tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO matches (match_type, status, start_time, server_region)
VALUES (?, ?, ?, ?)`,
		match.MatchType, storage.MatchInProgress, toMillis(match.StartTime), match.ServerRegion)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("match id: %w", err)
	}

	for _, playerID := range playerIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO match_participants (match_id, player_id, joined_at)
VALUES (?, ?, ?)`, matchID, playerID, toMillis(match.StartTime)); err != nil {
			return 0, fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit match: %w", err)
	}
	return matchID, nil
}

// GetMatch loads one match by id.
func (s *Store) GetMatch(ctx context.Context, id int64) (storage.Match, error) {
	var (
		match    storage.Match
		start    int64
		end      sql.NullInt64
		winner   sql.NullInt64
		duration sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, match_type, status, start_time, end_time, winner_id, duration_seconds, server_region
FROM matches WHERE id = ?`, id).Scan(
		&match.ID, &match.MatchType, &match.Status, &start, &end, &winner, &duration, &match.ServerRegion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Match{}, apperrors.New(apperrors.CodeMatchNotFound, fmt.Sprintf("match %d not found", id))
	}
	if err != nil {
		return storage.Match{}, fmt.Errorf("select match: %w", err)
	}
	match.StartTime = fromMillis(start)
	if end.Valid {
		match.EndTime = fromMillis(end.Int64)
	}
	if winner.Valid {
		match.WinnerID = winner.Int64
	}
	if duration.Valid {
		match.DurationSeconds = int(duration.Int64)
	}
	return match, nil
}

// CompleteMatch finalizes an in-progress match, updating participant stats
// and winner points in one transaction.
func (s *Store) CompleteMatch(ctx context.Context, id int64, winnerID int64, durationSeconds int, stats []storage.ParticipantStat, at time.Time) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, "SELECT status FROM matches WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.New(apperrors.CodeMatchNotFound, fmt.Sprintf("match %d not found", id))
	}
	if err != nil {
		return fmt.Errorf("select match status: %w", err)
	}
	if status != storage.MatchInProgress {
		return apperrors.New(apperrors.CodeMatchNotInProgress, fmt.Sprintf("match %d is %s", id, status))
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE matches SET status = ?, end_time = ?, duration_seconds = ?, winner_id = ?
WHERE id = ?`, storage.MatchCompleted, toMillis(at), durationSeconds, winnerID, id); err != nil {
		return fmt.Errorf("update match: %w", err)
	}

	for _, stat := range stats {
		if _, err := tx.ExecContext(ctx, `
UPDATE match_participants SET score = ?, kills = ?, deaths = ?, left_at = ?
WHERE match_id = ? AND player_id = ?`,
			stat.Score, stat.Kills, stat.Deaths, toMillis(at), id, stat.PlayerID); err != nil {
			return fmt.Errorf("update participant: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE players SET total_points = total_points + ? WHERE id = ?",
			stat.Score, stat.PlayerID); err != nil {
			return fmt.Errorf("update player points: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete: %w", err)
	}
	return nil
}

// CrashMatch marks a match as crashed.
func (s *Store) CrashMatch(ctx context.Context, id int64, at time.Time) error {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE matches SET status = ?, end_time = ? WHERE id = ?",
		storage.MatchCrashed, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("crash match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeMatchNotFound, fmt.Sprintf("match %d not found", id))
	}
	return nil
}

// MatchStats aggregates match counts relative to now.
func (s *Store) MatchStats(ctx context.Context, now time.Time) (storage.MatchStats, error) {
	var stats storage.MatchStats
	var avgDuration float64
	midnight := toMillis(startOfDay(now))

	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'completed' AND start_time >= ? THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'crashed' AND start_time >= ? THEN 1 ELSE 0 END), 0),
    COALESCE(AVG(CASE WHEN status = 'completed' THEN duration_seconds END), 0)
FROM matches`, midnight, midnight).Scan(
		&stats.TotalMatches, &stats.InProgress, &stats.CompletedToday, &stats.CrashedToday, &avgDuration,
	)
	if err != nil {
		return storage.MatchStats{}, fmt.Errorf("match stats: %w", err)
	}
	stats.AvgDurationSeconds = int(avgDuration)
	return stats, nil
}

// CreateTransaction records a purchase attempt; completed purchases credit
// the player balance in the same transaction.
func (s *Store) CreateTransaction(ctx context.Context, purchase storage.Transaction) (int64, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	currency := purchase.Currency
	if currency == "" {
		currency = "USD"
	}
	res, err := tx.ExecContext(ctx, `
INSERT INTO transactions (player_id, item_type, item_name, amount, currency, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		purchase.PlayerID, purchase.ItemType, purchase.ItemName,
		purchase.Amount, currency, purchase.Status, toMillis(purchase.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	if purchase.Status == storage.TransactionCompleted {
		if _, err := tx.ExecContext(ctx,
			"UPDATE players SET account_balance = account_balance + ? WHERE id = ?",
			purchase.Amount, purchase.PlayerID); err != nil {
			return 0, fmt.Errorf("credit balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purchase: %w", err)
	}
	return id, nil
}

// RevenueStats aggregates purchase totals relative to now.
func (s *Store) RevenueStats(ctx context.Context, now time.Time) (storage.RevenueStats, error) {
	var stats storage.RevenueStats
	midnight := toMillis(startOfDay(now))
	monthStart := toMillis(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))

	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
    COALESCE(SUM(CASE WHEN status = 'completed' AND created_at >= ? THEN amount ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'completed' AND created_at >= ? THEN amount ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'failed' AND created_at >= ? THEN 1 ELSE 0 END), 0)
FROM transactions`, midnight, monthStart, midnight, midnight).Scan(
		&stats.RevenueToday, &stats.RevenueMonth, &stats.TransactionsToday, &stats.FailedToday,
	)
	if err != nil {
		return storage.RevenueStats{}, fmt.Errorf("revenue stats: %w", err)
	}
	return stats, nil
}

// AppendSystemEvent records one operational event.
func (s *Store) AppendSystemEvent(ctx context.Context, event storage.SystemEvent) error {
	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO system_events (event_type, severity, message, event_metadata, timestamp)
VALUES (?, ?, ?, ?, ?)`,
		event.EventType, event.Severity, event.Message, event.Metadata, toMillis(at)); err != nil {
		return fmt.Errorf("insert system event: %w", err)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
