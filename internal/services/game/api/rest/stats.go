package rest

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// HandleStatsPlayers reports aggregate player counts and refreshes the
// active-player gauge from the database sample.
func (h *Handler) HandleStatsPlayers(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	stats, err := h.store.PlayerStats(r.Context(), h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.rec.SetActivePlayers(stats.ActiveNow)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"total_players": stats.TotalPlayers,
		"active_today":  stats.ActiveToday,
		"active_now":    stats.ActiveNow,
		"new_today":     stats.NewToday,
		"timestamp":     h.now().Format(time.RFC3339),
	})
}

// HandleStatsMatches reports aggregate match counts.
func (h *Handler) HandleStatsMatches(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	stats, err := h.store.MatchStats(r.Context(), h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	crashRate := 0.0
	if stats.CompletedToday > 0 {
		crashRate = float64(stats.CrashedToday) / float64(stats.CompletedToday) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"total_matches":        stats.TotalMatches,
		"in_progress":          stats.InProgress,
		"completed_today":      stats.CompletedToday,
		"crashed_today":        stats.CrashedToday,
		"crash_rate_percent":   math.Round(crashRate*100) / 100,
		"avg_duration_seconds": stats.AvgDurationSeconds,
		"timestamp":            h.now().Format(time.RFC3339),
	})
}

// HandleStatsRevenue reports purchase totals.
func (h *Handler) HandleStatsRevenue(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	stats, err := h.store.RevenueStats(r.Context(), h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"revenue_today":      math.Round(stats.RevenueToday*100) / 100,
		"revenue_month":      math.Round(stats.RevenueMonth*100) / 100,
		"transactions_today": stats.TransactionsToday,
		"failed_today":       stats.FailedToday,
		"timestamp":          h.now().Format(time.RFC3339),
	})
}

// HandleLeaderboard reports the top players by points.
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	entries, err := h.store.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rows := make([]map[string]any, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, map[string]any{
			"rank":      i + 1,
			"player_id": e.PlayerID,
			"username":  e.Username,
			"level":     e.Level,
			"points":    e.Points,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"leaderboard": rows})
}
