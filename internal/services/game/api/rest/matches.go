package rest

import (
	"fmt"
	"net/http"

	apperrors "github.com/louisbranch/battlearena/internal/platform/errors"
	"github.com/louisbranch/battlearena/internal/services/game/storage"
)

// MatchTypes lists the accepted match types.
var MatchTypes = []string{"solo", "team", "tournament"}

const defaultServerRegion = "us-east"

type startMatchRequest struct {
	MatchType    string  `json:"match_type"`
	PlayerIDs    []int64 `json:"player_ids"`
	ServerRegion string  `json:"server_region"`
}

type participantStat struct {
	PlayerID int64 `json:"player_id"`
	Score    int   `json:"score"`
	Kills    int   `json:"kills"`
	Deaths   int   `json:"deaths"`
}

type completeMatchRequest struct {
	MatchID         int64             `json:"match_id"`
	WinnerID        int64             `json:"winner_id"`
	DurationSeconds int               `json:"duration_seconds"`
	ParticipantStat []participantStat `json:"participant_stats"`
}

type crashMatchRequest struct {
	MatchID      int64  `json:"match_id"`
	ErrorMessage string `json:"error_message"`
}

func validMatchType(t string) bool {
	for _, mt := range MatchTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// HandleMatchStart creates an in-progress match with its participants.
func (h *Handler) HandleMatchStart(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	var req startMatchRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if !validMatchType(req.MatchType) {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidMatchType,
			fmt.Sprintf("invalid match type: %q", req.MatchType)))
		return
	}
	if len(req.PlayerIDs) == 0 {
		h.writeError(w, apperrors.New(apperrors.CodeEmptyPlayerIDs, "player_ids cannot be empty"))
		return
	}
	found, err := h.store.CountPlayersByIDs(r.Context(), req.PlayerIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if found != len(req.PlayerIDs) {
		h.writeError(w, apperrors.New(apperrors.CodePlayersMissing,
			fmt.Sprintf("some players not found: expected %d, found %d", len(req.PlayerIDs), found)))
		return
	}
	if req.ServerRegion == "" {
		req.ServerRegion = defaultServerRegion
	}

	id, err := h.store.CreateMatch(r.Context(), storage.Match{
		MatchType:    req.MatchType,
		StartTime:    h.now(),
		ServerRegion: req.ServerRegion,
	}, req.PlayerIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.rec.MatchStarted(req.MatchType)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"match_id":      id,
		"match_type":    req.MatchType,
		"status":        storage.MatchInProgress,
		"player_count":  len(req.PlayerIDs),
		"server_region": req.ServerRegion,
	})
}

// HandleMatchComplete finishes an in-progress match and applies results.
func (h *Handler) HandleMatchComplete(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	var req completeMatchRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	match, err := h.store.GetMatch(r.Context(), req.MatchID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stats := make([]storage.ParticipantStat, 0, len(req.ParticipantStat))
	for _, s := range req.ParticipantStat {
		stats = append(stats, storage.ParticipantStat{
			PlayerID: s.PlayerID,
			Score:    s.Score,
			Kills:    s.Kills,
			Deaths:   s.Deaths,
		})
	}
	if err := h.store.CompleteMatch(r.Context(), req.MatchID, req.WinnerID, req.DurationSeconds, stats, h.now()); err != nil {
		h.writeError(w, err)
		return
	}
	h.rec.MatchCompleted(match.MatchType)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"match_id":         req.MatchID,
		"status":           storage.MatchCompleted,
		"winner_id":        req.WinnerID,
		"duration_seconds": req.DurationSeconds,
		"message":          "Match completed successfully",
	})
}

// HandleMatchCrash marks a match as crashed and logs a critical event.
func (h *Handler) HandleMatchCrash(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	var req crashMatchRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	match, err := h.store.GetMatch(r.Context(), req.MatchID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	now := h.now()
	if err := h.store.CrashMatch(r.Context(), req.MatchID, now); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.store.AppendSystemEvent(r.Context(), storage.SystemEvent{
		EventType: "server_crash",
		Severity:  "critical",
		Message:   fmt.Sprintf("Match %d crashed: %s", req.MatchID, req.ErrorMessage),
		Timestamp: now,
	}); err != nil {
		h.logger.Printf("append crash event: %v", err)
	}
	h.rec.MatchCrashed(match.MatchType)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"match_id": req.MatchID,
		"status":   storage.MatchCrashed,
		"message":  "Match marked as crashed",
	})
}
