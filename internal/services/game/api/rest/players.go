package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/battlearena/internal/platform/errors"
	"github.com/louisbranch/battlearena/internal/services/game/storage"
	sharedroute "github.com/louisbranch/battlearena/internal/services/shared/route"
)

const maxPlayerLevel = 100

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Level    int    `json:"level"`
}

type loginRequest struct {
	PlayerID int64 `json:"player_id"`
}

// HandleRegister creates a new player account.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		h.rec.Registration(false)
		h.writeError(w, apperrors.New(apperrors.CodeUsernameEmpty, "username is required"))
		return
	}
	if req.Level == 0 {
		req.Level = 1
	}
	if req.Level < 1 || req.Level > maxPlayerLevel {
		h.rec.Registration(false)
		h.writeError(w, apperrors.New(apperrors.CodeLevelOutOfRange,
			fmt.Sprintf("level %d outside [1,%d]", req.Level, maxPlayerLevel)))
		return
	}

	now := h.now()
	id, err := h.store.CreatePlayer(r.Context(), storage.Player{
		Username:  req.Username,
		Email:     req.Email,
		Level:     req.Level,
		CreatedAt: now,
		LastLogin: now,
	})
	if err != nil {
		h.rec.Registration(false)
		h.writeError(w, err)
		return
	}
	h.rec.Registration(true)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"player_id": id,
		"username":  req.Username,
		"message":   "Player registered successfully",
	})
}

// HandleLogin records a player login and issues a session token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	player, err := h.store.GetPlayer(r.Context(), req.PlayerID)
	if err != nil {
		h.rec.Login(false)
		h.writeError(w, err)
		return
	}
	now := h.now()
	if err := h.store.RecordLogin(r.Context(), player.ID, now); err != nil {
		h.rec.Login(false)
		h.writeError(w, err)
		return
	}
	if err := h.store.AppendSystemEvent(r.Context(), storage.SystemEvent{
		EventType: "login",
		Severity:  "info",
		Message:   fmt.Sprintf("Player %d (%s) logged in", player.ID, player.Username),
		Timestamp: now,
	}); err != nil {
		h.logger.Printf("append login event: %v", err)
	}
	token, err := h.sessions.Issue(player.ID, player.Username)
	if err != nil {
		h.rec.Login(false)
		h.writeError(w, err)
		return
	}

	h.rec.Login(true)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"player_id":  player.ID,
		"username":   player.Username,
		"level":      player.Level,
		"last_login": now.Format(time.RFC3339),
		"token":      token,
	})
}

// HandleLogout ends the caller's session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	playerID, err := h.authenticate(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.rec.Logout()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"player_id": playerID,
		"message":   "Logged out",
	})
}

// HandlePlayerPath dispatches /api/players/{id} detail lookups.
func (h *Handler) HandlePlayerPath(w http.ResponseWriter, r *http.Request) {
	if sharedroute.RedirectTrailingSlash(w, r) {
		return
	}
	if !h.requireGet(w, r) {
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, PlayersPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || strings.Contains(raw, "/") {
		http.NotFound(w, r)
		return
	}

	player, err := h.store.GetPlayer(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"player_id":       player.ID,
		"username":        player.Username,
		"email":           player.Email,
		"level":           player.Level,
		"total_points":    player.TotalPoints,
		"account_balance": player.AccountBalance,
		"created_at":      player.CreatedAt.Format(time.RFC3339),
		"last_login":      player.LastLogin.Format(time.RFC3339),
		"is_active":       player.IsActive,
	})
}
