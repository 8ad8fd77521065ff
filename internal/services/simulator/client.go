// Package simulator generates synthetic game traffic against the API.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/battlearena/internal/platform/timeouts"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsUsernameTaken reports whether the error is a duplicate-username
// rejection.
func IsUsernameTaken(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "USERNAME_TAKEN"
}

// Client calls the game API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeouts.APIRequest},
	}
}

// NewClientWithHTTP creates a client with a custom HTTP client, mainly for
// tests against httptest servers.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	c := NewClient(baseURL)
	if httpClient != nil {
		c.http = httpClient
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return &APIError{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// Healthy reports whether the backend answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &resp); err != nil {
		return false
	}
	return resp.Status == "healthy"
}

// RegisterPlayer creates a player account and returns its id.
func (c *Client) RegisterPlayer(ctx context.Context, username, email string, level int) (int64, error) {
	var resp struct {
		PlayerID int64 `json:"player_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/players/register", "", map[string]any{
		"username": username,
		"email":    email,
		"level":    level,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.PlayerID, nil
}

// Login records a login and returns the session token.
func (c *Client) Login(ctx context.Context, playerID int64) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/players/login", "", map[string]any{
		"player_id": playerID,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Logout ends the session behind the token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/players/logout", token, struct{}{}, nil)
}

// StartMatch opens a match and returns its id.
func (c *Client) StartMatch(ctx context.Context, matchType string, playerIDs []int64, region string) (int64, error) {
	var resp struct {
		MatchID int64 `json:"match_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/matches/start", "", map[string]any{
		"match_type":    matchType,
		"player_ids":    playerIDs,
		"server_region": region,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.MatchID, nil
}

// ParticipantResult is one player's score sheet for a completed match.
type ParticipantResult struct {
	PlayerID int64 `json:"player_id"`
	Score    int   `json:"score"`
	Kills    int   `json:"kills"`
	Deaths   int   `json:"deaths"`
}

// CompleteMatch finishes a match normally.
func (c *Client) CompleteMatch(ctx context.Context, matchID, winnerID int64, durationSeconds int, stats []ParticipantResult) error {
	return c.do(ctx, http.MethodPost, "/api/matches/complete", "", map[string]any{
		"match_id":          matchID,
		"winner_id":         winnerID,
		"duration_seconds":  durationSeconds,
		"participant_stats": stats,
	}, nil)
}

// CrashMatch marks a match as crashed.
func (c *Client) CrashMatch(ctx context.Context, matchID int64, reason string) error {
	return c.do(ctx, http.MethodPost, "/api/matches/crash", "", map[string]any{
		"match_id":      matchID,
		"error_message": reason,
	}, nil)
}

// CreateTransaction attempts a purchase and returns the backend's outcome
// status ("completed" or "failed").
func (c *Client) CreateTransaction(ctx context.Context, token, itemType, itemName string, amount float64) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodPost, "/api/transactions/create", token, map[string]any{
		"item_type": itemType,
		"item_name": itemName,
		"amount":    amount,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// SystemEvent logs an operational event.
func (c *Client) SystemEvent(ctx context.Context, eventType, severity, message string) error {
	return c.do(ctx, http.MethodPost, "/api/system/event", "", map[string]any{
		"event_type": eventType,
		"severity":   severity,
		"message":    message,
	}, nil)
}

// TotalPlayers reports how many players the backend knows about.
func (c *Client) TotalPlayers(ctx context.Context) (int, error) {
	var resp struct {
		TotalPlayers int `json:"total_players"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/stats/players", "", nil, &resp); err != nil {
		return 0, err
	}
	return resp.TotalPlayers, nil
}
