// Package rest exposes the game API over JSON HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	apperrors "github.com/louisbranch/battlearena/internal/platform/errors"
	"github.com/louisbranch/battlearena/internal/services/game/events"
	"github.com/louisbranch/battlearena/internal/services/game/session"
	"github.com/louisbranch/battlearena/internal/services/game/storage"
)

// maxBodyBytes bounds request body reads.
const maxBodyBytes = 1 << 20

// Handler serves the game API endpoints.
type Handler struct {
	store    storage.Store
	rec      *events.Recorder
	sessions *session.Manager
	logger   *log.Logger

	// failureRate is the probability a purchase is rejected server-side.
	failureRate float64
	roll        func() float64
	now         func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithTransactionFailureRate sets the probability in [0,1] that a purchase
// fails server-side.
func WithTransactionFailureRate(p float64) Option {
	return func(h *Handler) {
		if p >= 0 && p <= 1 {
			h.failureRate = p
		}
	}
}

// WithLogger overrides the handler logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithRoll overrides the randomness source for the payment failure roll.
func WithRoll(roll func() float64) Option {
	return func(h *Handler) {
		if roll != nil {
			h.roll = roll
		}
	}
}

// New creates a Handler over the given store, recorder and session manager.
func New(store storage.Store, rec *events.Recorder, sessions *session.Manager, opts ...Option) *Handler {
	h := &Handler{
		store:       store,
		rec:         rec,
		sessions:    sessions,
		logger:      log.New(log.Writer(), "game: ", log.LstdFlags),
		failureRate: 0.01,
		roll:        rand.Float64,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Printf("encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Printf("internal error: %v", err)
	}
	msg := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}
	h.writeJSON(w, status, errorBody{Error: errorDetail{Code: string(code), Message: msg}})
}

func (h *Handler) decode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "malformed request body", err)
	}
	return nil
}

func (h *Handler) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorDetail{
			Code:    string(apperrors.CodeInvalidArgument),
			Message: fmt.Sprintf("method %s not allowed", r.Method),
		}})
		return false
	}
	return true
}

func (h *Handler) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorDetail{
			Code:    string(apperrors.CodeInvalidArgument),
			Message: fmt.Sprintf("method %s not allowed", r.Method),
		}})
		return false
	}
	return true
}

// authenticate resolves the player id vouched for by the request's bearer
// token.
func (h *Handler) authenticate(r *http.Request) (int64, error) {
	token := session.FromAuthorization(r.Header.Get("Authorization"))
	if token == "" {
		return 0, apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	return h.sessions.Verify(token)
}

// HandleRoot serves the service banner.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != Root {
		http.NotFound(w, r)
		return
	}
	if !h.requireGet(w, r) {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to BattleArena API",
		"version": "1.0.0",
	})
}

// HandleHealth reports service and database health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	if err := h.store.Ping(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     err.Error(),
			"timestamp": h.now().Format(time.RFC3339),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().Format(time.RFC3339),
	})
}
