package rest

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/louisbranch/battlearena/internal/platform/errors"
	"github.com/louisbranch/battlearena/internal/services/game/storage"
)

type systemEventRequest struct {
	EventType string          `json:"event_type"`
	Severity  string          `json:"severity"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

// HandleSystemEvent appends one operational event to the audit log.
func (h *Handler) HandleSystemEvent(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	var req systemEventRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.EventType == "" || req.Severity == "" {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "event_type and severity are required"))
		return
	}
	if err := h.store.AppendSystemEvent(r.Context(), storage.SystemEvent{
		EventType: req.EventType,
		Severity:  req.Severity,
		Message:   req.Message,
		Metadata:  string(req.Metadata),
		Timestamp: h.now(),
	}); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"event_type": req.EventType,
		"severity":   req.Severity,
		"message":    "Event logged successfully",
	})
}
