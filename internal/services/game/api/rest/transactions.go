package rest

import (
	"net/http"

	apperrors "github.com/louisbranch/battlearena/internal/platform/errors"
	"github.com/louisbranch/battlearena/internal/services/game/storage"
)

type createTransactionRequest struct {
	// PlayerID is optional; when set it must match the session token.
	PlayerID int64   `json:"player_id"`
	ItemType string  `json:"item_type"`
	ItemName string  `json:"item_name"`
	Amount   float64 `json:"amount"`
}

// HandleTransactionCreate records a purchase attempt for the calling
// player. The payment processor is simulated: a configured fraction of
// purchases fails server-side and is stored without crediting the balance.
func (h *Handler) HandleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	playerID, err := h.authenticate(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req createTransactionRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.PlayerID != 0 && req.PlayerID != playerID {
		h.writeError(w, apperrors.New(apperrors.CodeUnauthenticated, "token does not match player_id"))
		return
	}
	if req.Amount <= 0 {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidAmount, "amount must be positive"))
		return
	}
	if req.ItemType == "" || req.ItemName == "" {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "item_type and item_name are required"))
		return
	}

	player, err := h.store.GetPlayer(r.Context(), playerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := storage.TransactionCompleted
	if h.roll() < h.failureRate {
		status = storage.TransactionFailed
	}
	id, err := h.store.CreateTransaction(r.Context(), storage.Transaction{
		PlayerID:  player.ID,
		ItemType:  req.ItemType,
		ItemName:  req.ItemName,
		Amount:    req.Amount,
		Currency:  "USD",
		Status:    status,
		CreatedAt: h.now(),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if status == storage.TransactionCompleted {
		h.rec.TransactionCompleted(req.ItemType, req.Amount)
	} else {
		h.rec.TransactionFailed(req.ItemType)
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"transaction_id": id,
		"player_id":      player.ID,
		"item":           req.ItemName,
		"amount":         req.Amount,
		"status":         status,
	})
}
