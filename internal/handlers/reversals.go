package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"societyledger/internal/middleware"
	"societyledger/internal/services"
	"societyledger/internal/validator"

	"github.com/go-chi/chi/v5"
)

type reverseTransactionRequest struct {
	Reason  string `json:"reason" validate:"required"`
	Remarks string `json:"remarks"`
}

func (h *Handler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	actingUser, ok := middleware.ActingUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID := chi.URLParam(r, "transactionID")
	var req reverseTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Validate(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	reversalID, err := h.reversals.ReverseTransaction(r.Context(), transactionID, req.Reason, req.Remarks, actingUser)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidReason):
			respondError(w, http.StatusBadRequest, "invalid_reason")
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "transaction_not_found")
		case errors.Is(err, services.ErrAlreadyReversed):
			respondError(w, http.StatusConflict, "already_reversed")
		default:
			respondError(w, http.StatusInternalServerError, "reversal_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"reversal_transaction_id": reversalID})
}

func (h *Handler) GetReversal(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")
	reversal, err := h.reversals.GetReversal(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "reversal_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "lookup_failed")
		return
	}
	respondJSON(w, http.StatusOK, reversal)
}
