package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"societyledger/internal/middleware"
	"societyledger/internal/money"
	"societyledger/internal/services"
	"societyledger/internal/validator"

	"github.com/go-chi/chi/v5"
)

type addTransactionRequest struct {
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	FlatNo          *string `json:"flat_no"`
	TransactionType string  `json:"transaction_type" validate:"required"`
	Category        string  `json:"category" validate:"required"`
	Description     string  `json:"description"`
	Debit           string  `json:"debit"`
	Credit          string  `json:"credit"`
	PaymentMode     string  `json:"payment_mode"`
}

func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	actingUser, ok := middleware.ActingUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Validate(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}
	debitMinor, creditMinor, err := parseSides(req.Debit, req.Credit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transactionID, err := h.ledger.AddTransaction(r.Context(), services.AddTransactionRequest{
		Date:            date,
		FlatNo:          req.FlatNo,
		TransactionType: req.TransactionType,
		Category:        req.Category,
		Description:     req.Description,
		DebitMinor:      debitMinor,
		CreditMinor:     creditMinor,
		PaymentMode:     req.PaymentMode,
		EnteredBy:       actingUser,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransactionType) {
			respondError(w, http.StatusBadRequest, "invalid_transaction_type")
			return
		}
		respondError(w, http.StatusInternalServerError, "add_transaction_failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transaction_id": transactionID})
}

// parseSides parses the debit/credit strings; an empty side is zero.
// Exactly one side is expected to be set.
func parseSides(debit, credit string) (int64, int64, error) {
	debitMinor := int64(0)
	creditMinor := int64(0)
	var err error
	if debit != "" {
		if debitMinor, err = money.ParseNonNegativeMinor(debit); err != nil {
			return 0, 0, errors.New("invalid debit amount")
		}
	}
	if credit != "" {
		if creditMinor, err = money.ParseNonNegativeMinor(credit); err != nil {
			return 0, 0, errors.New("invalid credit amount")
		}
	}
	if (debitMinor == 0) == (creditMinor == 0) {
		return 0, 0, errors.New("exactly one of debit or credit must be set")
	}
	return debitMinor, creditMinor, nil
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	if flatNo := r.URL.Query().Get("flat_no"); flatNo != "" {
		rows, err := h.ledger.GetByFlat(r.Context(), flatNo)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "list_failed")
			return
		}
		respondJSON(w, http.StatusOK, rows)
		return
	}
	if r.URL.Query().Get("start") != "" || r.URL.Query().Get("end") != "" {
		start, end, err := dateRangeFromQuery(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows, err := h.ledger.GetByDateRange(r.Context(), start, end)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "list_failed")
			return
		}
		respondJSON(w, http.StatusOK, rows)
		return
	}
	rows, err := h.ledger.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) LedgerSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.ledger.GetSummary(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "summary_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"total_credit":    money.FormatMinor(summary.TotalCreditMinor),
		"total_debit":     money.FormatMinor(summary.TotalDebitMinor),
		"closing_balance": money.FormatMinor(summary.ClosingBalance),
	})
}

func (h *Handler) RecalculateBalances(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RecalculateBalances(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "recalculation_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CanReverse(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")
	canReverse, reason, err := h.ledger.CanReverse(r.Context(), transactionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "check_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"can_reverse": canReverse, "reason": reason})
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	actingUser, ok := middleware.ActingUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID := chi.URLParam(r, "transactionID")
	err := h.ledger.DeleteTransaction(r.Context(), transactionID, actingUser)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction_not_found")
			return
		}
		if errors.Is(err, services.ErrHasReversal) {
			respondError(w, http.StatusConflict, "transaction_has_reversal")
			return
		}
		respondError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
