package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"societyledger/internal/matching"
	"societyledger/internal/middleware"
	"societyledger/internal/money"
	"societyledger/internal/services"
	"societyledger/internal/websocket"
)

func (h *Handler) FindMatches(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var tol matching.Tolerances
	if raw := r.URL.Query().Get("date_tolerance_days"); raw != "" {
		days, err := parsePositiveInt(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date_tolerance_days")
			return
		}
		tol.DateDays = days
	}
	if raw := r.URL.Query().Get("amount_tolerance"); raw != "" {
		minor, err := money.ParseNonNegativeMinor(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid amount_tolerance")
			return
		}
		tol.AmountMinor = minor
	}
	candidates, err := h.reconciliation.FindMatches(r.Context(), start, end, tol)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "matching_failed")
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

func (h *Handler) SuggestMatches(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxSuggestions := 0
	if raw := r.URL.Query().Get("max"); raw != "" {
		if maxSuggestions, err = parsePositiveInt(raw); err != nil {
			respondError(w, http.StatusBadRequest, "invalid max")
			return
		}
	}
	candidates, err := h.reconciliation.SuggestMatches(r.Context(), start, end, maxSuggestions)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "matching_failed")
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

type autoMatchRequest struct {
	Start         string  `json:"start" validate:"required,datetime=2006-01-02"`
	End           string  `json:"end" validate:"required,datetime=2006-01-02"`
	MinConfidence float64 `json:"min_confidence"`
}

func (h *Handler) AutoMatch(w http.ResponseWriter, r *http.Request) {
	actingUser, ok := middleware.ActingUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req autoMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	start, err := parseDate(req.Start)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end")
		return
	}
	applied, err := h.reconciliation.AutoMatch(r.Context(), start, end, req.MinConfidence, actingUser)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "auto_match_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"matched":    len(applied),
		"candidates": applied,
	})
}

type matchRequest struct {
	LedgerID    int64 `json:"ledger_id" validate:"required"`
	BankEntryID int64 `json:"bank_entry_id" validate:"required"`
}

func (h *Handler) MarkMatched(w http.ResponseWriter, r *http.Request) {
	h.applyMatch(w, r, false)
}

func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	h.applyMatch(w, r, true)
}

func (h *Handler) applyMatch(w http.ResponseWriter, r *http.Request, undo bool) {
	actingUser, ok := middleware.ActingUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.LedgerID <= 0 || req.BankEntryID <= 0 {
		respondError(w, http.StatusBadRequest, "ledger_id and bank_entry_id are required")
		return
	}
	var err error
	if undo {
		err = h.reconciliation.Unmatch(r.Context(), req.LedgerID, req.BankEntryID, actingUser)
	} else {
		err = h.reconciliation.MarkMatched(r.Context(), req.LedgerID, req.BankEntryID, actingUser)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "record_not_found")
		case errors.Is(err, services.ErrAlreadyReconciled):
			respondError(w, http.StatusConflict, "already_reconciled")
		case errors.Is(err, services.ErrNotReconciled):
			respondError(w, http.StatusConflict, "not_reconciled_together")
		default:
			respondError(w, http.StatusInternalServerError, "reconciliation_failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ReconciliationSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.reconciliation.GetSummary(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "summary_failed")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) ReconciliationHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := limitOffsetFromQuery(r, 50)
	rows, err := h.reconciliation.GetHistory(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_failed")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := limitOffsetFromQuery(r, 50)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "audit_failed")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) WSEvents(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(w, r, h.hub)
}
