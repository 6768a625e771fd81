package handlers

import (
	"encoding/json"
	"net/http"

	"societyledger/internal/middleware"
	"societyledger/internal/money"
	"societyledger/internal/services"
	"societyledger/internal/validator"
)

type bankEntryPayload struct {
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	Description     string  `json:"description" validate:"required"`
	Amount          string  `json:"amount" validate:"required"`
	Balance         string  `json:"balance"`
	ReferenceNumber *string `json:"reference_number"`
}

type importStatementRequest struct {
	Entries []bankEntryPayload `json:"entries" validate:"required,min=1,dive"`
}

func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	actingUser, ok := middleware.ActingUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req importStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Validate(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	records := make([]services.BankEntryRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		date, err := parseDate(entry.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid entry date")
			return
		}
		amountMinor, err := money.ParseMinor(entry.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid entry amount")
			return
		}
		balanceMinor := int64(0)
		if entry.Balance != "" {
			if balanceMinor, err = money.ParseMinor(entry.Balance); err != nil {
				respondError(w, http.StatusBadRequest, "invalid entry balance")
				return
			}
		}
		records = append(records, services.BankEntryRecord{
			Date:            date,
			Description:     entry.Description,
			AmountMinor:     amountMinor,
			BalanceMinor:    balanceMinor,
			ReferenceNumber: entry.ReferenceNumber,
		})
	}
	imported, err := h.statements.ImportEntries(r.Context(), records, actingUser)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "import_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"imported": imported,
		"skipped":  len(records) - imported,
	})
}

func (h *Handler) ListStatementEntries(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("start") != "" || r.URL.Query().Get("end") != "" {
		start, end, err := dateRangeFromQuery(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows, err := h.statements.GetByDateRange(r.Context(), start, end)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "list_failed")
			return
		}
		respondJSON(w, http.StatusOK, rows)
		return
	}
	rows, err := h.statements.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
