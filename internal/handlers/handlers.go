package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

var errMissingDateRange = errors.New("start and end are required")

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

// dateRangeFromQuery reads ?start=YYYY-MM-DD&end=YYYY-MM-DD.
func dateRangeFromQuery(r *http.Request) (time.Time, time.Time, error) {
	rawStart := r.URL.Query().Get("start")
	rawEnd := r.URL.Query().Get("end")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, errMissingDateRange
	}
	start, err := parseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func limitOffsetFromQuery(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}

func parsePositiveInt(raw string) (int, error) {
	value := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, errors.New("not a number")
		}
		value = value*10 + int(r-'0')
		if value > 1<<30 {
			return 0, errors.New("too large")
		}
	}
	return value, nil
}
