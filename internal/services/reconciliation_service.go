package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"societyledger/internal/db"
	"societyledger/internal/matching"
	"societyledger/internal/models"
	"societyledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReconciliationService is both the matching engine (scoring unmatched
// ledger transactions against unmatched bank lines) and the coordinator
// that applies a confirmed match across both tables atomically.
type ReconciliationService struct {
	txRunner     db.TxRunner
	ledgerStore  LedgerStore
	bankStore    BankStatementStore
	historyStore HistoryStore
	auditStore   AuditStore
	hub          EventHub
	defaults     MatchDefaults
}

type MatchDefaults struct {
	Tolerances        matching.Tolerances
	AutoMatchMinScore float64
	SuggestMinScore   float64
	MaxSuggestions    int
}

func NewReconciliationService(txRunner db.TxRunner, ledgerStore LedgerStore, bankStore BankStatementStore, historyStore HistoryStore, auditStore AuditStore, hub EventHub, defaults MatchDefaults) *ReconciliationService {
	if defaults.Tolerances.DateDays <= 0 {
		defaults.Tolerances.DateDays = 3
	}
	if defaults.Tolerances.AmountMinor <= 0 {
		defaults.Tolerances.AmountMinor = 1
	}
	if defaults.AutoMatchMinScore <= 0 {
		defaults.AutoMatchMinScore = 0.8
	}
	if defaults.SuggestMinScore <= 0 {
		defaults.SuggestMinScore = 0.3
	}
	if defaults.MaxSuggestions <= 0 {
		defaults.MaxSuggestions = 20
	}
	return &ReconciliationService{
		txRunner:     txRunner,
		ledgerStore:  ledgerStore,
		bankStore:    bankStore,
		historyStore: historyStore,
		auditStore:   auditStore,
		hub:          hub,
		defaults:     defaults,
	}
}

func pairFor(ledger models.LedgerTransaction, entry models.BankStatementEntry) matching.Pair {
	return matching.Pair{
		LedgerDate:        ledger.Date,
		LedgerAmountMinor: ledger.Credit - ledger.Debit,
		LedgerID:          ledger.TransactionID,
		LedgerDescription: ledger.Description,
		BankDate:          entry.Date,
		BankAmountMinor:   entry.Amount,
		BankReference:     derefOrEmpty(entry.ReferenceNumber),
		BankDescription:   entry.Description,
	}
}

// loadEligible returns unreconciled ledger transactions in the window
// and unreconciled bank entries in the window widened by the date
// tolerance, so boundary-adjacent matches are not missed.
func (s *ReconciliationService) loadEligible(ctx context.Context, start, end time.Time, tol matching.Tolerances) ([]models.LedgerTransaction, []models.BankStatementEntry, error) {
	ledgers, err := s.ledgerStore.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("load ledger window: %w", err)
	}
	buffer := time.Duration(tol.DateDays) * 24 * time.Hour
	entries, err := s.bankStore.ListByDateRange(ctx, start.Add(-buffer), end.Add(buffer))
	if err != nil {
		return nil, nil, fmt.Errorf("load bank window: %w", err)
	}
	eligibleLedgers := ledgers[:0:0]
	for _, ledger := range ledgers {
		if ledger.ReconciliationStatus == models.StatusUnreconciled {
			eligibleLedgers = append(eligibleLedgers, ledger)
		}
	}
	eligibleEntries := entries[:0:0]
	for _, entry := range entries {
		if entry.ReconciliationStatus == models.StatusUnreconciled {
			eligibleEntries = append(eligibleEntries, entry)
		}
	}
	return eligibleLedgers, eligibleEntries, nil
}

func (s *ReconciliationService) tolerancesOrDefault(tol matching.Tolerances) matching.Tolerances {
	if tol.DateDays <= 0 {
		tol.DateDays = s.defaults.Tolerances.DateDays
	}
	if tol.AmountMinor <= 0 {
		tol.AmountMinor = s.defaults.Tolerances.AmountMinor
	}
	return tol
}

// FindMatches sweeps a window and scores every in-tolerance pair with
// the bulk date/amount formula, highest confidence first. The extended
// description-aware formula is reserved for suggestions and
// auto-matching; the two are intentionally different.
func (s *ReconciliationService) FindMatches(ctx context.Context, start, end time.Time, tol matching.Tolerances) ([]models.ReconciliationCandidate, error) {
	tol = s.tolerancesOrDefault(tol)
	ledgers, entries, err := s.loadEligible(ctx, start, end, tol)
	if err != nil {
		return nil, err
	}
	var candidates []models.ReconciliationCandidate
	for _, ledger := range ledgers {
		for _, entry := range entries {
			pair := pairFor(ledger, entry)
			if !tol.WithinTolerances(pair) {
				continue
			}
			candidates = append(candidates, models.ReconciliationCandidate{
				Ledger:       ledger,
				BankEntry:    entry,
				Confidence:   tol.Score(pair),
				DateDiffDays: matching.DateDiffDays(ledger.Date, entry.Date),
				AmountDiff:   matching.AmountDiff(pair.LedgerAmountMinor, entry.Amount),
			})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates, nil
}

// SuggestMatches returns the best extended-formula candidates above the
// suggestion floor, truncated to maxSuggestions.
func (s *ReconciliationService) SuggestMatches(ctx context.Context, start, end time.Time, maxSuggestions int) ([]models.ReconciliationCandidate, error) {
	if maxSuggestions <= 0 {
		maxSuggestions = s.defaults.MaxSuggestions
	}
	tol := s.defaults.Tolerances
	ledgers, entries, err := s.loadEligible(ctx, start, end, tol)
	if err != nil {
		return nil, err
	}
	var candidates []models.ReconciliationCandidate
	for _, ledger := range ledgers {
		for _, entry := range entries {
			pair := pairFor(ledger, entry)
			if !tol.WithinTolerances(pair) {
				continue
			}
			confidence := tol.ExtendedScore(pair)
			if confidence <= s.defaults.SuggestMinScore {
				continue
			}
			candidates = append(candidates, models.ReconciliationCandidate{
				Ledger:       ledger,
				BankEntry:    entry,
				Confidence:   confidence,
				DateDiffDays: matching.DateDiffDays(ledger.Date, entry.Date),
				AmountDiff:   matching.AmountDiff(pair.LedgerAmountMinor, entry.Amount),
			})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	return candidates, nil
}

// AutoMatch walks ledger transactions in ascending date order; each
// claims its best still-unclaimed bank entry scoring at or above
// minConfidence, and a claimed entry is never reassigned. Greedy and
// ordering-sensitive on purpose: this mirrors how the bookkeeper's
// confirm-one-at-a-time flow behaves, with no backtracking. Applied
// pairs go through MarkMatched for the usual atomicity and history.
func (s *ReconciliationService) AutoMatch(ctx context.Context, start, end time.Time, minConfidence float64, actingUser string) ([]models.ReconciliationCandidate, error) {
	if minConfidence <= 0 {
		minConfidence = s.defaults.AutoMatchMinScore
	}
	tol := s.defaults.Tolerances
	ledgers, entries, err := s.loadEligible(ctx, start, end, tol)
	if err != nil {
		return nil, err
	}
	claimed := make(map[int64]bool, len(entries))
	var applied []models.ReconciliationCandidate
	for _, ledger := range ledgers {
		bestIdx := -1
		bestConfidence := 0.0
		for i, entry := range entries {
			if claimed[entry.ID] {
				continue
			}
			pair := pairFor(ledger, entry)
			if !tol.WithinTolerances(pair) {
				continue
			}
			confidence := tol.ExtendedScore(pair)
			if confidence < minConfidence {
				continue
			}
			if confidence > bestConfidence {
				bestIdx = i
				bestConfidence = confidence
			}
		}
		if bestIdx < 0 {
			continue
		}
		entry := entries[bestIdx]
		if err := s.MarkMatched(ctx, ledger.ID, entry.ID, actingUser); err != nil {
			return applied, err
		}
		claimed[entry.ID] = true
		pair := pairFor(ledger, entry)
		applied = append(applied, models.ReconciliationCandidate{
			Ledger:       ledger,
			BankEntry:    entry,
			Confidence:   bestConfidence,
			DateDiffDays: matching.DateDiffDays(ledger.Date, entry.Date),
			AmountDiff:   matching.AmountDiff(pair.LedgerAmountMinor, entry.Amount),
		})
	}
	return applied, nil
}

// MarkMatched flips both sides to Reconciled, links the bank entry to
// the ledger transaction, and appends the history row — all in one
// transaction, so a partial flip can never be observed.
func (s *ReconciliationService) MarkMatched(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error {
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		ledger, err := s.ledgerStore.GetForUpdate(ctx, tx, ledgerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load ledger transaction: %w", err)
		}
		entry, err := s.bankStore.GetForUpdate(ctx, tx, bankEntryID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load bank entry: %w", err)
		}
		if ledger.ReconciliationStatus == models.StatusReconciled || entry.ReconciliationStatus == models.StatusReconciled {
			return ErrAlreadyReconciled
		}
		if err := s.ledgerStore.UpdateReconciliationStatus(ctx, tx, ledgerID, models.StatusReconciled); err != nil {
			return fmt.Errorf("reconcile ledger transaction: %w", err)
		}
		if err := s.bankStore.UpdateStatus(ctx, tx, bankEntryID, models.StatusReconciled, &ledgerID); err != nil {
			return fmt.Errorf("reconcile bank entry: %w", err)
		}
		transactionID = ledger.TransactionID
		notes := fmt.Sprintf("Matched %s with bank entry %d", ledger.TransactionID, bankEntryID)
		if err := s.historyStore.Append(ctx, tx, uuid.NewString(), actingUser, notes); err != nil {
			return fmt.Errorf("record match: %w", err)
		}
		oldData := mustJSON(map[string]any{"ledger_status": ledger.ReconciliationStatus, "bank_status": entry.ReconciliationStatus})
		newData := mustJSON(map[string]any{"ledger_status": models.StatusReconciled, "bank_status": models.StatusReconciled, "matched_ledger_id": ledgerID})
		return s.auditStore.Log(ctx, tx, actingUser, "mark_matched", "reconciliation", ledger.TransactionID, &oldData, &newData)
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(websocket.Event{
		Type:   websocket.EventEntryMatched,
		Entity: "reconciliation",
		ID:     transactionID,
		Detail: fmt.Sprintf("bank entry %d", bankEntryID),
	})
	return nil
}

// Unmatch is the symmetric inverse of MarkMatched: both sides back to
// Unreconciled, link cleared, history appended, one transaction.
func (s *ReconciliationService) Unmatch(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error {
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		ledger, err := s.ledgerStore.GetForUpdate(ctx, tx, ledgerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load ledger transaction: %w", err)
		}
		entry, err := s.bankStore.GetForUpdate(ctx, tx, bankEntryID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load bank entry: %w", err)
		}
		if entry.MatchedLedgerID == nil || *entry.MatchedLedgerID != ledgerID {
			return ErrNotReconciled
		}
		if err := s.ledgerStore.UpdateReconciliationStatus(ctx, tx, ledgerID, models.StatusUnreconciled); err != nil {
			return fmt.Errorf("unreconcile ledger transaction: %w", err)
		}
		if err := s.bankStore.UpdateStatus(ctx, tx, bankEntryID, models.StatusUnreconciled, nil); err != nil {
			return fmt.Errorf("unreconcile bank entry: %w", err)
		}
		transactionID = ledger.TransactionID
		notes := fmt.Sprintf("Unmatched %s from bank entry %d", ledger.TransactionID, bankEntryID)
		if err := s.historyStore.Append(ctx, tx, uuid.NewString(), actingUser, notes); err != nil {
			return fmt.Errorf("record unmatch: %w", err)
		}
		oldData := mustJSON(map[string]any{"matched_ledger_id": ledgerID})
		newData := mustJSON(map[string]any{"ledger_status": models.StatusUnreconciled, "bank_status": models.StatusUnreconciled})
		return s.auditStore.Log(ctx, tx, actingUser, "unmatch", "reconciliation", ledger.TransactionID, &oldData, &newData)
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(websocket.Event{
		Type:   websocket.EventEntryUnmatched,
		Entity: "reconciliation",
		ID:     transactionID,
		Detail: fmt.Sprintf("bank entry %d", bankEntryID),
	})
	return nil
}

type ReconciliationSummary struct {
	Ledger map[string]int `json:"ledger"`
	Bank   map[string]int `json:"bank"`
}

// GetSummary reports match coverage per status within the window. Both
// statuses are always present in each map, zero-filled.
func (s *ReconciliationService) GetSummary(ctx context.Context, start, end time.Time) (ReconciliationSummary, error) {
	ledgerCounts, err := s.ledgerStore.CountByStatus(ctx, start, end)
	if err != nil {
		return ReconciliationSummary{}, fmt.Errorf("ledger counts: %w", err)
	}
	bankCounts, err := s.bankStore.CountByStatus(ctx, start, end)
	if err != nil {
		return ReconciliationSummary{}, fmt.Errorf("bank counts: %w", err)
	}
	return ReconciliationSummary{
		Ledger: fillStatuses(ledgerCounts),
		Bank:   fillStatuses(bankCounts),
	}, nil
}

func (s *ReconciliationService) GetHistory(ctx context.Context, limit, offset int) ([]models.ReconciliationHistory, error) {
	return s.historyStore.List(ctx, limit, offset)
}

func fillStatuses(counts map[string]int) map[string]int {
	filled := map[string]int{
		models.StatusUnreconciled: 0,
		models.StatusReconciled:   0,
	}
	for status, count := range counts {
		filled[status] = count
	}
	return filled
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
