package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"societyledger/internal/models"
	"societyledger/internal/store"
	"societyledger/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// fakeTxRunner runs the unit of work without a database. The fakes
// mutate state directly, so "rolled back" here only records that the
// closure failed; tests assert on the error plus what was NOT written.
type fakeTxRunner struct {
	failWith   error
	rolledBack bool
}

func (r *fakeTxRunner) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	if r.failWith != nil {
		return r.failWith
	}
	if err := fn(nil); err != nil {
		r.rolledBack = true
		return err
	}
	return nil
}

// fakeLedgerStore keeps ledger rows in memory and mirrors the ordering
// and not-found semantics of the real store.
type fakeLedgerStore struct {
	seq              int64
	nextRowID        int64
	rows             []models.LedgerTransaction
	failInsert       error
	failUpdateStatus error
}

func (s *fakeLedgerStore) sorted() []models.LedgerTransaction {
	rows := append([]models.LedgerTransaction(nil), s.rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func (s *fakeLedgerStore) NextSequence(_ context.Context, _ store.Getter) (int64, error) {
	s.seq++
	return s.seq, nil
}

func (s *fakeLedgerStore) Insert(_ context.Context, _ store.Getter, input store.LedgerTransactionInput) (int64, error) {
	if s.failInsert != nil {
		return 0, s.failInsert
	}
	s.nextRowID++
	s.rows = append(s.rows, models.LedgerTransaction{
		ID:                   s.nextRowID,
		TransactionID:        input.TransactionID,
		Date:                 input.Date,
		FlatNo:               input.FlatNo,
		TransactionType:      input.TransactionType,
		Category:             input.Category,
		Description:          input.Description,
		Debit:                input.Debit,
		Credit:               input.Credit,
		Balance:              input.Balance,
		PaymentMode:          input.PaymentMode,
		EnteredBy:            input.EnteredBy,
		ReconciliationStatus: models.StatusUnreconciled,
	})
	return s.nextRowID, nil
}

func (s *fakeLedgerStore) LastBalance(_ context.Context, _ store.Getter) (int64, error) {
	if len(s.rows) == 0 {
		return 0, nil
	}
	last := s.rows[0]
	for _, row := range s.rows {
		if row.ID > last.ID {
			last = row
		}
	}
	return last.Balance, nil
}

func (s *fakeLedgerStore) ListAll(_ context.Context) ([]models.LedgerTransaction, error) {
	return s.sorted(), nil
}

func (s *fakeLedgerStore) ListByFlat(_ context.Context, flatNo string) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	for _, row := range s.sorted() {
		if row.FlatNo != nil && *row.FlatNo == flatNo {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *fakeLedgerStore) ListByDateRange(_ context.Context, start, end time.Time) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	for _, row := range s.sorted() {
		if !row.Date.Before(start) && !row.Date.After(end) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *fakeLedgerStore) GetByTransactionID(_ context.Context, transactionID string) (models.LedgerTransaction, error) {
	for _, row := range s.rows {
		if row.TransactionID == transactionID {
			return row, nil
		}
	}
	return models.LedgerTransaction{}, sql.ErrNoRows
}

func (s *fakeLedgerStore) GetByTransactionIDForUpdate(ctx context.Context, _ store.Getter, transactionID string) (models.LedgerTransaction, error) {
	return s.GetByTransactionID(ctx, transactionID)
}

func (s *fakeLedgerStore) GetForUpdate(_ context.Context, _ store.Getter, id int64) (models.LedgerTransaction, error) {
	for _, row := range s.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return models.LedgerTransaction{}, sql.ErrNoRows
}

func (s *fakeLedgerStore) ListBalancesForUpdate(_ context.Context, _ store.Selecter) ([]store.BalanceRow, error) {
	var rows []store.BalanceRow
	for _, row := range s.sorted() {
		rows = append(rows, store.BalanceRow{ID: row.ID, Debit: row.Debit, Credit: row.Credit, Balance: row.Balance})
	}
	return rows, nil
}

func (s *fakeLedgerStore) UpdateBalance(_ context.Context, _ store.Execer, id, balance int64) error {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Balance = balance
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *fakeLedgerStore) UpdateReconciliationStatus(_ context.Context, _ store.Execer, id int64, status string) error {
	if s.failUpdateStatus != nil {
		return s.failUpdateStatus
	}
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].ReconciliationStatus = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *fakeLedgerStore) Delete(_ context.Context, _ store.Execer, id int64) error {
	for i, row := range s.rows {
		if row.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *fakeLedgerStore) CountByStatus(_ context.Context, start, end time.Time) (map[string]int, error) {
	counts := map[string]int{}
	for _, row := range s.rows {
		if !row.Date.Before(start) && !row.Date.After(end) {
			counts[row.ReconciliationStatus]++
		}
	}
	return counts, nil
}

func (s *fakeLedgerStore) TotalsByDateRange(_ context.Context, start, end time.Time) (store.WindowTotals, error) {
	var totals store.WindowTotals
	for _, row := range s.rows {
		if !row.Date.Before(start) && !row.Date.After(end) {
			totals.TotalCredit += row.Credit
			totals.TotalDebit += row.Debit
		}
	}
	return totals, nil
}

func (s *fakeLedgerStore) NetThrough(_ context.Context, end time.Time) (int64, error) {
	var net int64
	for _, row := range s.rows {
		if !row.Date.After(end) {
			net += row.Credit - row.Debit
		}
	}
	return net, nil
}

type fakeReversalStore struct {
	byOriginal map[string]models.TransactionReversal
}

func newFakeReversalStore() *fakeReversalStore {
	return &fakeReversalStore{byOriginal: map[string]models.TransactionReversal{}}
}

func (s *fakeReversalStore) Create(_ context.Context, _ store.Execer, input store.ReversalInput) error {
	if _, ok := s.byOriginal[input.OriginalTransactionID]; ok {
		return &pq.Error{Code: "23505"}
	}
	s.byOriginal[input.OriginalTransactionID] = models.TransactionReversal{
		OriginalTransactionID: input.OriginalTransactionID,
		ReversalTransactionID: input.ReversalTransactionID,
		Reason:                input.Reason,
		Remarks:               input.Remarks,
		ReversedBy:            input.ReversedBy,
		ReversedAt:            input.ReversedAt,
	}
	return nil
}

func (s *fakeReversalStore) GetByOriginal(_ context.Context, originalTransactionID string) (models.TransactionReversal, error) {
	row, ok := s.byOriginal[originalTransactionID]
	if !ok {
		return models.TransactionReversal{}, sql.ErrNoRows
	}
	return row, nil
}

func (s *fakeReversalStore) ExistsForOriginal(_ context.Context, originalTransactionID string) (bool, error) {
	_, ok := s.byOriginal[originalTransactionID]
	return ok, nil
}

func (s *fakeReversalStore) ExistsForOriginalTx(ctx context.Context, _ store.Getter, originalTransactionID string) (bool, error) {
	return s.ExistsForOriginal(ctx, originalTransactionID)
}

type fakeBankStore struct {
	nextRowID        int64
	rows             []models.BankStatementEntry
	failUpdateStatus error
}

func bankTripleKey(date time.Time, description string, amount int64) string {
	return fmt.Sprintf("%s|%s|%d", date.Format("2006-01-02"), description, amount)
}

func (s *fakeBankStore) InsertIgnoreDuplicate(_ context.Context, _ store.Execer, input store.BankEntryInput) (bool, error) {
	key := bankTripleKey(input.Date, input.Description, input.Amount)
	for _, row := range s.rows {
		if bankTripleKey(row.Date, row.Description, row.Amount) == key {
			return false, nil
		}
	}
	s.nextRowID++
	s.rows = append(s.rows, models.BankStatementEntry{
		ID:                   s.nextRowID,
		Date:                 input.Date,
		Description:          input.Description,
		Amount:               input.Amount,
		Balance:              input.Balance,
		ReferenceNumber:      input.ReferenceNumber,
		ReconciliationStatus: models.StatusUnreconciled,
	})
	return true, nil
}

func (s *fakeBankStore) ListAll(_ context.Context) ([]models.BankStatementEntry, error) {
	return append([]models.BankStatementEntry(nil), s.rows...), nil
}

func (s *fakeBankStore) ListByDateRange(_ context.Context, start, end time.Time) ([]models.BankStatementEntry, error) {
	var rows []models.BankStatementEntry
	for _, row := range s.rows {
		if !row.Date.Before(start) && !row.Date.After(end) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *fakeBankStore) GetByID(_ context.Context, id int64) (models.BankStatementEntry, error) {
	for _, row := range s.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return models.BankStatementEntry{}, sql.ErrNoRows
}

func (s *fakeBankStore) GetForUpdate(ctx context.Context, _ store.Getter, id int64) (models.BankStatementEntry, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeBankStore) UpdateStatus(_ context.Context, _ store.Execer, id int64, status string, matchedLedgerID *int64) error {
	if s.failUpdateStatus != nil {
		return s.failUpdateStatus
	}
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].ReconciliationStatus = status
			s.rows[i].MatchedLedgerID = matchedLedgerID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *fakeBankStore) CountByStatus(_ context.Context, start, end time.Time) (map[string]int, error) {
	counts := map[string]int{}
	for _, row := range s.rows {
		if !row.Date.Before(start) && !row.Date.After(end) {
			counts[row.ReconciliationStatus]++
		}
	}
	return counts, nil
}

type fakeHistoryStore struct {
	notes []string
}

func (s *fakeHistoryStore) Append(_ context.Context, _ store.Execer, _, _, notes string) error {
	s.notes = append(s.notes, notes)
	return nil
}

func (s *fakeHistoryStore) List(_ context.Context, _, _ int) ([]models.ReconciliationHistory, error) {
	rows := make([]models.ReconciliationHistory, 0, len(s.notes))
	for _, notes := range s.notes {
		rows = append(rows, models.ReconciliationHistory{Notes: notes})
	}
	return rows, nil
}

type fakeAuditStore struct {
	actions []string
}

func (s *fakeAuditStore) Log(_ context.Context, _ store.Execer, _, action, _, _ string, _, _ *string) error {
	s.actions = append(s.actions, action)
	return nil
}

type fakeHub struct {
	events []websocket.Event
}

func (h *fakeHub) Broadcast(event websocket.Event) {
	h.events = append(h.events, event)
}
