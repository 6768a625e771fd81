package store

import (
	"context"
	"time"

	"societyledger/internal/models"
)

// LedgerStore owns the ledger_transactions table. The ordering contract
// for every listing is (date asc, id asc); reports, reconciliation and
// balance recalculation all rely on it.
type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

type LedgerTransactionInput struct {
	TransactionID   string
	Date            time.Time
	FlatNo          *string
	TransactionType string
	Category        string
	Description     string
	Debit           int64
	Credit          int64
	Balance         int64
	PaymentMode     string
	EnteredBy       string
}

const ledgerColumns = `id, transaction_id, date, flat_no, transaction_type, category,
       description, debit, credit, balance, payment_mode, entered_by, created_at,
       reconciliation_status`

// NextSequence draws the next value from the dedicated transaction-id
// sequence. A sequence, not COUNT(*)+1: counting races under concurrent
// inserts and repeats numbers after deletions.
func (s *LedgerStore) NextSequence(ctx context.Context, tx Getter) (int64, error) {
	var next int64
	err := tx.GetContext(ctx, &next, `SELECT nextval('ledger_txn_seq')`)
	return next, err
}

func (s *LedgerStore) Insert(ctx context.Context, tx Getter, input LedgerTransactionInput) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO ledger_transactions
			(transaction_id, date, flat_no, transaction_type, category, description,
			 debit, credit, balance, payment_mode, entered_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, input.TransactionID, input.Date, input.FlatNo, input.TransactionType, input.Category,
		input.Description, input.Debit, input.Credit, input.Balance, input.PaymentMode, input.EnteredBy)
	return id, err
}

// LastBalance returns the balance of the most recently inserted row, or
// 0 when the ledger is empty.
func (s *LedgerStore) LastBalance(ctx context.Context, tx Getter) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `
		SELECT COALESCE((SELECT balance FROM ledger_transactions ORDER BY id DESC LIMIT 1), 0)
	`)
	return balance, err
}

func (s *LedgerStore) ListAll(ctx context.Context) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+ledgerColumns+`
		FROM ledger_transactions
		ORDER BY date ASC, id ASC
	`)
	return rows, err
}

func (s *LedgerStore) ListByFlat(ctx context.Context, flatNo string) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+ledgerColumns+`
		FROM ledger_transactions
		WHERE flat_no = $1
		ORDER BY date ASC, id ASC
	`, flatNo)
	return rows, err
}

func (s *LedgerStore) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+ledgerColumns+`
		FROM ledger_transactions
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC, id ASC
	`, start, end)
	return rows, err
}

func (s *LedgerStore) GetByTransactionID(ctx context.Context, transactionID string) (models.LedgerTransaction, error) {
	var row models.LedgerTransaction
	err := s.db.GetContext(ctx, &row, `
		SELECT `+ledgerColumns+`
		FROM ledger_transactions
		WHERE transaction_id = $1
	`, transactionID)
	return row, err
}

// GetByTransactionIDForUpdate locks and reads one row by its TXN id
// inside tx. Reversal and deletion both start here.
func (s *LedgerStore) GetByTransactionIDForUpdate(ctx context.Context, tx Getter, transactionID string) (models.LedgerTransaction, error) {
	var row models.LedgerTransaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+ledgerColumns+`
		FROM ledger_transactions
		WHERE transaction_id = $1
		FOR UPDATE
	`, transactionID)
	return row, err
}

// GetForUpdate reads one row inside tx with a row lock, so status flips
// and deletes see a stable view.
func (s *LedgerStore) GetForUpdate(ctx context.Context, tx Getter, id int64) (models.LedgerTransaction, error) {
	var row models.LedgerTransaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+ledgerColumns+`
		FROM ledger_transactions
		WHERE id = $1
		FOR UPDATE
	`, id)
	return row, err
}

// BalanceRow is the slice of a transaction the recalculation scan needs.
type BalanceRow struct {
	ID      int64 `db:"id"`
	Debit   int64 `db:"debit"`
	Credit  int64 `db:"credit"`
	Balance int64 `db:"balance"`
}

// ListBalancesForUpdate locks and returns every row in (date, id) order
// for a full balance rewrite.
func (s *LedgerStore) ListBalancesForUpdate(ctx context.Context, tx Selecter) ([]BalanceRow, error) {
	var rows []BalanceRow
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, debit, credit, balance
		FROM ledger_transactions
		ORDER BY date ASC, id ASC
		FOR UPDATE
	`)
	return rows, err
}

func (s *LedgerStore) UpdateBalance(ctx context.Context, tx Execer, id, balance int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE ledger_transactions SET balance = $1 WHERE id = $2`, balance, id)
	return err
}

func (s *LedgerStore) UpdateReconciliationStatus(ctx context.Context, tx Execer, id int64, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE ledger_transactions SET reconciliation_status = $1 WHERE id = $2
	`, status, id)
	return err
}

func (s *LedgerStore) Delete(ctx context.Context, tx Execer, id int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, id)
	return err
}

type statusCount struct {
	Status string `db:"reconciliation_status"`
	Count  int    `db:"count"`
}

func (s *LedgerStore) CountByStatus(ctx context.Context, start, end time.Time) (map[string]int, error) {
	var rows []statusCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT reconciliation_status, COUNT(*) AS count
		FROM ledger_transactions
		WHERE date >= $1 AND date <= $2
		GROUP BY reconciliation_status
	`, start, end)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// WindowTotals holds the aggregate credits/debits over a date window.
type WindowTotals struct {
	TotalCredit int64 `db:"total_credit"`
	TotalDebit  int64 `db:"total_debit"`
}

func (s *LedgerStore) TotalsByDateRange(ctx context.Context, start, end time.Time) (WindowTotals, error) {
	var totals WindowTotals
	err := s.db.GetContext(ctx, &totals, `
		SELECT COALESCE(SUM(credit), 0) AS total_credit, COALESCE(SUM(debit), 0) AS total_debit
		FROM ledger_transactions
		WHERE date >= $1 AND date <= $2
	`, start, end)
	return totals, err
}

// NetThrough returns the running balance as of the end of a day: the
// sum of credit-debit over every row dated on or before it.
func (s *LedgerStore) NetThrough(ctx context.Context, end time.Time) (int64, error) {
	var net int64
	err := s.db.GetContext(ctx, &net, `
		SELECT COALESCE(SUM(credit - debit), 0)
		FROM ledger_transactions
		WHERE date <= $1
	`, end)
	return net, err
}
