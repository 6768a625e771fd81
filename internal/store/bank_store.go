package store

import (
	"context"
	"time"

	"societyledger/internal/models"
)

// BankStatementStore owns the bank_statement_entries table. Import
// identity is the (date, description, amount) triple, enforced by a
// unique index so duplicate lines are skipped at the database level.
type BankStatementStore struct {
	db DB
}

func NewBankStatementStore(db DB) *BankStatementStore {
	return &BankStatementStore{db: db}
}

type BankEntryInput struct {
	Date            time.Time
	Description     string
	Amount          int64
	Balance         int64
	ReferenceNumber *string
}

const bankColumns = `id, date, description, amount, balance, reference_number,
       import_date, reconciliation_status, matched_ledger_id`

// InsertIgnoreDuplicate inserts one statement line unless its
// (date, description, amount) triple already exists. Reports whether a
// row was actually written.
func (s *BankStatementStore) InsertIgnoreDuplicate(ctx context.Context, tx Execer, input BankEntryInput) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO bank_statement_entries (date, description, amount, balance, reference_number)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date, description, amount) DO NOTHING
	`, input.Date, input.Description, input.Amount, input.Balance, input.ReferenceNumber)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *BankStatementStore) ListAll(ctx context.Context) ([]models.BankStatementEntry, error) {
	var rows []models.BankStatementEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+bankColumns+`
		FROM bank_statement_entries
		ORDER BY date ASC, id ASC
	`)
	return rows, err
}

func (s *BankStatementStore) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.BankStatementEntry, error) {
	var rows []models.BankStatementEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+bankColumns+`
		FROM bank_statement_entries
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC, id ASC
	`, start, end)
	return rows, err
}

func (s *BankStatementStore) GetByID(ctx context.Context, id int64) (models.BankStatementEntry, error) {
	var row models.BankStatementEntry
	err := s.db.GetContext(ctx, &row, `
		SELECT `+bankColumns+`
		FROM bank_statement_entries
		WHERE id = $1
	`, id)
	return row, err
}

func (s *BankStatementStore) GetForUpdate(ctx context.Context, tx Getter, id int64) (models.BankStatementEntry, error) {
	var row models.BankStatementEntry
	err := tx.GetContext(ctx, &row, `
		SELECT `+bankColumns+`
		FROM bank_statement_entries
		WHERE id = $1
		FOR UPDATE
	`, id)
	return row, err
}

// UpdateStatus sets the reconciliation fields. matchedLedgerID may be
// nil, which clears the link (the unmatch path).
func (s *BankStatementStore) UpdateStatus(ctx context.Context, tx Execer, id int64, status string, matchedLedgerID *int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bank_statement_entries
		SET reconciliation_status = $1, matched_ledger_id = $2
		WHERE id = $3
	`, status, matchedLedgerID, id)
	return err
}

func (s *BankStatementStore) CountByStatus(ctx context.Context, start, end time.Time) (map[string]int, error) {
	var rows []statusCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT reconciliation_status, COUNT(*) AS count
		FROM bank_statement_entries
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
