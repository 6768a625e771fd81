package store

import (
	"context"

	"societyledger/internal/models"
)

// HistoryStore owns the append-only reconciliation_history table.
type HistoryStore struct {
	db DB
}

func NewHistoryStore(db DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Append(ctx context.Context, tx Execer, id, username, notes string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO reconciliation_history (id, username, notes)
		VALUES ($1, $2, $3)
	`, id, username, notes)
	return err
}

func (s *HistoryStore) List(ctx context.Context, limit, offset int) ([]models.ReconciliationHistory, error) {
	var rows []models.ReconciliationHistory
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, notes, created_at
		FROM reconciliation_history
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return rows, err
}
