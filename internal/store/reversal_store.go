package store

import (
	"context"
	"time"

	"societyledger/internal/models"
)

// ReversalStore owns the transaction_reversals table. The unique index
// on original_transaction_id is the hard backstop for "at most one
// reversal per original"; callers map its violation to a typed error.
type ReversalStore struct {
	db DB
}

func NewReversalStore(db DB) *ReversalStore {
	return &ReversalStore{db: db}
}

type ReversalInput struct {
	OriginalTransactionID string
	ReversalTransactionID string
	Reason                string
	Remarks               string
	ReversedBy            string
	ReversedAt            time.Time
}

func (s *ReversalStore) Create(ctx context.Context, tx Execer, input ReversalInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transaction_reversals
			(original_transaction_id, reversal_transaction_id, reason, remarks, reversed_by, reversed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.OriginalTransactionID, input.ReversalTransactionID, input.Reason,
		input.Remarks, input.ReversedBy, input.ReversedAt)
	return err
}

func (s *ReversalStore) GetByOriginal(ctx context.Context, originalTransactionID string) (models.TransactionReversal, error) {
	var row models.TransactionReversal
	err := s.db.GetContext(ctx, &row, `
		SELECT id, original_transaction_id, reversal_transaction_id, reason, remarks, reversed_by, reversed_at
		FROM transaction_reversals
		WHERE original_transaction_id = $1
	`, originalTransactionID)
	return row, err
}

func (s *ReversalStore) ExistsForOriginal(ctx context.Context, originalTransactionID string) (bool, error) {
	return s.existsForOriginal(ctx, s.db, originalTransactionID)
}

// ExistsForOriginalTx is the in-transaction variant used by the delete
// guard and the reversal precondition check.
func (s *ReversalStore) ExistsForOriginalTx(ctx context.Context, tx Getter, originalTransactionID string) (bool, error) {
	return s.existsForOriginal(ctx, tx, originalTransactionID)
}

func (s *ReversalStore) existsForOriginal(ctx context.Context, q Getter, originalTransactionID string) (bool, error) {
	var exists bool
	err := q.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM transaction_reversals WHERE original_transaction_id = $1)
	`, originalTransactionID)
	return exists, err
}
