package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"societyledger/internal/db"
	"societyledger/internal/models"
	"societyledger/internal/store"
	"societyledger/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ReversalService voids posted transactions by appending an exactly
// offsetting entry. The original row is never touched; the audit trail
// stays immutable.
type ReversalService struct {
	txRunner      db.TxRunner
	ledger        *LedgerService
	ledgerStore   LedgerStore
	reversalStore ReversalStore
	auditStore    AuditStore
	hub           EventHub
	now           func() time.Time
}

func NewReversalService(txRunner db.TxRunner, ledger *LedgerService, ledgerStore LedgerStore, reversalStore ReversalStore, auditStore AuditStore, hub EventHub) *ReversalService {
	return &ReversalService{
		txRunner:      txRunner,
		ledger:        ledger,
		ledgerStore:   ledgerStore,
		reversalStore: reversalStore,
		auditStore:    auditStore,
		hub:           hub,
		now:           time.Now,
	}
}

// ReverseTransaction creates the offsetting transaction, dated today,
// with debit and credit swapped, then records the reversal link. The
// new transaction, the link and the audit row commit or roll back as
// one unit; a unique index on the original's id is the backstop against
// a concurrent second reversal.
func (s *ReversalService) ReverseTransaction(ctx context.Context, originalTransactionID, reason, remarks, reversedBy string) (string, error) {
	if !models.ValidReversalReason(reason) {
		return "", ErrInvalidReason
	}
	var reversalTransactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		original, err := s.ledgerStore.GetByTransactionIDForUpdate(ctx, tx, originalTransactionID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load original transaction: %w", err)
		}
		reversed, err := s.reversalStore.ExistsForOriginalTx(ctx, tx, originalTransactionID)
		if err != nil {
			return fmt.Errorf("check prior reversal: %w", err)
		}
		if reversed {
			return ErrAlreadyReversed
		}

		description := "REVERSAL: " + original.Description
		if remarks != "" {
			description += " - " + remarks
		}
		inserted, err := s.ledger.insertTransaction(ctx, tx, store.LedgerTransactionInput{
			Date:            s.now(),
			FlatNo:          original.FlatNo,
			TransactionType: models.ReversalType(original.TransactionType),
			Category:        original.Category,
			Description:     description,
			Debit:           original.Credit,
			Credit:          original.Debit,
			PaymentMode:     original.PaymentMode,
			EnteredBy:       reversedBy,
		})
		if err != nil {
			return err
		}
		reversalTransactionID = inserted.TransactionID

		err = s.reversalStore.Create(ctx, tx, store.ReversalInput{
			OriginalTransactionID: originalTransactionID,
			ReversalTransactionID: reversalTransactionID,
			Reason:                reason,
			Remarks:               remarks,
			ReversedBy:            reversedBy,
			ReversedAt:            s.now(),
		})
		if isUniqueViolation(err) {
			return ErrAlreadyReversed
		}
		if err != nil {
			return fmt.Errorf("record reversal: %w", err)
		}

		oldData := mustJSON(map[string]any{"transaction_id": originalTransactionID, "reconciled": original.ReconciliationStatus})
		newData := mustJSON(map[string]any{"reversal_transaction_id": reversalTransactionID, "reason": reason})
		return s.auditStore.Log(ctx, tx, reversedBy, "reverse_transaction", "ledger_transaction", originalTransactionID, &oldData, &newData)
	})
	if err != nil {
		return "", err
	}
	s.hub.Broadcast(websocket.Event{
		Type:   websocket.EventTransactionReversed,
		Entity: "ledger_transaction",
		ID:     originalTransactionID,
		Detail: reversalTransactionID,
	})
	return reversalTransactionID, nil
}

func (s *ReversalService) GetReversal(ctx context.Context, originalTransactionID string) (models.TransactionReversal, error) {
	row, err := s.reversalStore.GetByOriginal(ctx, originalTransactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TransactionReversal{}, ErrNotFound
	}
	return row, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
