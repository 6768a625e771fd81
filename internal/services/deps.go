package services

import (
	"context"
	"time"

	"societyledger/internal/models"
	"societyledger/internal/store"
	"societyledger/internal/websocket"
)

// Store interfaces are declared here, on the consumer side, so the
// services can be exercised against stubs.

type LedgerStore interface {
	NextSequence(ctx context.Context, tx store.Getter) (int64, error)
	Insert(ctx context.Context, tx store.Getter, input store.LedgerTransactionInput) (int64, error)
	LastBalance(ctx context.Context, tx store.Getter) (int64, error)
	ListAll(ctx context.Context) ([]models.LedgerTransaction, error)
	ListByFlat(ctx context.Context, flatNo string) ([]models.LedgerTransaction, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.LedgerTransaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (models.LedgerTransaction, error)
	GetByTransactionIDForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.LedgerTransaction, error)
	GetForUpdate(ctx context.Context, tx store.Getter, id int64) (models.LedgerTransaction, error)
	ListBalancesForUpdate(ctx context.Context, tx store.Selecter) ([]store.BalanceRow, error)
	UpdateBalance(ctx context.Context, tx store.Execer, id, balance int64) error
	UpdateReconciliationStatus(ctx context.Context, tx store.Execer, id int64, status string) error
	Delete(ctx context.Context, tx store.Execer, id int64) error
	CountByStatus(ctx context.Context, start, end time.Time) (map[string]int, error)
	TotalsByDateRange(ctx context.Context, start, end time.Time) (store.WindowTotals, error)
	NetThrough(ctx context.Context, end time.Time) (int64, error)
}

type ReversalStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ReversalInput) error
	GetByOriginal(ctx context.Context, originalTransactionID string) (models.TransactionReversal, error)
	ExistsForOriginal(ctx context.Context, originalTransactionID string) (bool, error)
	ExistsForOriginalTx(ctx context.Context, tx store.Getter, originalTransactionID string) (bool, error)
}

type BankStatementStore interface {
	InsertIgnoreDuplicate(ctx context.Context, tx store.Execer, input store.BankEntryInput) (bool, error)
	ListAll(ctx context.Context) ([]models.BankStatementEntry, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.BankStatementEntry, error)
	GetByID(ctx context.Context, id int64) (models.BankStatementEntry, error)
	GetForUpdate(ctx context.Context, tx store.Getter, id int64) (models.BankStatementEntry, error)
	UpdateStatus(ctx context.Context, tx store.Execer, id int64, status string, matchedLedgerID *int64) error
	CountByStatus(ctx context.Context, start, end time.Time) (map[string]int, error)
}

type HistoryStore interface {
	Append(ctx context.Context, tx store.Execer, id, username, notes string) error
	List(ctx context.Context, limit, offset int) ([]models.ReconciliationHistory, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actingUser, action, entityType, entityID string, oldData, newData *string) error
}

// EventHub receives a notification after each committed state change.
type EventHub interface {
	Broadcast(event websocket.Event)
}
