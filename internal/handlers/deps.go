package handlers

import (
	"context"
	"time"

	"societyledger/internal/matching"
	"societyledger/internal/models"
	"societyledger/internal/services"
)

type LedgerService interface {
	AddTransaction(ctx context.Context, req services.AddTransactionRequest) (string, error)
	GetAll(ctx context.Context) ([]models.LedgerTransaction, error)
	GetByFlat(ctx context.Context, flatNo string) ([]models.LedgerTransaction, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]models.LedgerTransaction, error)
	RecalculateBalances(ctx context.Context) error
	CanReverse(ctx context.Context, transactionID string) (bool, string, error)
	DeleteTransaction(ctx context.Context, transactionID, actingUser string) error
	GetSummary(ctx context.Context, start, end time.Time) (services.LedgerSummary, error)
}

type ReversalService interface {
	ReverseTransaction(ctx context.Context, originalTransactionID, reason, remarks, reversedBy string) (string, error)
	GetReversal(ctx context.Context, originalTransactionID string) (models.TransactionReversal, error)
}

type StatementService interface {
	ImportEntries(ctx context.Context, records []services.BankEntryRecord, importedBy string) (int, error)
	GetAll(ctx context.Context) ([]models.BankStatementEntry, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]models.BankStatementEntry, error)
}

type ReconciliationService interface {
	FindMatches(ctx context.Context, start, end time.Time, tol matching.Tolerances) ([]models.ReconciliationCandidate, error)
	SuggestMatches(ctx context.Context, start, end time.Time, maxSuggestions int) ([]models.ReconciliationCandidate, error)
	AutoMatch(ctx context.Context, start, end time.Time, minConfidence float64, actingUser string) ([]models.ReconciliationCandidate, error)
	MarkMatched(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error
	Unmatch(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error
	GetSummary(ctx context.Context, start, end time.Time) (services.ReconciliationSummary, error)
	GetHistory(ctx context.Context, limit, offset int) ([]models.ReconciliationHistory, error)
}

type AuditReader interface {
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}
