package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"societyledger/internal/auth"
	"societyledger/internal/config"
	"societyledger/internal/matching"
	"societyledger/internal/middleware"
	"societyledger/internal/models"
	"societyledger/internal/services"
	"societyledger/internal/websocket"

	"github.com/go-chi/chi/v5"
)

type stubLedgerService struct {
	addFn         func(ctx context.Context, req services.AddTransactionRequest) (string, error)
	getAllFn      func(ctx context.Context) ([]models.LedgerTransaction, error)
	getByFlatFn   func(ctx context.Context, flatNo string) ([]models.LedgerTransaction, error)
	getByRangeFn  func(ctx context.Context, start, end time.Time) ([]models.LedgerTransaction, error)
	recalculateFn func(ctx context.Context) error
	canReverseFn  func(ctx context.Context, transactionID string) (bool, string, error)
	deleteFn      func(ctx context.Context, transactionID, actingUser string) error
	summaryFn     func(ctx context.Context, start, end time.Time) (services.LedgerSummary, error)
}

func (s stubLedgerService) AddTransaction(ctx context.Context, req services.AddTransactionRequest) (string, error) {
	if s.addFn == nil {
		return "TXN-001", nil
	}
	return s.addFn(ctx, req)
}

func (s stubLedgerService) GetAll(ctx context.Context) ([]models.LedgerTransaction, error) {
	if s.getAllFn == nil {
		return nil, nil
	}
	return s.getAllFn(ctx)
}

func (s stubLedgerService) GetByFlat(ctx context.Context, flatNo string) ([]models.LedgerTransaction, error) {
	if s.getByFlatFn == nil {
		return nil, nil
	}
	return s.getByFlatFn(ctx, flatNo)
}

func (s stubLedgerService) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.LedgerTransaction, error) {
	if s.getByRangeFn == nil {
		return nil, nil
	}
	return s.getByRangeFn(ctx, start, end)
}

func (s stubLedgerService) RecalculateBalances(ctx context.Context) error {
	if s.recalculateFn == nil {
		return nil
	}
	return s.recalculateFn(ctx)
}

func (s stubLedgerService) CanReverse(ctx context.Context, transactionID string) (bool, string, error) {
	if s.canReverseFn == nil {
		return true, "", nil
	}
	return s.canReverseFn(ctx, transactionID)
}

func (s stubLedgerService) DeleteTransaction(ctx context.Context, transactionID, actingUser string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, transactionID, actingUser)
}

func (s stubLedgerService) GetSummary(ctx context.Context, start, end time.Time) (services.LedgerSummary, error) {
	if s.summaryFn == nil {
		return services.LedgerSummary{}, nil
	}
	return s.summaryFn(ctx, start, end)
}

type stubReversalService struct {
	reverseFn func(ctx context.Context, originalTransactionID, reason, remarks, reversedBy string) (string, error)
	getFn     func(ctx context.Context, originalTransactionID string) (models.TransactionReversal, error)
}

func (s stubReversalService) ReverseTransaction(ctx context.Context, originalTransactionID, reason, remarks, reversedBy string) (string, error) {
	if s.reverseFn == nil {
		return "TXN-002", nil
	}
	return s.reverseFn(ctx, originalTransactionID, reason, remarks, reversedBy)
}

func (s stubReversalService) GetReversal(ctx context.Context, originalTransactionID string) (models.TransactionReversal, error) {
	if s.getFn == nil {
		return models.TransactionReversal{}, nil
	}
	return s.getFn(ctx, originalTransactionID)
}

type stubStatementService struct {
	importFn   func(ctx context.Context, records []services.BankEntryRecord, importedBy string) (int, error)
	getAllFn   func(ctx context.Context) ([]models.BankStatementEntry, error)
	getRangeFn func(ctx context.Context, start, end time.Time) ([]models.BankStatementEntry, error)
}

func (s stubStatementService) ImportEntries(ctx context.Context, records []services.BankEntryRecord, importedBy string) (int, error) {
	if s.importFn == nil {
		return len(records), nil
	}
	return s.importFn(ctx, records, importedBy)
}

func (s stubStatementService) GetAll(ctx context.Context) ([]models.BankStatementEntry, error) {
	if s.getAllFn == nil {
		return nil, nil
	}
	return s.getAllFn(ctx)
}

func (s stubStatementService) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.BankStatementEntry, error) {
	if s.getRangeFn == nil {
		return nil, nil
	}
	return s.getRangeFn(ctx, start, end)
}

type stubReconciliationService struct {
	findFn      func(ctx context.Context, start, end time.Time, tol matching.Tolerances) ([]models.ReconciliationCandidate, error)
	suggestFn   func(ctx context.Context, start, end time.Time, maxSuggestions int) ([]models.ReconciliationCandidate, error)
	autoMatchFn func(ctx context.Context, start, end time.Time, minConfidence float64, actingUser string) ([]models.ReconciliationCandidate, error)
	markFn      func(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error
	unmatchFn   func(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error
	summaryFn   func(ctx context.Context, start, end time.Time) (services.ReconciliationSummary, error)
	historyFn   func(ctx context.Context, limit, offset int) ([]models.ReconciliationHistory, error)
}

func (s stubReconciliationService) FindMatches(ctx context.Context, start, end time.Time, tol matching.Tolerances) ([]models.ReconciliationCandidate, error) {
	if s.findFn == nil {
		return nil, nil
	}
	return s.findFn(ctx, start, end, tol)
}

func (s stubReconciliationService) SuggestMatches(ctx context.Context, start, end time.Time, maxSuggestions int) ([]models.ReconciliationCandidate, error) {
	if s.suggestFn == nil {
		return nil, nil
	}
	return s.suggestFn(ctx, start, end, maxSuggestions)
}

func (s stubReconciliationService) AutoMatch(ctx context.Context, start, end time.Time, minConfidence float64, actingUser string) ([]models.ReconciliationCandidate, error) {
	if s.autoMatchFn == nil {
		return nil, nil
	}
	return s.autoMatchFn(ctx, start, end, minConfidence, actingUser)
}

func (s stubReconciliationService) MarkMatched(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error {
	if s.markFn == nil {
		return nil
	}
	return s.markFn(ctx, ledgerID, bankEntryID, actingUser)
}

func (s stubReconciliationService) Unmatch(ctx context.Context, ledgerID, bankEntryID int64, actingUser string) error {
	if s.unmatchFn == nil {
		return nil
	}
	return s.unmatchFn(ctx, ledgerID, bankEntryID, actingUser)
}

func (s stubReconciliationService) GetSummary(ctx context.Context, start, end time.Time) (services.ReconciliationSummary, error) {
	if s.summaryFn == nil {
		return services.ReconciliationSummary{}, nil
	}
	return s.summaryFn(ctx, start, end)
}

func (s stubReconciliationService) GetHistory(ctx context.Context, limit, offset int) ([]models.ReconciliationHistory, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, limit, offset)
}

type stubAuditReader struct {
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditReader) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

func newTestHandler(ledger LedgerService, reversals ReversalService, statements StatementService, reconciliation ReconciliationService, audit AuditReader) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		AllowedOrigins: "*",
	}
	return New(cfg, ledger, reversals, statements, reconciliation, audit, websocket.NewHub())
}

// serveWithAuth runs one request through the auth middleware with a
// token for the given user, the way the router wires every protected
// endpoint.
func serveWithAuth(t *testing.T, handler http.HandlerFunc, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.NewToken("secret", "admin", time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}

// serveRouted mounts the handler on a chi route so URL parameters
// resolve, then runs one authenticated request against it.
func serveRouted(t *testing.T, method, pattern string, handler http.HandlerFunc, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.NewToken("secret", "admin", time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	router := chi.NewRouter()
	router.With(middleware.Auth("secret")).Method(method, pattern, handler)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rr, req)
	return rr
}
