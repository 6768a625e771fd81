package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"societyledger/internal/models"
)

func newReversalFixture() (*ReversalService, *LedgerService, *fakeLedgerStore, *fakeReversalStore) {
	ledgerStore := &fakeLedgerStore{}
	reversalStore := newFakeReversalStore()
	auditStore := &fakeAuditStore{}
	hub := &fakeHub{}
	txRunner := &fakeTxRunner{}
	ledger := NewLedgerService(txRunner, ledgerStore, reversalStore, auditStore, hub)
	reversal := NewReversalService(txRunner, ledger, ledgerStore, reversalStore, auditStore, hub)
	reversal.now = func() time.Time { return date("2023-02-01") }
	return reversal, ledger, ledgerStore, reversalStore
}

func TestReverseTransactionAppendsOffsettingEntry(t *testing.T) {
	ctx := context.Background()
	reversal, ledger, ledgerStore, _ := newReversalFixture()

	if _, err := ledger.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		FlatNo:          strPtr("A-101"),
		TransactionType: models.TypePayment,
		Category:        "Maintenance",
		Description:     "January maintenance",
		CreditMinor:     50000,
		PaymentMode:     "NEFT",
		EnteredBy:       "admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reversalID, err := reversal.ReverseTransaction(ctx, "TXN-001", models.ReasonDuplicateEntry, "posted twice", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reversalID != "TXN-002" {
		t.Fatalf("unexpected reversal id: %s", reversalID)
	}

	original := ledgerStore.rows[0]
	offset := ledgerStore.rows[1]
	if original.Description != "January maintenance" || original.Credit != 50000 {
		t.Fatalf("original must not be mutated: %+v", original)
	}
	if offset.Debit != original.Credit || offset.Credit != original.Debit {
		t.Fatalf("offset must swap debit/credit: %+v", offset)
	}
	if offset.TransactionType != models.TypePaymentReversal {
		t.Fatalf("unexpected reversal type: %s", offset.TransactionType)
	}
	if !offset.Date.Equal(date("2023-02-01")) {
		t.Fatalf("reversal must be dated at reversal time, got %s", offset.Date)
	}
	if !strings.HasPrefix(offset.Description, "REVERSAL: January maintenance") ||
		!strings.Contains(offset.Description, "posted twice") {
		t.Fatalf("unexpected reversal description: %s", offset.Description)
	}
	if offset.Balance != 0 {
		t.Fatalf("balance must return to its pre-original level, got %d", offset.Balance)
	}
}

func TestReverseTransactionExpenseSwapsSides(t *testing.T) {
	ctx := context.Background()
	reversal, ledger, ledgerStore, _ := newReversalFixture()

	if _, err := ledger.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		TransactionType: models.TypeExpense,
		DebitMinor:      20000,
		EnteredBy:       "admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := reversal.ReverseTransaction(ctx, "TXN-001", models.ReasonWrongAmount, "", "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	offset := ledgerStore.rows[1]
	if offset.Credit != 20000 || offset.Debit != 0 {
		t.Fatalf("expense reversal must credit the amount back: %+v", offset)
	}
	if offset.TransactionType != models.TypeExpenseReversal {
		t.Fatalf("unexpected reversal type: %s", offset.TransactionType)
	}
}

func TestReverseTransactionAtMostOnce(t *testing.T) {
	ctx := context.Background()
	reversal, ledger, ledgerStore, _ := newReversalFixture()

	if _, err := ledger.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		TransactionType: models.TypePayment,
		CreditMinor:     50000,
		EnteredBy:       "admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := reversal.ReverseTransaction(ctx, "TXN-001", models.ReasonOther, "", "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := reversal.ReverseTransaction(ctx, "TXN-001", models.ReasonOther, "", "admin")
	if !errors.Is(err, ErrAlreadyReversed) {
		t.Fatalf("expected ErrAlreadyReversed, got %v", err)
	}
	if len(ledgerStore.rows) != 2 {
		t.Fatalf("second attempt must not append a transaction, got %d rows", len(ledgerStore.rows))
	}
}

func TestReverseTransactionValidation(t *testing.T) {
	ctx := context.Background()
	reversal, _, _, _ := newReversalFixture()

	if _, err := reversal.ReverseTransaction(ctx, "TXN-001", "Because", "", "admin"); !errors.Is(err, ErrInvalidReason) {
		t.Fatalf("expected ErrInvalidReason, got %v", err)
	}
	if _, err := reversal.ReverseTransaction(ctx, "TXN-404", models.ReasonOther, "", "admin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReversal(t *testing.T) {
	ctx := context.Background()
	reversal, ledger, _, _ := newReversalFixture()

	if _, err := ledger.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		TransactionType: models.TypePayment,
		CreditMinor:     50000,
		EnteredBy:       "admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reversal.ReverseTransaction(ctx, "TXN-001", models.ReasonWrongPeriod, "", "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, err := reversal.GetReversal(ctx, "TXN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ReversalTransactionID != "TXN-002" || row.Reason != models.ReasonWrongPeriod {
		t.Fatalf("unexpected reversal record: %+v", row)
	}

	if _, err := reversal.GetReversal(ctx, "TXN-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
