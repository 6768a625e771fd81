package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"societyledger/internal/models"
)

func date(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func strPtr(value string) *string {
	return &value
}

func newLedgerFixture() (*LedgerService, *fakeLedgerStore, *fakeReversalStore, *fakeAuditStore, *fakeHub) {
	ledgerStore := &fakeLedgerStore{}
	reversalStore := newFakeReversalStore()
	auditStore := &fakeAuditStore{}
	hub := &fakeHub{}
	service := NewLedgerService(&fakeTxRunner{}, ledgerStore, reversalStore, auditStore, hub)
	return service, ledgerStore, reversalStore, auditStore, hub
}

func TestAddTransactionAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	service, _, _, _, _ := newLedgerFixture()

	first, err := service.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		FlatNo:          strPtr("A-101"),
		TransactionType: models.TypePayment,
		Category:        "Maintenance",
		CreditMinor:     50000,
		EnteredBy:       "admin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-16"),
		TransactionType: models.TypeExpense,
		Category:        "Repairs",
		DebitMinor:      20000,
		EnteredBy:       "admin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "TXN-001" || second != "TXN-002" {
		t.Fatalf("unexpected transaction ids: %s, %s", first, second)
	}
}

func TestAddTransactionExtendsRunningBalance(t *testing.T) {
	ctx := context.Background()
	service, ledgerStore, _, _, _ := newLedgerFixture()

	steps := []struct {
		credit, debit, want int64
	}{
		{credit: 50000, want: 50000},
		{debit: 20000, want: 30000},
		{credit: 100000, want: 130000},
	}
	for i, step := range steps {
		txType := models.TypePayment
		if step.debit > 0 {
			txType = models.TypeExpense
		}
		if _, err := service.AddTransaction(ctx, AddTransactionRequest{
			Date:            date("2023-01-15").AddDate(0, 0, i),
			TransactionType: txType,
			CreditMinor:     step.credit,
			DebitMinor:      step.debit,
			EnteredBy:       "admin",
		}); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if got := ledgerStore.rows[i].Balance; got != step.want {
			t.Fatalf("step %d: balance = %d, want %d", i, got, step.want)
		}
	}
}

func TestAddTransactionRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	service, ledgerStore, _, _, hub := newLedgerFixture()

	_, err := service.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		TransactionType: "Transfer",
		CreditMinor:     100,
		EnteredBy:       "admin",
	})
	if !errors.Is(err, ErrInvalidTransactionType) {
		t.Fatalf("expected ErrInvalidTransactionType, got %v", err)
	}
	if len(ledgerStore.rows) != 0 || len(hub.events) != 0 {
		t.Fatal("nothing may be written for a rejected type")
	}
}

func TestFormatTransactionID(t *testing.T) {
	cases := map[int64]string{
		1:    "TXN-001",
		42:   "TXN-042",
		999:  "TXN-999",
		1000: "TXN-1000",
	}
	for seq, want := range cases {
		if got := FormatTransactionID(seq); got != want {
			t.Fatalf("FormatTransactionID(%d) = %s, want %s", seq, got, want)
		}
	}
}

func TestRecalculateBalancesRewritesCorruptedRows(t *testing.T) {
	ctx := context.Background()
	service, ledgerStore, _, _, _ := newLedgerFixture()

	mustAdd := func(credit, debit int64) {
		txType := models.TypePayment
		if debit > 0 {
			txType = models.TypeExpense
		}
		if _, err := service.AddTransaction(ctx, AddTransactionRequest{
			Date:            date("2023-01-15"),
			TransactionType: txType,
			CreditMinor:     credit,
			DebitMinor:      debit,
			EnteredBy:       "admin",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	mustAdd(50000, 0)
	mustAdd(0, 20000)
	mustAdd(100000, 0)

	ledgerStore.rows[1].Balance = 999999

	if err := service.RecalculateBalances(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{50000, 30000, 130000}
	for i, balance := range want {
		if ledgerStore.rows[i].Balance != balance {
			t.Fatalf("row %d: balance = %d, want %d", i, ledgerStore.rows[i].Balance, balance)
		}
	}

	// Second run over already-correct rows changes nothing.
	if err := service.RecalculateBalances(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, balance := range want {
		if ledgerStore.rows[i].Balance != balance {
			t.Fatalf("row %d after second run: balance = %d, want %d", i, ledgerStore.rows[i].Balance, balance)
		}
	}
}

func TestCanReverse(t *testing.T) {
	ctx := context.Background()
	service, _, reversalStore, _, _ := newLedgerFixture()

	if _, err := service.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		TransactionType: models.TypePayment,
		CreditMinor:     50000,
		EnteredBy:       "admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, reason, err := service.CanReverse(ctx, "TXN-001")
	if err != nil || !ok || reason != "" {
		t.Fatalf("fresh transaction must be reversible: ok=%v reason=%q err=%v", ok, reason, err)
	}

	ok, reason, err = service.CanReverse(ctx, "TXN-999")
	if err != nil || ok || reason != "transaction not found" {
		t.Fatalf("unknown id: ok=%v reason=%q err=%v", ok, reason, err)
	}

	reversalStore.byOriginal["TXN-001"] = models.TransactionReversal{OriginalTransactionID: "TXN-001"}
	ok, reason, err = service.CanReverse(ctx, "TXN-001")
	if err != nil || ok || reason != "transaction already reversed" {
		t.Fatalf("reversed transaction: ok=%v reason=%q err=%v", ok, reason, err)
	}
}

func TestDeleteTransactionRewritesBalances(t *testing.T) {
	ctx := context.Background()
	service, ledgerStore, _, auditStore, _ := newLedgerFixture()

	for _, credit := range []int64{50000, 30000, 20000} {
		if _, err := service.AddTransaction(ctx, AddTransactionRequest{
			Date:            date("2023-01-15"),
			TransactionType: models.TypePayment,
			CreditMinor:     credit,
			EnteredBy:       "admin",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := service.DeleteTransaction(ctx, "TXN-002", "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledgerStore.rows) != 2 {
		t.Fatalf("expected 2 rows after delete, got %d", len(ledgerStore.rows))
	}
	if ledgerStore.rows[0].Balance != 50000 || ledgerStore.rows[1].Balance != 70000 {
		t.Fatalf("balances not rewritten: %d, %d", ledgerStore.rows[0].Balance, ledgerStore.rows[1].Balance)
	}
	if len(auditStore.actions) != 4 || auditStore.actions[3] != "delete_transaction" {
		t.Fatalf("unexpected audit actions: %v", auditStore.actions)
	}
}

func TestDeleteTransactionRefusesReversedEntry(t *testing.T) {
	ctx := context.Background()
	service, ledgerStore, reversalStore, _, _ := newLedgerFixture()

	if _, err := service.AddTransaction(ctx, AddTransactionRequest{
		Date:            date("2023-01-15"),
		TransactionType: models.TypePayment,
		CreditMinor:     50000,
		EnteredBy:       "admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reversalStore.byOriginal["TXN-001"] = models.TransactionReversal{OriginalTransactionID: "TXN-001"}

	err := service.DeleteTransaction(ctx, "TXN-001", "admin")
	if !errors.Is(err, ErrHasReversal) {
		t.Fatalf("expected ErrHasReversal, got %v", err)
	}
	if len(ledgerStore.rows) != 1 {
		t.Fatal("reversed transaction must not be deleted")
	}

	if err := service.DeleteTransaction(ctx, "TXN-404", "admin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	service, _, _, _, _ := newLedgerFixture()

	add := func(day string, credit, debit int64) {
		txType := models.TypePayment
		if debit > 0 {
			txType = models.TypeExpense
		}
		if _, err := service.AddTransaction(ctx, AddTransactionRequest{
			Date:            date(day),
			TransactionType: txType,
			CreditMinor:     credit,
			DebitMinor:      debit,
			EnteredBy:       "admin",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	add("2023-01-10", 50000, 0)
	add("2023-01-20", 0, 20000)
	add("2023-02-05", 100000, 0)

	summary, err := service.GetSummary(ctx, date("2023-01-01"), date("2023-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalCreditMinor != 50000 || summary.TotalDebitMinor != 20000 {
		t.Fatalf("unexpected window totals: %+v", summary)
	}
	if summary.ClosingBalance != 30000 {
		t.Fatalf("closing balance = %d, want 30000", summary.ClosingBalance)
	}
}
