package store

import (
	"context"
	"database/sql"
	"strings"
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

func TestLedgerStoreInsertReturnsID(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "INSERT INTO ledger_transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "RETURNING id") {
				t.Fatalf("insert must return the surrogate id: %s", query)
			}
			if len(args) != 11 || args[0] != "TXN-001" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 42
			return nil
		},
	}
	store := NewLedgerStore(stubDB{})
	id, err := store.Insert(ctx, getter, LedgerTransactionInput{
		TransactionID:   "TXN-001",
		Date:            date("2023-01-15"),
		TransactionType: models.TypePayment,
		Credit:          50000,
		Balance:         50000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}
}

func TestLedgerStoreNextSequence(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "nextval('ledger_txn_seq')") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int64) = 7
			return nil
		},
	}
	store := NewLedgerStore(stubDB{})
	seq, err := store.NextSequence(ctx, getter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 7 {
		t.Fatalf("unexpected sequence: %d", seq)
	}
}

func TestLedgerStoreLastBalanceEmptyLedger(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "ORDER BY id DESC LIMIT 1") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int64) = 0
			return nil
		},
	}
	store := NewLedgerStore(stubDB{})
	balance, err := store.LastBalance(ctx, getter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Fatalf("unexpected balance: %d", balance)
	}
}

func TestLedgerStoreListAllOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "ORDER BY date ASC, id ASC") {
				t.Fatalf("listing must order by (date, id): %s", query)
			}
			*dest.(*[]models.LedgerTransaction) = []models.LedgerTransaction{{ID: 1}}
			return nil
		},
	})
	rows, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestLedgerStoreListByDateRange(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE date >= $1 AND date <= $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "ORDER BY date ASC, id ASC") {
				t.Fatalf("listing must order by (date, id): %s", query)
			}
			if len(args) != 2 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.LedgerTransaction) = nil
			return nil
		},
	})
	if _, err := store.ListByDateRange(ctx, date("2023-01-01"), date("2023-01-31")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedgerStoreListBalancesForUpdateLocksRows(t *testing.T) {
	ctx := context.Background()
	called := false
	selecter := stubDB{
		selectFn: func(_ context.Context, dest any, query string, _ ...any) error {
			called = true
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("recalculation scan must lock rows: %s", query)
			}
			if !strings.Contains(query, "ORDER BY date ASC, id ASC") {
				t.Fatalf("recalculation scan must order by (date, id): %s", query)
			}
			*dest.(*[]BalanceRow) = []BalanceRow{{ID: 1, Credit: 100}}
			return nil
		},
	}
	store := NewLedgerStore(stubDB{})
	rows, err := store.ListBalancesForUpdate(ctx, selecter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || len(rows) != 1 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestLedgerStoreUpdateBalance(t *testing.T) {
	ctx := context.Background()
	var gotQuery string
	var gotArgs []any
	store := NewLedgerStore(stubDB{})
	err := store.UpdateBalance(ctx, stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			gotQuery = query
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}, 3, 30000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "SET balance = $1") {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
	if len(gotArgs) != 2 || gotArgs[0] != int64(30000) || gotArgs[1] != int64(3) {
		t.Fatalf("unexpected args: %#v", gotArgs)
	}
}

func TestLedgerStoreCountByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "GROUP BY reconciliation_status") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]statusCount) = []statusCount{
				{Status: models.StatusUnreconciled, Count: 3},
				{Status: models.StatusReconciled, Count: 2},
			}
			return nil
		},
	})
	counts, err := store.CountByStatus(ctx, date("2023-01-01"), date("2023-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[models.StatusUnreconciled] != 3 || counts[models.StatusReconciled] != 2 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}
