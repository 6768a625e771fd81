package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestBankStoreInsertIgnoreDuplicateInserted(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (date, description, amount) DO NOTHING") {
				t.Fatalf("duplicate lines must be skipped in SQL: %s", query)
			}
			if len(args) != 5 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewBankStatementStore(stubDB{})
	inserted, err := store.InsertIgnoreDuplicate(ctx, execer, BankEntryInput{
		Date:        date("2023-01-15"),
		Description: "NEFT CR FLAT A-101",
		Amount:      50000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Fatal("expected inserted=true when a row is written")
	}
}

func TestBankStoreInsertIgnoreDuplicateSkipped(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, _ string, _ ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	store := NewBankStatementStore(stubDB{})
	inserted, err := store.InsertIgnoreDuplicate(ctx, execer, BankEntryInput{
		Date:        date("2023-01-15"),
		Description: "NEFT CR FLAT A-101",
		Amount:      50000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Fatal("expected inserted=false for a duplicate triple")
	}
}

func TestBankStoreUpdateStatusClearsLink(t *testing.T) {
	ctx := context.Background()
	var gotArgs []any
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET reconciliation_status = $1, matched_ledger_id = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}
	store := NewBankStatementStore(stubDB{})
	if err := store.UpdateStatus(ctx, execer, 9, "Unreconciled", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotArgs) != 3 || gotArgs[1] != (*int64)(nil) {
		t.Fatalf("unmatch must clear matched_ledger_id: %#v", gotArgs)
	}
}

func TestBankStoreGetForUpdateLocksRow(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, _ any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("match coordination must lock the entry: %s", query)
			}
			if len(args) != 1 || args[0] != int64(4) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	}
	store := NewBankStatementStore(stubDB{})
	if _, err := store.GetForUpdate(ctx, getter, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
