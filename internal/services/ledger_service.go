package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"societyledger/internal/db"
	"societyledger/internal/models"
	"societyledger/internal/store"
	"societyledger/internal/websocket"

	"github.com/jmoiron/sqlx"
)

// LedgerService maintains the append-mostly general ledger: sequential
// TXN ids, running balances, and the guarded deletion path. Reversals
// live in ReversalService; this service only answers whether one is
// possible.
type LedgerService struct {
	txRunner      db.TxRunner
	ledgerStore   LedgerStore
	reversalStore ReversalStore
	auditStore    AuditStore
	hub           EventHub
}

func NewLedgerService(txRunner db.TxRunner, ledgerStore LedgerStore, reversalStore ReversalStore, auditStore AuditStore, hub EventHub) *LedgerService {
	return &LedgerService{
		txRunner:      txRunner,
		ledgerStore:   ledgerStore,
		reversalStore: reversalStore,
		auditStore:    auditStore,
		hub:           hub,
	}
}

type AddTransactionRequest struct {
	Date            time.Time
	FlatNo          *string
	TransactionType string
	Category        string
	Description     string
	DebitMinor      int64
	CreditMinor     int64
	PaymentMode     string
	EnteredBy       string
}

// AddTransaction posts one ledger entry. The TXN id comes from a
// database sequence and the running balance extends the last stored
// balance, both read inside the same transaction as the insert.
func (s *LedgerService) AddTransaction(ctx context.Context, req AddTransactionRequest) (string, error) {
	if req.TransactionType != models.TypePayment && req.TransactionType != models.TypeExpense {
		return "", ErrInvalidTransactionType
	}
	if req.DebitMinor < 0 || req.CreditMinor < 0 {
		return "", fmt.Errorf("add transaction: %w", errors.New("negative amount"))
	}
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		id, err := s.insertTransaction(ctx, tx, store.LedgerTransactionInput{
			Date:            req.Date,
			FlatNo:          req.FlatNo,
			TransactionType: req.TransactionType,
			Category:        req.Category,
			Description:     req.Description,
			Debit:           req.DebitMinor,
			Credit:          req.CreditMinor,
			PaymentMode:     req.PaymentMode,
			EnteredBy:       req.EnteredBy,
		})
		if err != nil {
			return err
		}
		transactionID = id.TransactionID
		newData := mustJSON(map[string]any{
			"transaction_id": id.TransactionID,
			"debit":          req.DebitMinor,
			"credit":         req.CreditMinor,
			"balance":        id.Balance,
		})
		return s.auditStore.Log(ctx, tx, req.EnteredBy, "add_transaction", "ledger_transaction", id.TransactionID, nil, &newData)
	})
	if err != nil {
		return "", err
	}
	s.hub.Broadcast(websocket.Event{Type: websocket.EventTransactionAdded, Entity: "ledger_transaction", ID: transactionID})
	return transactionID, nil
}

type insertedTransaction struct {
	ID            int64
	TransactionID string
	Balance       int64
}

// insertTransaction is shared between posting and reversal: draw the
// next sequence value, extend the running balance, insert.
func (s *LedgerService) insertTransaction(ctx context.Context, tx *sqlx.Tx, input store.LedgerTransactionInput) (insertedTransaction, error) {
	seq, err := s.ledgerStore.NextSequence(ctx, tx)
	if err != nil {
		return insertedTransaction{}, fmt.Errorf("next transaction sequence: %w", err)
	}
	input.TransactionID = FormatTransactionID(seq)
	last, err := s.ledgerStore.LastBalance(ctx, tx)
	if err != nil {
		return insertedTransaction{}, fmt.Errorf("read last balance: %w", err)
	}
	input.Balance = last + input.Credit - input.Debit
	id, err := s.ledgerStore.Insert(ctx, tx, input)
	if err != nil {
		return insertedTransaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return insertedTransaction{ID: id, TransactionID: input.TransactionID, Balance: input.Balance}, nil
}

// FormatTransactionID renders a sequence value as TXN-NNN, zero-padded
// to three digits and growing as needed. The format is referenced by
// reversal records and reports and must stay stable.
func FormatTransactionID(seq int64) string {
	return fmt.Sprintf("TXN-%03d", seq)
}

func (s *LedgerService) GetAll(ctx context.Context) ([]models.LedgerTransaction, error) {
	return s.ledgerStore.ListAll(ctx)
}

func (s *LedgerService) GetByFlat(ctx context.Context, flatNo string) ([]models.LedgerTransaction, error) {
	return s.ledgerStore.ListByFlat(ctx, flatNo)
}

func (s *LedgerService) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.LedgerTransaction, error) {
	return s.ledgerStore.ListByDateRange(ctx, start, end)
}

// RecalculateBalances rescans every transaction in (date, id) order and
// rewrites balances as a running sum from zero. Idempotent; the rows
// stay locked for the whole scan so readers never see a torn state.
func (s *LedgerService) RecalculateBalances(ctx context.Context) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.recalculateBalances(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(websocket.Event{Type: websocket.EventBalancesRecalculated})
	return nil
}

func (s *LedgerService) recalculateBalances(ctx context.Context, tx *sqlx.Tx) (int, error) {
	rows, err := s.ledgerStore.ListBalancesForUpdate(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("scan transactions: %w", err)
	}
	updated := 0
	var running int64
	for _, row := range rows {
		running += row.Credit - row.Debit
		if row.Balance == running {
			continue
		}
		if err := s.ledgerStore.UpdateBalance(ctx, tx, row.ID, running); err != nil {
			return 0, fmt.Errorf("rewrite balance for id %d: %w", row.ID, err)
		}
		updated++
	}
	return updated, nil
}

// CanReverse reports whether a transaction may be reversed and, when it
// may not, a caller-facing reason.
func (s *LedgerService) CanReverse(ctx context.Context, transactionID string) (bool, string, error) {
	_, err := s.ledgerStore.GetByTransactionID(ctx, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, "transaction not found", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("load transaction: %w", err)
	}
	reversed, err := s.reversalStore.ExistsForOriginal(ctx, transactionID)
	if err != nil {
		return false, "", fmt.Errorf("check reversal: %w", err)
	}
	if reversed {
		return false, "transaction already reversed", nil
	}
	return true, "", nil
}

// DeleteTransaction removes a not-yet-reversed entry and rewrites every
// balance in the same transaction. This path is for draft or erroneous
// entries only; posted data is corrected by reversal.
func (s *LedgerService) DeleteTransaction(ctx context.Context, transactionID, actingUser string) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.ledgerStore.GetByTransactionIDForUpdate(ctx, tx, transactionID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}
		reversed, err := s.reversalStore.ExistsForOriginalTx(ctx, tx, transactionID)
		if err != nil {
			return fmt.Errorf("check reversal: %w", err)
		}
		if reversed {
			return ErrHasReversal
		}
		if err := s.ledgerStore.Delete(ctx, tx, row.ID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if _, err := s.recalculateBalances(ctx, tx); err != nil {
			return err
		}
		oldData := mustJSON(map[string]any{
			"transaction_id": row.TransactionID,
			"debit":          row.Debit,
			"credit":         row.Credit,
			"description":    row.Description,
		})
		return s.auditStore.Log(ctx, tx, actingUser, "delete_transaction", "ledger_transaction", transactionID, &oldData, nil)
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(websocket.Event{Type: websocket.EventTransactionDeleted, Entity: "ledger_transaction", ID: transactionID})
	return nil
}

type LedgerSummary struct {
	TotalCreditMinor int64 `json:"total_credit_minor"`
	TotalDebitMinor  int64 `json:"total_debit_minor"`
	ClosingBalance   int64 `json:"closing_balance_minor"`
}

func (s *LedgerService) GetSummary(ctx context.Context, start, end time.Time) (LedgerSummary, error) {
	totals, err := s.ledgerStore.TotalsByDateRange(ctx, start, end)
	if err != nil {
		return LedgerSummary{}, fmt.Errorf("window totals: %w", err)
	}
	closing, err := s.ledgerStore.NetThrough(ctx, end)
	if err != nil {
		return LedgerSummary{}, fmt.Errorf("closing balance: %w", err)
	}
	return LedgerSummary{
		TotalCreditMinor: totals.TotalCredit,
		TotalDebitMinor:  totals.TotalDebit,
		ClosingBalance:   closing,
	}, nil
}

func mustJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}
