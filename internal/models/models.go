package models

import "time"

const (
	TypePayment         = "Payment"
	TypeExpense         = "Expense"
	TypePaymentReversal = "Payment Reversal"
	TypeExpenseReversal = "Expense Reversal"
)

const (
	StatusUnreconciled = "Unreconciled"
	StatusReconciled   = "Reconciled"
)

const (
	ReasonEnteredInError = "Entered in Error"
	ReasonDuplicateEntry = "Duplicate Entry"
	ReasonWrongAmount    = "Wrong Amount"
	ReasonWrongAccount   = "Wrong Account"
	ReasonWrongPeriod    = "Wrong Period"
	ReasonOther          = "Other"
)

// ValidReversalReason reports whether reason is one of the enumerated
// reversal reasons. Anything else is rejected before any write happens.
func ValidReversalReason(reason string) bool {
	switch reason {
	case ReasonEnteredInError, ReasonDuplicateEntry, ReasonWrongAmount,
		ReasonWrongAccount, ReasonWrongPeriod, ReasonOther:
		return true
	}
	return false
}

// ReversalType maps an original transaction type to its offsetting type.
func ReversalType(originalType string) string {
	if originalType == TypePayment {
		return TypePaymentReversal
	}
	return TypeExpenseReversal
}

// LedgerTransaction is one posted entry of the society's general ledger.
// Debit, Credit and Balance are minor units (paise). Balance is derived:
// the running sum of credit-debit over all rows ordered by (date, id).
type LedgerTransaction struct {
	ID                   int64     `db:"id" json:"id"`
	TransactionID        string    `db:"transaction_id" json:"transaction_id"`
	Date                 time.Time `db:"date" json:"date"`
	FlatNo               *string   `db:"flat_no" json:"flat_no,omitempty"`
	TransactionType      string    `db:"transaction_type" json:"transaction_type"`
	Category             string    `db:"category" json:"category"`
	Description          string    `db:"description" json:"description"`
	Debit                int64     `db:"debit" json:"debit"`
	Credit               int64     `db:"credit" json:"credit"`
	Balance              int64     `db:"balance" json:"balance"`
	PaymentMode          string    `db:"payment_mode" json:"payment_mode"`
	EnteredBy            string    `db:"entered_by" json:"entered_by"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	ReconciliationStatus string    `db:"reconciliation_status" json:"reconciliation_status"`
}

// TransactionReversal links an original transaction to the offsetting
// transaction that voided it. original_transaction_id is unique, which is
// what enforces "at most one reversal per original".
type TransactionReversal struct {
	ID                    int64     `db:"id" json:"id"`
	OriginalTransactionID string    `db:"original_transaction_id" json:"original_transaction_id"`
	ReversalTransactionID string    `db:"reversal_transaction_id" json:"reversal_transaction_id"`
	Reason                string    `db:"reason" json:"reason"`
	Remarks               string    `db:"remarks" json:"remarks"`
	ReversedBy            string    `db:"reversed_by" json:"reversed_by"`
	ReversedAt            time.Time `db:"reversed_at" json:"reversed_at"`
}

// BankStatementEntry is one imported bank-account line. Amount is signed,
// credit-positive, in minor units. Balance is whatever the bank reported
// and is informational only.
type BankStatementEntry struct {
	ID                   int64     `db:"id" json:"id"`
	Date                 time.Time `db:"date" json:"date"`
	Description          string    `db:"description" json:"description"`
	Amount               int64     `db:"amount" json:"amount"`
	Balance              int64     `db:"balance" json:"balance"`
	ReferenceNumber      *string   `db:"reference_number" json:"reference_number,omitempty"`
	ImportDate           time.Time `db:"import_date" json:"import_date"`
	ReconciliationStatus string    `db:"reconciliation_status" json:"reconciliation_status"`
	MatchedLedgerID      *int64    `db:"matched_ledger_id" json:"matched_ledger_id,omitempty"`
}

// ReconciliationHistory is an append-only record of confirmed matches,
// unmatches and import batches.
type ReconciliationHistory struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReconciliationCandidate pairs one unreconciled ledger transaction with
// one unreconciled bank entry. Transient, never persisted.
type ReconciliationCandidate struct {
	Ledger       LedgerTransaction  `json:"ledger"`
	BankEntry    BankStatementEntry `json:"bank_entry"`
	Confidence   float64            `json:"confidence"`
	DateDiffDays int                `json:"date_diff_days"`
	AmountDiff   int64              `json:"amount_diff"`
}
