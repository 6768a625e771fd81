package services

import "errors"

var (
	// ErrNotFound covers a missing ledger transaction or bank entry.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyReversed is returned on a second reversal attempt.
	ErrAlreadyReversed = errors.New("transaction already reversed")
	// ErrInvalidReason rejects reversal reasons outside the enumeration.
	ErrInvalidReason = errors.New("invalid reversal reason")
	// ErrHasReversal guards the deletion path: reversed transactions
	// are permanent.
	ErrHasReversal = errors.New("transaction has a reversal and cannot be deleted")
	// ErrInvalidTransactionType rejects direct posting of reversal
	// types; those are only created through the reversal path.
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	// ErrAlreadyReconciled rejects matching a side that is reconciled.
	ErrAlreadyReconciled = errors.New("already reconciled")
	// ErrNotReconciled rejects unmatching a pair that is not a match.
	ErrNotReconciled = errors.New("pair is not reconciled together")
)
