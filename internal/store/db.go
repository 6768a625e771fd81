// Package store holds the raw SQL data access for the ledger and
// bank-reconciliation tables. Each store owns exactly one table; writes
// that span tables are composed by the services under one *sqlx.Tx.
package store

import (
	"context"
	"database/sql"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

// Tx is the slice of *sqlx.Tx the stores need inside a unit of work.
type Tx interface {
	Execer
	Getter
	Selecter
}
