package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxManager runs a function inside a single database transaction. The
// settlement engine depends on the WithinTx shape only, so tests can
// substitute a pass-through.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx begins a transaction, runs fn against it and commits.
// Any error from fn rolls everything back and is returned as-is so
// sentinel checks still work at the call site.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: can't begin tx", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("%w: can't rollback tx", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: can't commit tx", err)
	}
	return nil
}
