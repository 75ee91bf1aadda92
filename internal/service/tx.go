package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DukeRupert/relance/internal/repository"
)

// TxRunner executes fn inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type TxRunner func(ctx context.Context, fn func(q repository.Querier) error) error

// NewTxRunner returns a TxRunner backed by db.
func NewTxRunner(db *sql.DB, queries *repository.Queries) TxRunner {
	return func(ctx context.Context, fn func(q repository.Querier) error) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(queries.WithTx(tx)); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}
}
