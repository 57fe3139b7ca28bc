package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

// Store implementa ledger.Store sobre uma transação Postgres.
// Locks de linha (FOR SHARE / FOR UPDATE) valem até o commit.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InTx abre a transação, executa fn e faz commit; qualquer erro faz rollback
func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Tx implementa ledger.Tx
type Tx struct{ tx *sql.Tx }

func lockClause(l ledger.LockMode) string {
	switch l {
	case ledger.LockShare:
		return " FOR SHARE"
	case ledger.LockUpdate:
		return " FOR UPDATE"
	}
	return ""
}

// rowScanner cobre *sql.Row e *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
