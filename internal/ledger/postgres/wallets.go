package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

const walletColumns = `user_id, email, balance, total_wagers, total_winnings, total_deposited, total_withdrawn, active_withdrawals, is_admin, created_at, updated_at`

func scanWallet(r rowScanner) (*ledger.Wallet, error) {
	var w ledger.Wallet
	if err := r.Scan(&w.UserID, &w.Email, &w.Balance, &w.TotalWagers, &w.TotalWinnings, &w.TotalDeposited,
		&w.TotalWithdrawn, &w.ActiveWithdrawals, &w.IsAdmin, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWallet é idempotente: se a carteira já existe nada muda
func (t *Tx) CreateWallet(ctx context.Context, w *ledger.Wallet) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wallets (`+walletColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (user_id) DO NOTHING`,
		w.UserID, w.Email, w.Balance, w.TotalWagers, w.TotalWinnings, w.TotalDeposited,
		w.TotalWithdrawn, w.ActiveWithdrawals, w.IsAdmin, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (t *Tx) Wallet(ctx context.Context, userID string, lock ledger.LockMode) (*ledger.Wallet, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id=$1`+lockClause(lock), userID)
	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select wallet: %w", err)
	}
	return w, nil
}

// TopWallets alimenta o leaderboard
func (t *Tx) TopWallets(ctx context.Context, limit int) ([]ledger.Wallet, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+walletColumns+` FROM wallets
		ORDER BY balance DESC, user_id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select top wallets: %w", err)
	}
	defer rows.Close()

	var out []ledger.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (t *Tx) SaveWallet(ctx context.Context, w *ledger.Wallet) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE wallets
		SET email=$2, balance=$3, total_wagers=$4, total_winnings=$5, total_deposited=$6,
		    total_withdrawn=$7, active_withdrawals=$8, is_admin=$9, updated_at=$10
		WHERE user_id=$1`,
		w.UserID, w.Email, w.Balance, w.TotalWagers, w.TotalWinnings, w.TotalDeposited,
		w.TotalWithdrawn, w.ActiveWithdrawals, w.IsAdmin, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	return expectOne(res, ledger.ErrWalletNotFound)
}

// AppendEntry grava um lançamento no wallet_ledger e devolve o id gerado em e.ID
func (t *Tx) AppendEntry(ctx context.Context, e *ledger.Entry) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO wallet_ledger (user_id, kind, amount, balance_after, ref, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		e.UserID, string(e.Kind), e.Amount, e.BalanceAfter, e.Ref, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (t *Tx) Entries(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	q := `
		SELECT id, user_id, kind, amount, balance_after, ref, created_at
		FROM wallet_ledger WHERE user_id=$1
		ORDER BY id DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &e.Amount, &e.BalanceAfter, &e.Ref, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = ledger.EntryKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
