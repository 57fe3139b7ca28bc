package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

const wagerColumns = `id, user_id, user_email, market_id, team_a, team_b, selection, odds, stake, status, payout, bonus_applied, placed_at, settled_at`

func scanWager(r rowScanner) (*ledger.Wager, error) {
	var w ledger.Wager
	var status string
	var settled sql.NullTime
	if err := r.Scan(&w.ID, &w.UserID, &w.UserEmail, &w.MarketID, &w.TeamA, &w.TeamB, &w.Selection,
		&w.Odds, &w.Stake, &status, &w.Payout, &w.BonusApplied, &w.PlacedAt, &settled); err != nil {
		return nil, err
	}
	w.Status = ledger.WagerStatus(status)
	if settled.Valid {
		t := settled.Time
		w.SettledAt = &t
	}
	return &w, nil
}

// CreateWager insere a aposta com o snapshot de times e odds
func (t *Tx) CreateWager(ctx context.Context, w *ledger.Wager) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wagers (`+wagerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		w.ID, w.UserID, w.UserEmail, w.MarketID, w.TeamA, w.TeamB, w.Selection,
		w.Odds, w.Stake, string(w.Status), w.Payout, w.BonusApplied, w.PlacedAt, w.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert wager: %w", err)
	}
	return nil
}

func (t *Tx) Wager(ctx context.Context, id string) (*ledger.Wager, error) {
	w, err := scanWager(t.tx.QueryRowContext(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrWagerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select wager: %w", err)
	}
	return w, nil
}

// Wagers lista apostas (mais recentes primeiro) aplicando os filtros informados
func (t *Tx) Wagers(ctx context.Context, f ledger.WagerFilter) ([]ledger.Wager, error) {
	var where []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if f.UserID != "" {
		add("user_id", f.UserID)
	}
	if f.MarketID != "" {
		add("market_id", f.MarketID)
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}

	q := `SELECT ` + wagerColumns + ` FROM wagers`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY placed_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	return t.queryWagers(ctx, q, args...)
}

// PendingWagers trava as apostas pending do mercado até o fim da transação
func (t *Tx) PendingWagers(ctx context.Context, marketID string) ([]ledger.Wager, error) {
	return t.queryWagers(ctx, `
		SELECT `+wagerColumns+` FROM wagers
		WHERE market_id=$1 AND status='pending'
		ORDER BY placed_at, id
		FOR UPDATE`, marketID)
}

func (t *Tx) queryWagers(ctx context.Context, q string, args ...any) ([]ledger.Wager, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select wagers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// SaveWager grava o resultado da liquidação
func (t *Tx) SaveWager(ctx context.Context, w *ledger.Wager) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE wagers SET status=$2, payout=$3, bonus_applied=$4, settled_at=$5
		WHERE id=$1`,
		w.ID, string(w.Status), w.Payout, w.BonusApplied, w.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("update wager: %w", err)
	}
	return expectOne(res, ledger.ErrWagerNotFound)
}
