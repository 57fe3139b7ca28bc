package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

const marketColumns = `id, team_a, team_b, odds_a, odds_b, tournament, start_time, status, winner, bonus_flag, created_at, updated_at`

func scanMarket(r rowScanner) (*ledger.Market, error) {
	var m ledger.Market
	var status string
	var winner sql.NullString
	if err := r.Scan(&m.ID, &m.TeamA, &m.TeamB, &m.OddsA, &m.OddsB, &m.Tournament, &m.StartTime,
		&status, &winner, &m.BonusFlag, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Status = ledger.MarketStatus(status)
	m.Winner = winner.String
	return &m, nil
}

// CreateMarket insere um novo mercado
func (t *Tx) CreateMarket(ctx context.Context, m *ledger.Market) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO markets (`+marketColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		m.ID, m.TeamA, m.TeamB, m.OddsA, m.OddsB, m.Tournament, m.StartTime,
		string(m.Status), nullString(m.Winner), m.BonusFlag, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

// Market busca um mercado pelo id, opcionalmente com lock de linha
func (t *Tx) Market(ctx context.Context, id string, lock ledger.LockMode) (*ledger.Market, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+marketColumns+` FROM markets WHERE id=$1`+lockClause(lock), id)
	m, err := scanMarket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select market: %w", err)
	}
	return m, nil
}

// Markets lista mercados pela data de início, com filtro opcional de status
func (t *Tx) Markets(ctx context.Context, f ledger.MarketFilter) ([]ledger.Market, error) {
	q := `SELECT ` + marketColumns + ` FROM markets`
	var args []any
	if f.Status != "" {
		q += ` WHERE status=$1`
		args = append(args, string(f.Status))
	}
	q += ` ORDER BY start_time, created_at`

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select markets: %w", err)
	}
	defer rows.Close()

	var out []ledger.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// SaveMarket persiste status, vencedor, bônus e odds
func (t *Tx) SaveMarket(ctx context.Context, m *ledger.Market) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE markets
		SET odds_a=$2, odds_b=$3, status=$4, winner=$5, bonus_flag=$6, updated_at=$7
		WHERE id=$1`,
		m.ID, m.OddsA, m.OddsB, string(m.Status), nullString(m.Winner), m.BonusFlag, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update market: %w", err)
	}
	return expectOne(res, ledger.ErrMarketNotFound)
}

// DeleteMarket remove apenas o mercado; apostas ficam órfãs (sem FK)
func (t *Tx) DeleteMarket(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM markets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete market: %w", err)
	}
	return expectOne(res, ledger.ErrMarketNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
