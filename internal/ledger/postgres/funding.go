package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

const fundingColumns = `id, user_id, user_email, kind, amount, status, reference, method, details, created_at, resolved_at`

func scanFunding(r rowScanner) (*ledger.FundingRequest, error) {
	var f ledger.FundingRequest
	var kind, status, method string
	var resolved sql.NullTime
	if err := r.Scan(&f.ID, &f.UserID, &f.UserEmail, &kind, &f.Amount, &status,
		&f.Reference, &method, &f.Details, &f.CreatedAt, &resolved); err != nil {
		return nil, err
	}
	f.Kind = ledger.FundingKind(kind)
	f.Method = ledger.PayoutMethod(method)
	f.Status = ledger.FundingStatus(status)
	if resolved.Valid {
		t := resolved.Time
		f.ResolvedAt = &t
	}
	return &f, nil
}

func (t *Tx) CreateFunding(ctx context.Context, r *ledger.FundingRequest) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO funding_requests (`+fundingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		r.ID, r.UserID, r.UserEmail, string(r.Kind), r.Amount, string(r.Status),
		r.Reference, string(r.Method), r.Details, r.CreatedAt, r.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert funding request: %w", err)
	}
	return nil
}

func (t *Tx) Funding(ctx context.Context, id string, lock ledger.LockMode) (*ledger.FundingRequest, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+fundingColumns+` FROM funding_requests WHERE id=$1`+lockClause(lock), id)
	f, err := scanFunding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrFundingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select funding request: %w", err)
	}
	return f, nil
}

func (t *Tx) FundingRequests(ctx context.Context, f ledger.FundingFilter) ([]ledger.FundingRequest, error) {
	var where []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if f.UserID != "" {
		add("user_id", f.UserID)
	}
	if f.Kind != "" {
		add("kind", string(f.Kind))
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}

	q := `SELECT ` + fundingColumns + ` FROM funding_requests`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select funding requests: %w", err)
	}
	defer rows.Close()

	var out []ledger.FundingRequest
	for rows.Next() {
		r, err := scanFunding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (t *Tx) SaveFunding(ctx context.Context, r *ledger.FundingRequest) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE funding_requests SET status=$2, resolved_at=$3 WHERE id=$1`,
		r.ID, string(r.Status), r.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update funding request: %w", err)
	}
	return expectOne(res, ledger.ErrFundingNotFound)
}
