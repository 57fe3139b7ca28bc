package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Post é a única forma de alterar saldo: aplica o valor (com sinal) na carteira
// já carregada com lock, persiste e anexa o lançamento correspondente no ledger.
// Um resultado negativo é rejeitado com ErrInsufficientBalance.
func Post(ctx context.Context, tx Tx, w *Wallet, kind EntryKind, amount decimal.Decimal, ref string, now time.Time) (*Entry, error) {
	next := w.Balance.Add(amount)
	if next.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	w.Balance = next
	w.UpdatedAt = now
	if err := tx.SaveWallet(ctx, w); err != nil {
		return nil, err
	}

	e := &Entry{
		UserID:       w.UserID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: next,
		Ref:          ref,
		CreatedAt:    now,
	}
	if err := tx.AppendEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
