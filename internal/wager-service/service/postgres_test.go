package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/ledger/postgres"
	"github.com/radieske/cricwin-ledger/internal/shared/config"
	"github.com/radieske/cricwin-ledger/internal/shared/metrics"
	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

var (
	pgMarketCols = []string{"id", "team_a", "team_b", "odds_a", "odds_b", "tournament", "start_time", "status", "winner", "bonus_flag", "created_at", "updated_at"}
	pgWalletCols = []string{"user_id", "email", "balance", "total_wagers", "total_winnings", "total_deposited", "total_withdrawn", "active_withdrawals", "is_admin", "created_at", "updated_at"}
)

func pgService(t *testing.T) (*Service, sqlmock.Sqlmock, *events.Recorder) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rec := &events.Recorder{}
	svc := New(postgres.NewStore(db), rec, metrics.NewLedger(prometheus.NewRegistry()), zap.NewNop(), config.DefaultPolicy())
	svc.newID = func() string { return "w1" }
	return svc, mock, rec
}

func expectMarketAndWallet(mock sqlmock.Sqlmock, balance string, at time.Time) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM markets WHERE id=\$1 FOR SHARE`).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(pgMarketCols).
			AddRow("m1", "India", "Australia", "1.70", "2.15", "T20", at, "Upcoming", nil, false, at, at))
	mock.ExpectQuery(`SELECT .+ FROM wallets WHERE user_id=\$1 FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(pgWalletCols).
			AddRow("u1", "u1@x.io", balance, 0, "0", "0", "0", 0, false, at, at))
}

// A aposta trava o mercado em modo compartilhado e a carteira em modo exclusivo,
// nessa ordem, antes de gravar aposta, saldo e lançamento na mesma transação.
func TestPlaceWager_Postgres_LocksMarketThenWallet(t *testing.T) {
	svc, mock, rec := pgService(t)
	now := time.Now().UTC()

	expectMarketAndWallet(mock, "1000", now)
	mock.ExpectExec(`INSERT INTO wagers`).
		WithArgs("w1", "u1", "", "m1", "India", "Australia", "India",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "pending", sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE wallets`).
		WithArgs("u1", "u1@x.io", "600", int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO wallet_ledger`).
		WithArgs("u1", "wager_stake", "-400", "600", "w1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	p, err := svc.PlaceWager(context.Background(), PlaceInput{UserID: "u1", MarketID: "m1", Selection: "India", Stake: d("400")})
	require.NoError(t, err)
	assert.True(t, d("600").Equal(p.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, rec.Messages(topics.WagerPlaced), 1)
	assert.Len(t, rec.Messages(topics.BalanceChanged), 1)
}

func TestPlaceWager_Postgres_InsufficientBalanceRollsBack(t *testing.T) {
	svc, mock, rec := pgService(t)
	now := time.Now().UTC()

	expectMarketAndWallet(mock, "100", now)
	mock.ExpectRollback()

	_, err := svc.PlaceWager(context.Background(), PlaceInput{UserID: "u1", MarketID: "m1", Selection: "India", Stake: d("400")})
	assert.True(t, errors.Is(err, ledger.ErrInsufficientBalance))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, rec.Messages(topics.WagerPlaced))
}
