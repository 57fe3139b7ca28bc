package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func channels(msgs []events.Broadcast) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Channel)
	}
	return out
}

func TestRoute(t *testing.T) {
	cases := []struct {
		topic string
		ev    any
		want  []string
	}{
		{topics.MarketUpdated, events.MarketUpdated{MarketID: "m1", Action: events.MarketCreated}, []string{"markets", "market:m1"}},
		{topics.MarketSettled, events.MarketSettled{MarketID: "m1", Winner: "India"}, []string{"markets", "market:m1"}},
		{topics.WagerPlaced, events.WagerPlaced{WagerID: "w1", UserID: "u1", MarketID: "m1"}, []string{"user:u1"}},
		{topics.BalanceChanged, events.BalanceChanged{UserID: "u1"}, []string{"user:u1"}},
		{topics.FundingRequested, events.FundingRequested{UserID: "u2"}, []string{"user:u2"}},
		{topics.FundingResolved, events.FundingResolved{UserID: "u2"}, []string{"user:u2"}},
	}
	for _, c := range cases {
		t.Run(c.topic, func(t *testing.T) {
			value := mustJSON(t, c.ev)
			msgs, err := Route(c.topic, value)
			require.NoError(t, err)
			assert.Equal(t, c.want, channels(msgs))
			for _, m := range msgs {
				assert.Equal(t, c.topic, m.Topic)
				assert.JSONEq(t, string(value), string(m.Payload))
			}
		})
	}

	_, err := Route("odds_updates", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownTopic)

	_, err = Route(topics.BalanceChanged, []byte(`not json`))
	assert.Error(t, err)
}

func TestRoute_PrivateEventsStayOffMarketChannels(t *testing.T) {
	private := map[string]any{
		topics.WagerPlaced:      events.WagerPlaced{WagerID: "w1", UserID: "u1", MarketID: "m1", Stake: decimal.NewFromInt(500)},
		topics.BalanceChanged:   events.BalanceChanged{UserID: "u1"},
		topics.FundingRequested: events.FundingRequested{UserID: "u1"},
		topics.FundingResolved:  events.FundingResolved{UserID: "u1"},
	}
	for topic, ev := range private {
		msgs, err := Route(topic, mustJSON(t, ev))
		require.NoError(t, err)
		for _, m := range msgs {
			assert.Equal(t, "user:u1", m.Channel, topic)
		}
	}
}

func TestRedisBroadcaster(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "ledger_updates_broadcast")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	b := NewRedisBroadcaster(rdb, "ledger_updates_broadcast")
	require.NoError(t, b.Broadcast(ctx, events.Broadcast{Channel: "user:u1", Topic: topics.BalanceChanged, Payload: json.RawMessage(`{"userId":"u1"}`)}))

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(rctx)
	require.NoError(t, err)

	var got events.Broadcast
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "user:u1", got.Channel)
	assert.Equal(t, topics.BalanceChanged, got.Topic)
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramAlerts(t *testing.T) {
	bot := &fakeSender{}
	alerts := NewTelegramAlerts(bot, 42)
	ctx := context.Background()

	require.NoError(t, alerts.Notify(ctx, topics.FundingRequested, mustJSON(t, events.FundingRequested{
		RequestID: "r1", UserID: "u1", UserEmail: "u1@cricwin.io", Kind: "recharge",
		Amount: decimal.NewFromInt(750), Reference: "UTR123",
	})))
	require.NoError(t, alerts.Notify(ctx, topics.MarketSettled, mustJSON(t, events.MarketSettled{
		MarketID: "m1", Winner: "India", Processed: 3, Won: 2, Lost: 1,
		TotalStake: decimal.NewFromInt(600), TotalPayout: decimal.RequireFromString("1553.44"), BonusApplied: true,
	})))
	require.NoError(t, alerts.Notify(ctx, topics.FundingRequested, mustJSON(t, events.FundingRequested{
		RequestID: "r2", UserID: "u2", Kind: "withdrawal",
		Amount: decimal.NewFromInt(600), Method: "UPI", Details: "u2@okbank",
	})))
	// saldo não interessa ao admin
	require.NoError(t, alerts.Notify(ctx, topics.BalanceChanged, mustJSON(t, events.BalanceChanged{UserID: "u1"})))

	require.Len(t, bot.sent, 3)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, "New recharge request r1 from u1@cricwin.io: 750.00 (ref UTR123)", bot.sent[0].Text)
	assert.Equal(t, "New withdrawal request r2 from u2: 600.00 via UPI", bot.sent[2].Text)
	assert.Equal(t, "Market m1 settled, winner India: 3 wagers (2 won, 1 lost), stake 600.00, payout 1553.44, bonus applied", bot.sent[1].Text)
}

type fakeReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
	fails  int
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if f.fails > 0 {
		f.fails--
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(f.msgs) == 0 {
		f.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

type memBroadcaster struct {
	mu   sync.Mutex
	msgs []events.Broadcast
	err  error
}

func (b *memBroadcaster) Broadcast(_ context.Context, msg events.Broadcast) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.msgs = append(b.msgs, msg)
	return nil
}

func TestWorker_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{cancel: cancel, fails: 1, msgs: []kafka.Message{
		{Topic: topics.MarketSettled, Value: mustJSON(t, events.MarketSettled{MarketID: "m1", Winner: "India"})},
		{Topic: topics.BalanceChanged, Value: []byte(`garbage`)},
		{Topic: "unrelated", Value: []byte(`{}`)},
		{Topic: topics.BalanceChanged, Value: mustJSON(t, events.BalanceChanged{UserID: "u1"})},
	}}
	bc := &memBroadcaster{}
	bot := &fakeSender{}
	stages := map[string]int{}
	consumed := 0

	w := &Worker{
		Log:         zap.NewNop(),
		Reader:      reader,
		Broadcaster: bc,
		Admin:       NewTelegramAlerts(bot, 1),
		RetryDelay:  time.Millisecond,
		OnConsumed:  func(string) { consumed++ },
		OnError:     func(stage string) { stages[stage]++ },
	}

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 4, consumed)
	assert.Equal(t, map[string]int{"read": 1, "decode": 1}, stages)
	assert.Equal(t, []string{"markets", "market:m1", "user:u1"}, channels(bc.msgs))
	assert.Len(t, bot.sent, 1)
}

func TestWorker_BroadcastFailureContinues(t *testing.T) {
	bc := &memBroadcaster{err: errors.New("redis down")}
	failures := 0
	w := &Worker{Log: zap.NewNop(), Broadcaster: bc, OnError: func(string) { failures++ }}

	w.Handle(context.Background(), topics.MarketUpdated, mustJSON(t, events.MarketUpdated{MarketID: "m1"}))
	assert.Equal(t, 2, failures)
}
