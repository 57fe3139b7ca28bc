package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

// sender é o subconjunto de *tgbotapi.BotAPI usado aqui
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramAlerts envia ao chat do admin os pedidos de recarga/saque e o resumo de cada liquidação
type TelegramAlerts struct {
	bot    sender
	chatID int64
}

func NewTelegramAlerts(bot sender, chatID int64) *TelegramAlerts {
	return &TelegramAlerts{bot: bot, chatID: chatID}
}

// Notify ignora tópicos que não interessam ao admin
func (t *TelegramAlerts) Notify(_ context.Context, topic string, value []byte) error {
	text, err := adminText(topic, value)
	if err != nil || text == "" {
		return err
	}
	_, err = t.bot.Send(tgbotapi.NewMessage(t.chatID, text))
	return err
}

func adminText(topic string, value []byte) (string, error) {
	switch topic {
	case topics.FundingRequested:
		var ev events.FundingRequested
		if err := json.Unmarshal(value, &ev); err != nil {
			return "", err
		}
		who := ev.UserEmail
		if who == "" {
			who = ev.UserID
		}
		text := fmt.Sprintf("New %s request %s from %s: %s", ev.Kind, ev.RequestID, who, ev.Amount.StringFixed(2))
		if ev.Reference != "" {
			text += " (ref " + ev.Reference + ")"
		}
		if ev.Method != "" {
			text += " via " + ev.Method
		}
		return text, nil
	case topics.MarketSettled:
		var ev events.MarketSettled
		if err := json.Unmarshal(value, &ev); err != nil {
			return "", err
		}
		text := fmt.Sprintf("Market %s settled, winner %s: %d wagers (%d won, %d lost), stake %s, payout %s",
			ev.MarketID, ev.Winner, ev.Processed, ev.Won, ev.Lost,
			ev.TotalStake.StringFixed(2), ev.TotalPayout.StringFixed(2))
		if ev.BonusApplied {
			text += ", bonus applied"
		}
		return text, nil
	}
	return "", nil
}
