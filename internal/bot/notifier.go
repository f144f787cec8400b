package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"studybot/internal/delivery"
)

// Notifier sends reminder notifications through the Telegram API, rendering
// interactive actions as an inline keyboard, two buttons per row.
type Notifier struct {
	api *tgbotapi.BotAPI
}

func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

func (n *Notifier) Send(ctx context.Context, userID int64, text string, actions []delivery.Action) error {
	msg := tgbotapi.NewMessage(userID, text)
	if len(actions) > 0 {
		msg.ReplyMarkup = actionKeyboard(actions)
	}
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func actionKeyboard(actions []delivery.Action) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(actions); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(actions[i].Label, actions[i].Data),
		}
		if i+1 < len(actions) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(actions[i+1].Label, actions[i+1].Data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
