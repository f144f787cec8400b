package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studybot/internal/bot/handlers"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func New(api *tgbotapi.BotAPI, h *handlers.Handlers, logger *zap.Logger) *Bot {
	return &Bot{api: api, handlers: h, logger: logger}
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("authorized", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		b.handlers.HandlePreCheckout(ctx, update.PreCheckoutQuery)
	case update.CallbackQuery != nil:
		b.handlers.HandleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		msg := update.Message
		switch {
		case msg.SuccessfulPayment != nil:
			b.handlers.HandleSuccessfulPayment(ctx, msg)
		case msg.IsCommand():
			b.handlers.HandleCommand(ctx, msg)
		default:
			b.handlers.HandleMessage(ctx, msg)
		}
	}
}
