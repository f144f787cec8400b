package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studybot/internal/models"
)

type premiumPlan struct {
	Label string
	Days  int // 0 means forever
	Stars int
}

var premiumPlans = map[string]premiumPlan{
	"7d":      {Label: "Premium — 7 дней", Days: 7, Stars: 70},
	"30d":     {Label: "Premium — 30 дней", Days: 30, Stars: 200},
	"forever": {Label: "Premium — навсегда", Days: 0, Stars: 600},
}

func (h *Handlers) handleBuyPremium(ctx context.Context, msg *tgbotapi.Message) {
	h.sendPremiumMenu(msg.Chat.ID)
}

func (h *Handlers) handleBuyPremiumCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	h.sendPremiumMenu(callback.Message.Chat.ID)
	h.answerCallback(callback.ID, "")
}

func (h *Handlers) sendPremiumMenu(chatID int64) {
	reply := tgbotapi.NewMessage(chatID,
		"Выберите тариф Premium-доступа 💎\n\n"+
			"Преимущества:\n"+
			"• Ответы модели без ограничений\n"+
			"• Напоминания без лимита\n"+
			"• Приоритетная обработка\n\n"+
			"Выберите тариф ниже 👇")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ 7 дней — 70 ⭐", "premium_7d"),
			tgbotapi.NewInlineKeyboardButtonData("💫 30 дней — 200 ⭐", "premium_30d"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💎 Навсегда — 600 ⭐", "premium_forever"),
		),
	)
	h.send(reply)
}

// handlePremiumPlanCallback sends a Telegram Stars invoice for the chosen
// plan. Stars invoices use the XTR currency and no provider token.
func (h *Handlers) handlePremiumPlanCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, planID string) {
	plan, ok := premiumPlans[planID]
	if !ok {
		h.answerCallbackWithAlert(callback.ID, "❌ Тариф не найден.")
		return
	}

	invoice := tgbotapi.NewInvoice(
		callback.Message.Chat.ID,
		"Study Assistant Premium",
		plan.Label+"\n\nПосле оплаты доступ активируется автоматически.",
		"premium_"+planID,
		"", // empty provider token for Telegram Stars
		"",
		"XTR",
		[]tgbotapi.LabeledPrice{{Label: plan.Label, Amount: plan.Stars}},
	)
	if _, err := h.api.Send(invoice); err != nil {
		h.logger.Error("failed to send invoice", zap.Int64("chat_id", callback.Message.Chat.ID), zap.Error(err))
		h.answerCallbackWithAlert(callback.ID, "Не получилось выставить счёт.")
		return
	}
	h.answerCallback(callback.ID, "")
}

func (h *Handlers) HandlePreCheckout(ctx context.Context, query *tgbotapi.PreCheckoutQuery) {
	answer := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: query.ID,
		OK:                 true,
	}
	if _, err := h.api.Request(answer); err != nil {
		h.logger.Error("failed to answer pre-checkout", zap.Error(err))
	}
}

func (h *Handlers) HandleSuccessfulPayment(ctx context.Context, msg *tgbotapi.Message) {
	payment := msg.SuccessfulPayment
	userID := msg.From.ID

	planID := ""
	if len(payment.InvoicePayload) > len("premium_") {
		planID = payment.InvoicePayload[len("premium_"):]
	}
	plan, ok := premiumPlans[planID]
	if !ok {
		h.logger.Error("payment with unknown payload",
			zap.Int64("user_id", userID),
			zap.String("payload", payment.InvoicePayload))
		h.sendMessage(msg.Chat.ID, "❌ Ошибка при активации Premium.")
		return
	}

	var until *time.Time
	text := "💎 Premium активирован навсегда!"
	if plan.Days > 0 {
		t := time.Now().Add(time.Duration(plan.Days) * 24 * time.Hour)
		until = &t
		text = fmt.Sprintf("🎉 Premium активирован на %d дней!", plan.Days)
	}

	if err := h.settings.SetPremium(ctx, userID, until); err != nil {
		h.logger.Error("failed to activate premium", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "❌ Ошибка при активации Premium.")
		return
	}

	record := &models.Payment{
		UserID:      userID,
		StarsAmount: payment.TotalAmount,
		Payload:     payment.InvoicePayload,
	}
	if err := h.payments.Create(ctx, record); err != nil {
		h.logger.Error("failed to record payment", zap.Int64("user_id", userID), zap.Error(err))
	}

	h.logger.Info("premium activated",
		zap.Int64("user_id", userID),
		zap.String("plan", planID),
		zap.Int("stars", payment.TotalAmount))
	h.sendMessage(msg.Chat.ID, text)

	if h.adminChatID != 0 {
		h.sendMessage(h.adminChatID, fmt.Sprintf(
			"⭐ Оплата: пользователь %d, тариф %s, %d ⭐", userID, planID, payment.TotalAmount))
	}
}

func (h *Handlers) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if h.adminChatID == 0 || msg.From.ID != h.adminChatID {
		h.sendMessage(msg.Chat.ID, "Эта команда доступна только администратору.")
		return
	}

	count, stars, err := h.payments.Totals(ctx)
	if err != nil {
		h.logger.Error("failed to load payment totals", zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Не получилось загрузить статистику.")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("📊 Платежей: %d\n⭐ Всего звёзд: %d", count, stars))
}
