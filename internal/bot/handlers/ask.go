package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studybot/internal/usage"
)

// maxAnswerLen keeps replies inside Telegram's message size limit.
const maxAnswerLen = 4000

func (h *Handlers) handleAsk(ctx context.Context, msg *tgbotapi.Message) {
	h.sendMessage(msg.Chat.ID, "🧠 Напиши свой вопрос:")
}

// handleQuestion routes free text to the language model, gated by the hourly
// query quota.
func (h *Handlers) handleQuestion(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "🤖 Модель не настроена. Доступны напоминания: /remind")
		return
	}

	_, settings, err := h.userPrefs(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load user settings", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Что-то пошло не так, попробуй позже.")
		return
	}

	limit, err := h.limiter.Check(ctx, userID, settings.IsPremium)
	if err != nil {
		h.logger.Error("usage check failed", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Что-то пошло не так, попробуй позже.")
		return
	}
	if !limit.OK && limit.Reason == usage.ReasonQueryLimit {
		h.sendUpsell(msg.Chat.ID, "⚠️ Лимит вопросов (5/час) исчерпан. Купите Premium 💎")
		return
	}

	thinking, err := h.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "🤔 Думаю над ответом..."))
	if err != nil {
		h.logger.Warn("failed to send placeholder", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}

	answer, err := h.ai.Ask(ctx, msg.Text)
	if err != nil {
		h.logger.Error("model query failed", zap.Int64("user_id", userID), zap.Error(err))
		h.replaceOrSend(msg.Chat.ID, thinking.MessageID, "⚠️ Не получилось получить ответ, попробуй позже.")
		return
	}

	if err := h.limiter.Increment(ctx, userID, usage.ActionQuery); err != nil {
		h.logger.Warn("failed to increment usage", zap.Int64("user_id", userID), zap.Error(err))
	}

	if len(answer) > maxAnswerLen {
		answer = answer[:maxAnswerLen]
	}
	h.replaceOrSend(msg.Chat.ID, thinking.MessageID, "💬 "+answer)
}

func (h *Handlers) replaceOrSend(chatID int64, messageID int, text string) {
	if messageID != 0 {
		h.editMessage(chatID, messageID, text)
		return
	}
	h.sendMessage(chatID, text)
}
