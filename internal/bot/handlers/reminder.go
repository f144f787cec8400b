package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studybot/internal/delivery"
	"studybot/internal/format"
	"studybot/internal/models"
	"studybot/internal/timeparse"
	"studybot/internal/usage"
)

func (h *Handlers) handleRemind(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	_, settings, err := h.userPrefs(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load user settings", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Не получилось загрузить настройки, попробуй позже.")
		return
	}

	limit, err := h.limiter.Check(ctx, userID, settings.IsPremium)
	if err != nil {
		h.logger.Error("usage check failed", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Что-то пошло не так, попробуй позже.")
		return
	}
	if !limit.OK && limit.Reason == usage.ReasonReminderLimit {
		h.sendUpsell(msg.Chat.ID, "⚠️ Лимит напоминаний (3/день) исчерпан. Купите Premium 💎")
		return
	}

	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("через 10 минут"),
			tgbotapi.NewKeyboardButton("через 30 минут"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("через час"),
			tgbotapi.NewKeyboardButton("сегодня вечером"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("завтра утром"),
			tgbotapi.NewKeyboardButton("завтра в 9"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("отмена"),
		),
	)
	kb.ResizeKeyboard = true

	reply := tgbotapi.NewMessage(msg.Chat.ID,
		"🗓 Когда напомнить?\n"+
			"Можно писать свободно: «через 10 минут», «завтра в 9», «25 октября 18:30»")
	reply.ReplyMarkup = kb
	h.send(reply)

	h.states.set(userID, userState{kind: pendingReminderTime})
}

func (h *Handlers) processReminderTime(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	text := strings.ToLower(strings.TrimSpace(msg.Text))

	if text == "отмена" || text == "cancel" {
		h.states.clear(userID)
		reply := tgbotapi.NewMessage(msg.Chat.ID, "❌ Напоминание отменено.")
		reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		h.send(reply)
		return
	}

	prefs, _, err := h.userPrefs(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load user settings", zap.Int64("user_id", userID), zap.Error(err))
		prefs = timeparse.DefaultPrefs("Asia/Almaty")
	}

	remindAt, err := h.parser.Parse(msg.Text, prefs, time.Now())
	if err != nil {
		h.sendMessage(msg.Chat.ID,
			"❌ Не понял дату. Примеры: «через 10 минут», «завтра в 9», «25 октября 18:30».")
		return
	}

	h.states.set(userID, userState{kind: pendingReminderText, remindAt: remindAt})
	reply := tgbotapi.NewMessage(msg.Chat.ID, "💬 Что напомнить?")
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	h.send(reply)
}

func (h *Handlers) processReminderText(ctx context.Context, msg *tgbotapi.Message, remindAt time.Time) {
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)
	h.states.clear(userID)

	reminder, err := h.reminders.Create(ctx, userID, text, remindAt, models.RepeatNone, models.SourceManual)
	if err != nil {
		h.logger.Error("failed to create reminder", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Не получилось сохранить напоминание, попробуй позже.")
		return
	}

	if err := h.limiter.Increment(ctx, userID, usage.ActionReminder); err != nil {
		h.logger.Warn("failed to increment usage", zap.Int64("user_id", userID), zap.Error(err))
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"✅ Напоминание установлено на %s (через %s) — «%s»",
		format.RemindAt(reminder.RemindAt),
		format.Until(reminder.RemindAt, time.Now()),
		text,
	))
}

func (h *Handlers) handleReminderList(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	list, err := h.reminders.List(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list reminders", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Не получилось загрузить список, попробуй позже.")
		return
	}
	if len(list) == 0 {
		h.sendMessage(msg.Chat.ID, "📭 У тебя нет активных напоминаний.")
		return
	}

	var syllabusRems, manualRems []*models.Reminder
	for _, r := range list {
		if r.Source == models.SourceSyllabus {
			syllabusRems = append(syllabusRems, r)
		} else {
			manualRems = append(manualRems, r)
		}
	}

	if len(syllabusRems) > 0 {
		h.sendMessage(msg.Chat.ID, "📚 Из силлабуса:")
		for _, r := range syllabusRems {
			h.sendReminderItem(msg.Chat.ID, r)
		}
	}
	if len(manualRems) > 0 {
		h.sendMessage(msg.Chat.ID, "✏️ Мои напоминания:")
		for _, r := range manualRems {
			h.sendReminderItem(msg.Chat.ID, r)
		}
	}
}

func (h *Handlers) sendReminderItem(chatID int64, r *models.Reminder) {
	text := fmt.Sprintf("🗓 %s\n💬 %s", format.RemindAt(r.RemindAt), r.Text)
	if r.IsRecurring() {
		text += "\n🔄 " + format.RepeatLabel(r.RepeatType)
	}
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", format.CallbackData(delivery.CallbackDelete, r.ReminderID)),
		),
	)
	h.send(reply)
}

func (h *Handlers) handleSnoozeCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, kind, rawID string) {
	id, ok := parseReminderID(rawID)
	if !ok {
		h.answerCallbackWithAlert(callback.ID, "Некорректные данные.")
		return
	}

	if h.delivery.Snooze(ctx, id, kind) {
		h.answerCallback(callback.ID, "Отложено 💤")
		h.editMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			callback.Message.Text+"\n\n🕓 Отложено.")
	} else {
		h.answerCallbackWithAlert(callback.ID, "Напоминание уже отсутствует.")
	}
}

func (h *Handlers) handleDoneCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, rawID string) {
	id, ok := parseReminderID(rawID)
	if !ok {
		h.answerCallbackWithAlert(callback.ID, "Некорректные данные.")
		return
	}

	if h.delivery.Done(ctx, id) {
		h.answerCallback(callback.ID, "Готово ✅")
		h.editMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			callback.Message.Text+"\n\n✅ Отмечено как выполнено.")
	} else {
		h.answerCallbackWithAlert(callback.ID, "Напоминание уже отсутствует.")
	}
}

func (h *Handlers) handleDeleteCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, rawID string) {
	id, ok := parseReminderID(rawID)
	if !ok {
		h.answerCallbackWithAlert(callback.ID, "Некорректный ID.")
		return
	}

	ok, err := h.reminders.Cancel(ctx, id)
	if err != nil {
		h.logger.Error("failed to cancel reminder", zap.Int("reminder_id", id), zap.Error(err))
		h.answerCallbackWithAlert(callback.ID, "Не получилось удалить.")
		return
	}
	if !ok {
		h.editMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			"⚠️ Напоминание уже удалено или не найдено.")
		h.answerCallback(callback.ID, "")
		return
	}

	h.editMessage(callback.Message.Chat.ID, callback.Message.MessageID, "❌ Напоминание удалено.")
	h.answerCallback(callback.ID, "")
}

func (h *Handlers) sendUpsell(chatID int64, text string) {
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💎 Купить Premium", "buy_premium_open"),
		),
	)
	h.send(reply)
}
