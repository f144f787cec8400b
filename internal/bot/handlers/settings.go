package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	settingsFieldTZ      = "tz"
	settingsFieldMorning = "morning"
	settingsFieldMidday  = "midday"
	settingsFieldEvening = "evening"
)

var hhmmRe = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

func (h *Handlers) handleSettings(ctx context.Context, msg *tgbotapi.Message) {
	settings, err := h.settings.GetOrCreate(ctx, msg.From.ID)
	if err != nil {
		h.logger.Error("failed to load user settings", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Не получилось загрузить настройки, попробуй позже.")
		return
	}

	premium := "нет"
	if settings.IsPremium {
		premium = "да 💎"
		if settings.PremiumUntil != nil {
			premium += " (до " + settings.PremiumUntil.Format("02.01.2006") + ")"
		}
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"⚙️ Настройки\n\n"+
			"🌍 Часовой пояс: %s\n"+
			"🌅 Утро: %s\n"+
			"☀️ День: %s\n"+
			"🌆 Вечер: %s\n"+
			"💎 Premium: %s",
		settings.Timezone, settings.MorningTime, settings.MiddayTime, settings.EveningTime, premium))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌍 Часовой пояс", "settings_tz"),
			tgbotapi.NewInlineKeyboardButtonData("🌅 Утро", "settings_morning"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("☀️ День", "settings_midday"),
			tgbotapi.NewInlineKeyboardButtonData("🌆 Вечер", "settings_evening"),
		),
	)
	h.send(reply)
}

func (h *Handlers) handleSettingsCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, field string) {
	var prompt string
	switch field {
	case settingsFieldTZ:
		prompt = "🌍 Пришли часовой пояс в формате IANA, например Asia/Almaty или Europe/Moscow."
	case settingsFieldMorning:
		prompt = "🌅 Пришли время «утра» в формате ЧЧ:ММ, например 09:00."
	case settingsFieldMidday:
		prompt = "☀️ Пришли время «дня» в формате ЧЧ:ММ, например 12:00."
	case settingsFieldEvening:
		prompt = "🌆 Пришли время «вечера» в формате ЧЧ:ММ, например 19:00."
	default:
		h.answerCallback(callback.ID, "")
		return
	}

	h.states.set(callback.From.ID, userState{kind: pendingSettingsValue, settingsField: field})
	h.sendMessage(callback.Message.Chat.ID, prompt)
	h.answerCallback(callback.ID, "")
}

func (h *Handlers) processSettingsValue(ctx context.Context, msg *tgbotapi.Message, field string) {
	userID := msg.From.ID
	value := strings.TrimSpace(msg.Text)

	settings, err := h.settings.GetOrCreate(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load user settings", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Не получилось загрузить настройки, попробуй позже.")
		return
	}

	switch field {
	case settingsFieldTZ:
		if _, err := time.LoadLocation(value); err != nil {
			h.sendMessage(msg.Chat.ID, "❌ Не знаю такой часовой пояс. Пример: Asia/Almaty")
			return
		}
		settings.Timezone = value
	case settingsFieldMorning, settingsFieldMidday, settingsFieldEvening:
		m := hhmmRe.FindStringSubmatch(value)
		if m == nil {
			h.sendMessage(msg.Chat.ID, "❌ Нужен формат ЧЧ:ММ, например 09:30.")
			return
		}
		if len(m[1]) == 1 {
			value = "0" + value
		}
		switch field {
		case settingsFieldMorning:
			settings.MorningTime = value
		case settingsFieldMidday:
			settings.MiddayTime = value
		case settingsFieldEvening:
			settings.EveningTime = value
		}
	default:
		h.states.clear(userID)
		return
	}

	if err := h.settings.Update(ctx, settings); err != nil {
		h.logger.Error("failed to update user settings", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Не получилось сохранить настройки, попробуй позже.")
		return
	}

	h.states.clear(userID)
	h.sendMessage(msg.Chat.ID, "✅ Сохранено.")
}
