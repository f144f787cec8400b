package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studybot/internal/ai"
	"studybot/internal/delivery"
	"studybot/internal/models"
	"studybot/internal/reminders"
	"studybot/internal/repository"
	"studybot/internal/syllabus"
	"studybot/internal/timeparse"
	"studybot/internal/usage"
)

type Handlers struct {
	api       *tgbotapi.BotAPI
	reminders *reminders.Service
	limiter   *usage.Limiter
	delivery  *delivery.Handler
	parser    *timeparse.Parser
	settings  *repository.UserSettingsRepository
	payments  *repository.PaymentRepository
	ai        *ai.Client
	syllabus  *syllabus.Parser
	logger    *zap.Logger

	adminChatID int64
	states      *stateStore
}

type Deps struct {
	API         *tgbotapi.BotAPI
	Reminders   *reminders.Service
	Limiter     *usage.Limiter
	Delivery    *delivery.Handler
	Parser      *timeparse.Parser
	Settings    *repository.UserSettingsRepository
	Payments    *repository.PaymentRepository
	AI          *ai.Client
	Syllabus    *syllabus.Parser
	Logger      *zap.Logger
	AdminChatID int64
}

func New(deps Deps) *Handlers {
	return &Handlers{
		api:         deps.API,
		reminders:   deps.Reminders,
		limiter:     deps.Limiter,
		delivery:    deps.Delivery,
		parser:      deps.Parser,
		settings:    deps.Settings,
		payments:    deps.Payments,
		ai:          deps.AI,
		syllabus:    deps.Syllabus,
		logger:      deps.Logger,
		adminChatID: deps.AdminChatID,
		states:      newStateStore(),
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "remind":
		h.handleRemind(ctx, msg)
	case "list_reminders", "reminders":
		h.handleReminderList(ctx, msg)
	case "ask":
		h.handleAsk(ctx, msg)
	case "upload":
		h.handleUpload(ctx, msg)
	case "settings":
		h.handleSettings(ctx, msg)
	case "buy_premium":
		h.handleBuyPremium(ctx, msg)
	case "stats":
		h.handleStats(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Неизвестная команда. /help покажет список.")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Document != nil {
		h.handleDocument(ctx, msg)
		return
	}

	state := h.states.get(msg.From.ID)
	switch state.kind {
	case pendingReminderTime:
		h.processReminderTime(ctx, msg)
	case pendingReminderText:
		h.processReminderText(ctx, msg, state.remindAt)
	case pendingSettingsValue:
		h.processSettingsValue(ctx, msg, state.settingsField)
	default:
		// Free text outside any flow goes to the model.
		h.handleQuestion(ctx, msg)
	}
}

func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	data := callback.Data

	switch {
	case strings.HasPrefix(data, delivery.CallbackSnooze10m):
		h.handleSnoozeCallback(ctx, callback, "10m", strings.TrimPrefix(data, delivery.CallbackSnooze10m))
	case strings.HasPrefix(data, delivery.CallbackSnooze1h):
		h.handleSnoozeCallback(ctx, callback, "1h", strings.TrimPrefix(data, delivery.CallbackSnooze1h))
	case strings.HasPrefix(data, delivery.CallbackSnoozeTomorrow):
		h.handleSnoozeCallback(ctx, callback, "tomorrow", strings.TrimPrefix(data, delivery.CallbackSnoozeTomorrow))
	case strings.HasPrefix(data, delivery.CallbackDone):
		h.handleDoneCallback(ctx, callback, strings.TrimPrefix(data, delivery.CallbackDone))
	case strings.HasPrefix(data, delivery.CallbackDelete):
		h.handleDeleteCallback(ctx, callback, strings.TrimPrefix(data, delivery.CallbackDelete))
	case data == "buy_premium_open":
		h.handleBuyPremiumCallback(ctx, callback)
	case strings.HasPrefix(data, "premium_"):
		h.handlePremiumPlanCallback(ctx, callback, strings.TrimPrefix(data, "premium_"))
	case data == "syllabus_confirm":
		h.handleSyllabusConfirm(ctx, callback)
	case data == "syllabus_cancel":
		h.handleSyllabusCancel(ctx, callback)
	case strings.HasPrefix(data, "settings_"):
		h.handleSettingsCallback(ctx, callback, strings.TrimPrefix(data, "settings_"))
	default:
		h.answerCallback(callback.ID, "")
	}
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := h.settings.GetOrCreate(ctx, msg.From.ID); err != nil {
		h.logger.Error("failed to init user settings", zap.Int64("user_id", msg.From.ID), zap.Error(err))
	}
	h.sendMessage(msg.Chat.ID,
		"👋 Привет! Я помогу не забыть дедлайны.\n\n"+
			"• /remind — поставить напоминание\n"+
			"• /list_reminders — список напоминаний\n"+
			"• /upload — найти дедлайны в силлабусе\n"+
			"• /ask — задать вопрос модели\n"+
			"• /settings — часовой пояс и время слотов\n"+
			"• /buy_premium — снять лимиты 💎")
}

func (h *Handlers) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	h.sendMessage(msg.Chat.ID,
		"🗓 /remind — напоминание свободным текстом: «через 10 минут», «завтра в 9», «25 октября 18:30»\n"+
			"📋 /list_reminders — активные напоминания\n"+
			"📄 /upload — пришли .pdf/.docx/.txt, я вытащу дедлайны\n"+
			"🧠 /ask — вопрос к модели (или просто напиши сообщение)\n"+
			"⚙️ /settings — часовой пояс, утро/день/вечер\n"+
			"💎 /buy_premium — без лимитов")
}

// userPrefs loads parser preferences and premium status for a user.
func (h *Handlers) userPrefs(ctx context.Context, userID int64) (timeparse.Prefs, *models.UserSettings, error) {
	settings, err := h.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return timeparse.Prefs{}, nil, err
	}
	return timeparse.Prefs{
		Timezone: settings.Timezone,
		Morning:  settings.MorningTime,
		Midday:   settings.MiddayTime,
		Evening:  settings.EveningTime,
	}, settings, nil
}

func (h *Handlers) userLocation(settings *models.UserSettings) *time.Location {
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) send(msg tgbotapi.MessageConfig) {
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (h *Handlers) answerCallback(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		h.logger.Warn("failed to answer callback", zap.Error(err))
	}
}

func (h *Handlers) answerCallbackWithAlert(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		h.logger.Warn("failed to answer callback", zap.Error(err))
	}
}

func (h *Handlers) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := h.api.Send(edit); err != nil {
		h.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func parseReminderID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
