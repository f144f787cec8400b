package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studybot/internal/extract"
	"studybot/internal/format"
	"studybot/internal/models"
)

// maxDocumentSize caps downloads at 10 MB.
const maxDocumentSize = 10 << 20

func (h *Handlers) handleUpload(ctx context.Context, msg *tgbotapi.Message) {
	h.sendMessage(msg.Chat.ID,
		"📄 Пришли силлабус файлом (.pdf, .docx или .txt) — я найду в нём квизы, экзамены и дедлайны.")
}

func (h *Handlers) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	doc := msg.Document

	if h.ai == nil || h.syllabus == nil {
		h.sendMessage(msg.Chat.ID, "🤖 Разбор документов не настроен.")
		return
	}
	if doc.FileSize > maxDocumentSize {
		h.sendMessage(msg.Chat.ID, "⚠️ Файл слишком большой, максимум 10 МБ.")
		return
	}

	h.sendMessage(msg.Chat.ID, "🔍 Читаю документ и ищу дедлайны...")

	data, err := h.downloadDocument(ctx, doc.FileID)
	if err != nil {
		h.logger.Error("failed to download document",
			zap.Int64("user_id", userID),
			zap.String("file", doc.FileName),
			zap.Error(err))
		h.sendMessage(msg.Chat.ID, "⚠️ Не получилось скачать файл, попробуй ещё раз.")
		return
	}

	text, err := extract.Text(doc.FileName, data)
	if errors.Is(err, extract.ErrUnsupported) {
		h.sendMessage(msg.Chat.ID, "⚠️ Поддерживаются только .pdf, .docx и .txt.")
		return
	}
	if err != nil {
		h.logger.Error("failed to extract document text",
			zap.String("file", doc.FileName), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "⚠️ Не получилось прочитать файл.")
		return
	}
	if strings.TrimSpace(text) == "" {
		h.sendMessage(msg.Chat.ID, "⚠️ В файле не нашлось текста.")
		return
	}

	_, settings, err := h.userPrefs(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load user settings", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "Что-то пошло не так, попробуй позже.")
		return
	}

	deadlines, skipped, err := h.syllabus.Extract(ctx, text, h.userLocation(settings))
	if err != nil {
		h.logger.Error("failed to extract deadlines", zap.Int64("user_id", userID), zap.Error(err))
		h.sendMessage(msg.Chat.ID, "⚠️ Не получилось разобрать документ, попробуй позже.")
		return
	}
	if len(deadlines) == 0 {
		reply := "📭 Будущих дедлайнов в документе не нашлось."
		if len(skipped) > 0 {
			reply += fmt.Sprintf(" Прошедших событий: %d.", len(skipped))
		}
		h.sendMessage(msg.Chat.ID, reply)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📚 Нашёл %d будущих событий:\n\n", len(deadlines)))
	for _, d := range deadlines {
		sb.WriteString(fmt.Sprintf("• %s — %s\n", format.RemindAt(d.At), d.Title))
	}
	if len(skipped) > 0 {
		sb.WriteString(fmt.Sprintf("\n⏮ Пропущено прошедших: %d.", len(skipped)))
	}
	sb.WriteString("\n\nСоздать напоминания?")

	h.states.set(userID, userState{deadlines: deadlines})

	reply := tgbotapi.NewMessage(msg.Chat.ID, sb.String())
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Создать", "syllabus_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "syllabus_cancel"),
		),
	)
	h.send(reply)
}

func (h *Handlers) downloadDocument(ctx context.Context, fileID string) ([]byte, error) {
	url, err := h.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching file", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
}

func (h *Handlers) handleSyllabusConfirm(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	deadlines := h.states.takeDeadlines(userID)
	if len(deadlines) == 0 {
		h.answerCallbackWithAlert(callback.ID, "Нет событий для создания.")
		return
	}

	created := 0
	for _, d := range deadlines {
		text := d.Title
		if d.Note != "" && d.Note != d.Title {
			text += " (" + d.Note + ")"
		}
		if _, err := h.reminders.Create(ctx, userID, text, d.At, models.RepeatNone, models.SourceSyllabus); err != nil {
			h.logger.Error("failed to create syllabus reminder",
				zap.Int64("user_id", userID),
				zap.String("title", d.Title),
				zap.Error(err))
			continue
		}
		created++
	}

	h.editMessage(callback.Message.Chat.ID, callback.Message.MessageID,
		fmt.Sprintf("✅ Создано напоминаний: %d. Список: /list_reminders", created))
	h.answerCallback(callback.ID, "")
}

func (h *Handlers) handleSyllabusCancel(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	h.states.takeDeadlines(callback.From.ID)
	h.editMessage(callback.Message.Chat.ID, callback.Message.MessageID, "❌ Ок, напоминания не созданы.")
	h.answerCallback(callback.ID, "")
}
