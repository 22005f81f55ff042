package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/tools"
	"absence-assistant/pkg/telegram"
)

const requestTimeout = 30 * time.Second

// Handler turns Telegram updates into absence operations. The Telegram user
// ID is the absence user ID.
type Handler struct {
	bot    telegram.Sender
	svc    tools.Service
	clock  calendar.Clock
	logger *logrus.Logger
}

func NewHandler(bot telegram.Sender, svc tools.Service, clock calendar.Clock, logger *logrus.Logger) *Handler {
	return &Handler{
		bot:    bot,
		svc:    svc,
		clock:  clock,
		logger: logger,
	}
}

// HandleUpdates processes updates until the channel closes or ctx is done.
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}
	h.handleMessage(ctx, update.Message)
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"username": message.From.UserName,
	}).Debug(message.Text)

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.reply(message.Chat.ID, "I only understand commands. Send /help to see them.")
}

func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data

	// the keyboard is single-use
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	if _, err := h.bot.Request(editMsg); err != nil {
		h.logger.WithError(err).Warn("Failed to remove inline keyboard")
	}

	switch {
	case strings.HasPrefix(data, confirmSubmitPrefix):
		h.confirmSubmit(ctx, chatID, userIDOf(callback.From), strings.TrimPrefix(data, confirmSubmitPrefix))
	case data == cancelSubmit:
		h.reply(chatID, "Submission cancelled. The week stays open.")
	default:
		h.logger.WithField("data", data).Warn("Unknown callback")
	}

	if _, err := h.bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.logger.WithError(err).Debug("Failed to answer callback")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", msg.ChatID).Error("Failed to send message")
	}
}

// replyError renders a failure for the chat. Validation messages are shown
// as is; backend failures are not.
func (h *Handler) replyError(chatID int64, op string, err error) {
	if apperr.IsValidation(err) {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"chat_id": chatID,
		"op":      op,
	}).Error("Command failed")
	h.reply(chatID, "⚠️ The absence service is unavailable right now. Please try again later.")
}

func userIDOf(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strconv.FormatInt(u.ID, 10)
}
