package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
	"absence-assistant/internal/service"
)

const (
	confirmSubmitPrefix = "confirm_submit_"
	cancelSubmit        = "cancel_submit"
)

// showWeek handles /week [YEAR WEEK].
func (h *Handler) showWeek(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	year, week, err := h.parseWeek(args)
	if err != nil {
		h.replyError(chatID, "parse_week", err)
		return
	}

	result, err := h.svc.GetWeekAbsences(ctx, userIDOf(message.From), year, week)
	if err != nil {
		h.replyError(chatID, "get_week_absences", err)
		return
	}

	text := fmt.Sprintf("🗓 Week %d-W%02d (%s..%s), %s", year, week, result.StartDate, result.EndDate, stateLabel(result.State))
	if len(result.Absences) == 0 {
		text += "\nNo absences."
	} else {
		text += "\n" + formatAbsences(result.Absences)
	}
	h.reply(chatID, text)
}

// submitWeek handles /submit [YEAR WEEK]. A week with absences is not
// submitted until the user confirms it on the inline keyboard.
func (h *Handler) submitWeek(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	year, week, err := h.parseWeek(args)
	if err != nil {
		h.replyError(chatID, "parse_week", err)
		return
	}

	result, err := h.svc.SubmitWeek(ctx, userIDOf(message.From), year, week, false)
	if err != nil {
		h.replyError(chatID, "submit_week", err)
		return
	}

	if result.State != models.StateReviewRequired {
		h.reply(chatID, submittedText(result))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Submit", fmt.Sprintf("%s%d_%d", confirmSubmitPrefix, year, week)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelSubmit),
		),
	)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"⚠️ Week %d-W%02d has %d absence(s):\n%s\n\nSubmit the timesheet with these absences?",
		year, week, len(result.Absences), formatAbsences(result.Absences)))
	msg.ReplyMarkup = keyboard
	h.send(msg)
}

// confirmSubmit handles the confirm_submit_YEAR_WEEK callback.
func (h *Handler) confirmSubmit(ctx context.Context, chatID int64, userID, payload string) {
	parts := strings.Split(payload, "_")
	if len(parts) != 2 {
		h.reply(chatID, "❌ Invalid confirmation.")
		return
	}
	year, errYear := strconv.Atoi(parts[0])
	week, errWeek := strconv.Atoi(parts[1])
	if errYear != nil || errWeek != nil {
		h.reply(chatID, "❌ Invalid confirmation.")
		return
	}

	result, err := h.svc.SubmitWeek(ctx, userID, year, week, true)
	if err != nil {
		h.replyError(chatID, "submit_week", err)
		return
	}
	h.reply(chatID, submittedText(result))
}

// parseWeek reads "YEAR WEEK"; empty args mean the current ISO week.
func (h *Handler) parseWeek(args string) (int, int, error) {
	parts := strings.Fields(args)
	switch len(parts) {
	case 0:
		year, week := calendar.ISOWeekOf(h.clock.Now())
		return year, week, nil
	case 2:
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, apperr.Validation("year", "must be a number")
		}
		week, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, apperr.Validation("week_no", "must be a number")
		}
		return year, week, nil
	default:
		return 0, 0, apperr.Validation("week", "usage: YEAR WEEK, e.g. 2025 10")
	}
}

func submittedText(result *service.SubmissionResult) string {
	if result.AlreadySubmitted {
		return fmt.Sprintf("ℹ️ Week %d-W%02d was already submitted (reference %s).", result.Year, result.Week, result.Reference)
	}
	return fmt.Sprintf("✅ Week %d-W%02d submitted (reference %s).", result.Year, result.Week, result.Reference)
}

func stateLabel(state models.SubmissionState) string {
	switch state {
	case models.StateSubmitted:
		return "submitted"
	case models.StateReviewRequired:
		return "awaiting review"
	default:
		return "not submitted"
	}
}
