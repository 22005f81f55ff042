package handler

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
)

// fillAbsence handles /absent DATE REASON...
func (h *Handler) fillAbsence(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	parts := strings.Fields(args)
	if len(parts) < 2 {
		h.reply(chatID, "Usage: /absent DATE REASON\nExample: /absent 2025-03-10 under the weather")
		return
	}

	date := h.resolveDate(parts[0])
	reason := strings.Join(parts[1:], " ")

	absence, err := h.svc.FillAbsence(ctx, userIDOf(message.From), date, reason)
	if err != nil {
		h.replyError(chatID, "fill_absence", err)
		return
	}

	text := fmt.Sprintf("✅ Absence recorded for %s\nReason: %s (%s)",
		absence.Date, absence.Reason, justifiedLabel(absence.Justified))
	if absence.LowConfidence {
		text += fmt.Sprintf("\n\n🤔 I could not match %q to a known reason, so it was filed as %s. Send /absent again with another wording to change it.",
			reason, absence.Reason)
	}
	h.reply(chatID, text)
}

// checkAbsence handles /check [DATE].
func (h *Handler) checkAbsence(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date := h.resolveDate(strings.TrimSpace(args))
	if date == "" {
		date = calendar.FormatDate(h.clock.Now())
	}

	status, err := h.svc.IsAbsent(ctx, userIDOf(message.From), date)
	if err != nil {
		h.replyError(chatID, "is_absent", err)
		return
	}

	if !status.IsAbsent {
		h.reply(chatID, fmt.Sprintf("You are not marked absent on %s.", status.Date))
		return
	}
	h.reply(chatID, fmt.Sprintf("You are marked absent on %s: %s (%s).",
		status.Date, *status.Reason, justifiedLabel(*status.Justified)))
}

// listAbsences handles /absences START END.
func (h *Handler) listAbsences(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	r, ok := h.parseRange(chatID, args, "/absences")
	if !ok {
		return
	}

	absences, err := h.svc.GetAbsences(ctx, userIDOf(message.From), r)
	if err != nil {
		h.replyError(chatID, "get_absences", err)
		return
	}

	if len(absences) == 0 {
		h.reply(chatID, fmt.Sprintf("No absences between %s and %s.", calendar.FormatDate(r.Start()), calendar.FormatDate(r.End())))
		return
	}
	h.reply(chatID, fmt.Sprintf("📋 Absences %s:\n%s", r, formatAbsences(absences)))
}

// countAbsences handles /count START END.
func (h *Handler) countAbsences(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	r, ok := h.parseRange(chatID, args, "/count")
	if !ok {
		return
	}

	count, err := h.svc.CountAbsences(ctx, userIDOf(message.From), r)
	if err != nil {
		h.replyError(chatID, "count_absences", err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Absences %s\n", r)
	fmt.Fprintf(&b, "Total: %d\nJustified: %d\nUnjustified: %d\n", count.Total, count.Justified, count.Unjustified)
	for _, reason := range models.Reasons {
		fmt.Fprintf(&b, "• %s: %d\n", reason, count.ByReason[reason])
	}
	h.reply(chatID, strings.TrimRight(b.String(), "\n"))
}

func (h *Handler) parseRange(chatID int64, args, command string) (calendar.DateRange, bool) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, fmt.Sprintf("Usage: %s START END\nExample: %s 2025-03-01 2025-03-31", command, command))
		return calendar.DateRange{}, false
	}

	r, err := calendar.ParseDateRange(h.resolveDate(parts[0]), h.resolveDate(parts[1]))
	if err != nil {
		h.replyError(chatID, "parse_range", err)
		return calendar.DateRange{}, false
	}
	return r, true
}

// resolveDate expands "today" and "yesterday"; anything else is passed through
// for the service to validate.
func (h *Handler) resolveDate(s string) string {
	switch strings.ToLower(s) {
	case "today":
		return calendar.FormatDate(h.clock.Now())
	case "yesterday":
		return calendar.FormatDate(h.clock.Now().AddDate(0, 0, -1))
	default:
		return s
	}
}

func formatAbsences(absences []models.Absence) string {
	lines := make([]string, 0, len(absences))
	for _, a := range absences {
		lines = append(lines, fmt.Sprintf("• %s %s (%s)", a.Date, a.Reason, justifiedLabel(a.Justified)))
	}
	return strings.Join(lines, "\n")
}

func justifiedLabel(justified bool) string {
	if justified {
		return "justified"
	}
	return "unjustified"
}
