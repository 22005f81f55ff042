package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)

	case "absent":
		h.fillAbsence(ctx, message, args)
	case "check":
		h.checkAbsence(ctx, message, args)
	case "absences":
		h.listAbsences(ctx, message, args)
	case "count":
		h.countAbsences(ctx, message, args)

	case "week":
		h.showWeek(ctx, message, args)
	case "submit":
		h.submitWeek(ctx, message, args)

	default:
		h.reply(message.Chat.ID, "Unknown command. Send /help to see what I can do.")
	}
}

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	name := "there"
	if message.From != nil && message.From.FirstName != "" {
		name = message.From.FirstName
	}
	h.reply(message.Chat.ID, "👋 Hi "+name+"! I keep track of your absences and submit your weekly timesheet.\n\nSend /help to see the commands.")
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, `*Absences*
/absent DATE REASON - record an absence, e.g. /absent yesterday feeling unwell
/check [DATE] - am I marked absent (default today)
/absences START END - list absences in a range
/count START END - count absences in a range

*Timesheets*
/week [YEAR WEEK] - absences of an ISO week (default current)
/submit [YEAR WEEK] - submit an ISO week

Dates are YYYY-MM-DD, "today" or "yesterday".`)
	msg.ParseMode = tgbotapi.ModeMarkdown
	h.send(msg)
}
