package timesheet

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailSubmitter emails the week summary to the timesheet approvers.
type MailSubmitter struct {
	sender Sender
	from   string
	to     []string
	logger *logrus.Logger
	now    func() time.Time
}

func NewMailSubmitter(sender Sender, from string, to []string, logger *logrus.Logger, clock calendar.Clock) *MailSubmitter {
	return &MailSubmitter{sender: sender, from: from, to: to, logger: logger, now: clock.Now}
}

// NewDialer builds the SMTP sender.
func NewDialer(host string, port int, user, pass string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, pass)
}

var mailTemplate = template.Must(template.New("timesheet").Parse(`<h3>Timesheet {{.Label}} for {{.UserID}}</h3>
<p>Week {{.Range}}</p>
{{if .Absences}}<table border="1" cellpadding="4">
<tr><th>Date</th><th>Reason</th><th>Justified</th></tr>
{{range .Absences}}<tr><td>{{.Date}}</td><td>{{.Reason}}</td><td>{{if .Justified}}yes{{else}}no{{end}}</td></tr>
{{end}}</table>{{else}}<p>No absences.</p>{{end}}`))

func (s *MailSubmitter) Submit(ctx context.Context, ts Timesheet) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Service(submitOp, err)
	}
	if len(s.to) == 0 {
		return nil, apperr.Service(submitOp, fmt.Errorf("no mail recipients configured"))
	}

	var body bytes.Buffer
	if err := mailTemplate.Execute(&body, ts); err != nil {
		return nil, apperr.Service(submitOp, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", fmt.Sprintf("Timesheet %s %s", ts.UserID, ts.Label()))
	m.SetBody("text/html", body.String())

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": ts.UserID,
			"week":    ts.Label(),
		}).Error("Failed to mail timesheet")
		return nil, apperr.Service(submitOp, err)
	}

	return &Receipt{
		Reference:   fmt.Sprintf("mail:%s:%s", ts.UserID, ts.Label()),
		Backend:     "mail",
		SubmittedAt: s.now(),
	}, nil
}
