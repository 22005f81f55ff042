// Package timesheet hands a confirmed week of absences to the system that
// owns timesheets.
package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
)

// Timesheet is one user's ISO week as submitted.
type Timesheet struct {
	UserID   string
	Year     int
	Week     int
	Range    calendar.DateRange
	Absences []models.Absence
}

func (t Timesheet) Label() string {
	return fmt.Sprintf("%d-W%02d", t.Year, t.Week)
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	Reference   string    `json:"reference"`
	Backend     string    `json:"backend"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Submitter performs the external side effect of submitting a week.
// Failures are reported as *apperr.ServiceError.
type Submitter interface {
	Submit(ctx context.Context, ts Timesheet) (*Receipt, error)
}

// LogSubmitter only records the submission in the log. It is the default
// backend when no timesheet system is configured.
type LogSubmitter struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewLogSubmitter(logger *logrus.Logger, clock calendar.Clock) *LogSubmitter {
	return &LogSubmitter{logger: logger, now: clock.Now}
}

func (s *LogSubmitter) Submit(ctx context.Context, ts Timesheet) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Service(submitOp, err)
	}

	receipt := &Receipt{
		Reference:   uuid.NewString(),
		Backend:     "log",
		SubmittedAt: s.now(),
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":   ts.UserID,
		"week":      ts.Label(),
		"range":     ts.Range.String(),
		"absences":  len(ts.Absences),
		"reference": receipt.Reference,
	}).Info("Timesheet submitted")
	return receipt, nil
}
