// internal/service/absence.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/classifier"
	"absence-assistant/internal/models"
	"absence-assistant/internal/repository"
	"absence-assistant/internal/timesheet"
)

// ReasonClassifier resolves free text to a canonical reason.
type ReasonClassifier interface {
	Classify(text string) classifier.Classification
}

// AbsenceService is the entry point for every absence operation. It validates
// input before touching the store and holds no per-key locks: atomicity of the
// upsert is the store's contract.
type AbsenceService struct {
	absences    repository.AbsenceRepository
	submissions repository.WeekSubmissionRepository
	classifier  ReasonClassifier
	submitter   timesheet.Submitter
	clock       calendar.Clock
	readPolicy  calendar.Policy
	logger      *logrus.Logger
}

type Option func(*AbsenceService)

func WithClock(c calendar.Clock) Option {
	return func(s *AbsenceService) { s.clock = c }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *AbsenceService) { s.logger = l }
}

// WithMaxSpanDays caps the length of a queried range.
func WithMaxSpanDays(days int) Option {
	return func(s *AbsenceService) { s.readPolicy.MaxSpanDays = days }
}

// WithFutureReads lets range queries reach past today.
func WithFutureReads(allow bool) Option {
	return func(s *AbsenceService) { s.readPolicy.AllowFuture = allow }
}

func NewAbsenceService(
	absences repository.AbsenceRepository,
	submissions repository.WeekSubmissionRepository,
	reasonClassifier ReasonClassifier,
	submitter timesheet.Submitter,
	opts ...Option,
) *AbsenceService {
	s := &AbsenceService{
		absences:    absences,
		submissions: submissions,
		classifier:  reasonClassifier,
		submitter:   submitter,
		clock:       calendar.SystemClock{},
		readPolicy:  calendar.Policy{MaxSpanDays: calendar.DefaultMaxSpanDays},
		logger:      logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FilledAbsence is the stored record plus how its reason was resolved.
type FilledAbsence struct {
	models.Absence
	Confidence     float64 `json:"confidence"`
	MatchedSynonym string  `json:"matched_synonym,omitempty"`
	LowConfidence  bool    `json:"low_confidence"`
}

// AbsenceStatus answers is_absent. Reason, Justified and CreatedAt are set
// only when IsAbsent is true.
type AbsenceStatus struct {
	UserID    string         `json:"user_id"`
	Date      string         `json:"date"`
	IsAbsent  bool           `json:"is_absent"`
	Reason    *models.Reason `json:"reason,omitempty"`
	Justified *bool          `json:"justified,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// AbsenceCount summarizes one get_absences result.
type AbsenceCount struct {
	UserID         string                `json:"user_id"`
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date"`
	Total          int                   `json:"total"`
	Justified      int                   `json:"justified"`
	Unjustified    int                   `json:"unjustified"`
	ByReason       map[models.Reason]int `json:"by_reason"`
	JustifiedRatio decimal.Decimal       `json:"justified_ratio"`
}

type WeekAbsences struct {
	UserID    string                 `json:"user_id"`
	Year      int                    `json:"year"`
	Week      int                    `json:"week"`
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	State     models.SubmissionState `json:"state"`
	Absences  []models.Absence       `json:"absences"`
}

// SubmissionResult is the outcome of one submit_week call.
type SubmissionResult struct {
	UserID           string                 `json:"user_id"`
	Year             int                    `json:"year"`
	Week             int                    `json:"week"`
	StartDate        string                 `json:"start_date"`
	EndDate          string                 `json:"end_date"`
	State            models.SubmissionState `json:"state"`
	Absences         []models.Absence       `json:"absences"`
	Reference        string                 `json:"reference,omitempty"`
	SubmittedAt      *time.Time             `json:"submitted_at,omitempty"`
	AlreadySubmitted bool                   `json:"already_submitted,omitempty"`
}

// FillAbsence classifies reasonText and records the absence for (userID, date),
// overwriting any earlier record for the same day.
func (s *AbsenceService) FillAbsence(ctx context.Context, userID, date, reasonText string) (*FilledAbsence, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	day, err := calendar.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if day.After(calendar.Day(now)) {
		return nil, apperr.Validation("date", "%s is in the future", calendar.FormatDate(day))
	}

	cls := s.classifier.Classify(reasonText)

	stored, err := s.absences.Upsert(ctx, models.Absence{
		UserID:    userID,
		Date:      calendar.FormatDate(day),
		Reason:    cls.Reason,
		Justified: cls.Reason.Justified(),
		CreatedAt: now.UTC(),
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"date":    calendar.FormatDate(day),
		}).Error("Failed to record absence")
		return nil, fmt.Errorf("fill absence: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"date":       stored.Date,
		"reason":     stored.Reason,
		"confidence": cls.Confidence,
	}).Info("Absence recorded")

	return &FilledAbsence{
		Absence:        *stored,
		Confidence:     cls.Confidence,
		MatchedSynonym: cls.MatchedSynonym,
		LowConfidence:  cls.LowConfidence,
	}, nil
}

// IsAbsent looks up a single day. A day with no record, future days included,
// is simply not an absence.
func (s *AbsenceService) IsAbsent(ctx context.Context, userID, date string) (*AbsenceStatus, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	day, err := calendar.ParseDate("date", date)
	if err != nil {
		return nil, err
	}

	absence, err := s.absences.Find(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("is absent: %w", err)
	}

	status := &AbsenceStatus{UserID: userID, Date: calendar.FormatDate(day)}
	if absence != nil {
		status.IsAbsent = true
		status.Reason = &absence.Reason
		status.Justified = &absence.Justified
		status.CreatedAt = &absence.CreatedAt
	}
	return status, nil
}

// GetAbsences lists the user's absences in r, ascending by date.
func (s *AbsenceService) GetAbsences(ctx context.Context, userID string, r calendar.DateRange) ([]models.Absence, error) {
	return s.getAbsences(ctx, userID, r, s.readPolicy)
}

// CountAbsences derives every figure from a single GetAbsences result, so
// Justified + Unjustified always equals Total.
func (s *AbsenceService) CountAbsences(ctx context.Context, userID string, r calendar.DateRange) (*AbsenceCount, error) {
	absences, err := s.GetAbsences(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	count := &AbsenceCount{
		UserID:         strings.TrimSpace(userID),
		StartDate:      calendar.FormatDate(r.Start()),
		EndDate:        calendar.FormatDate(r.End()),
		Total:          len(absences),
		ByReason:       make(map[models.Reason]int, len(models.Reasons)),
		JustifiedRatio: decimal.Zero,
	}
	for _, reason := range models.Reasons {
		count.ByReason[reason] = 0
	}
	for _, a := range absences {
		count.ByReason[a.Reason]++
		if a.Justified {
			count.Justified++
		} else {
			count.Unjustified++
		}
	}
	if count.Total > 0 {
		count.JustifiedRatio = decimal.NewFromInt(int64(count.Justified)).
			Div(decimal.NewFromInt(int64(count.Total))).
			Round(4)
	}
	return count, nil
}

// GetWeekAbsences resolves the ISO week and lists its absences. Weeks may
// extend past today.
func (s *AbsenceService) GetWeekAbsences(ctx context.Context, userID string, year, week int) (*WeekAbsences, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	r, err := calendar.ResolveISOWeek(year, week)
	if err != nil {
		return nil, err
	}

	absences, err := s.getAbsences(ctx, userID, r, s.weekPolicy())
	if err != nil {
		return nil, err
	}

	state := models.StateNotSubmitted
	submitted, err := s.submissions.Get(ctx, userID, year, week)
	if err != nil {
		return nil, fmt.Errorf("get week absences: %w", err)
	}
	if submitted != nil {
		state = models.StateSubmitted
	}

	return &WeekAbsences{
		UserID:    userID,
		Year:      year,
		Week:      week,
		StartDate: calendar.FormatDate(r.Start()),
		EndDate:   calendar.FormatDate(r.End()),
		State:     state,
		Absences:  absences,
	}, nil
}

// SubmitWeek runs the two-phase submit. A week holding absences needs
// confirmed=true to cross into SUBMITTED; without it the absences are returned
// for review and nothing is submitted. A week already SUBMITTED is returned
// as is, without a second submission.
func (s *AbsenceService) SubmitWeek(ctx context.Context, userID string, year, week int, confirmed bool) (*SubmissionResult, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	r, err := calendar.ResolveISOWeek(year, week)
	if err != nil {
		return nil, err
	}
	// the current week may be submitted, a week that has not started may not
	if r.Start().After(calendar.Day(s.clock.Now())) {
		return nil, apperr.Validation("week_no", "%d-W%02d starts %s, in the future", year, week, calendar.FormatDate(r.Start()))
	}

	result := &SubmissionResult{
		UserID:    userID,
		Year:      year,
		Week:      week,
		StartDate: calendar.FormatDate(r.Start()),
		EndDate:   calendar.FormatDate(r.End()),
		Absences:  []models.Absence{},
	}

	existing, err := s.submissions.Get(ctx, userID, year, week)
	if err != nil {
		return nil, fmt.Errorf("submit week: %w", err)
	}
	if existing != nil {
		return alreadySubmitted(result, existing), nil
	}

	// the gate reads before the write it guards
	absences, err := s.getAbsences(ctx, userID, r, s.weekPolicy())
	if err != nil {
		return nil, err
	}
	result.Absences = absences

	if len(absences) > 0 && !confirmed {
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"year":     year,
			"week":     week,
			"absences": len(absences),
		}).Info("Week submission needs review")
		result.State = models.StateReviewRequired
		return result, nil
	}

	receipt, err := s.submitter.Submit(ctx, timesheet.Timesheet{
		UserID:   userID,
		Year:     year,
		Week:     week,
		Range:    r,
		Absences: absences,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"year":    year,
			"week":    week,
		}).Error("Timesheet submission failed")
		return nil, fmt.Errorf("submit week: %w", err)
	}

	stored, created, err := s.submissions.Record(ctx, models.WeekSubmission{
		UserID:      userID,
		Year:        year,
		Week:        week,
		Reference:   receipt.Reference,
		Absences:    len(absences),
		SubmittedAt: receipt.SubmittedAt,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":   userID,
			"year":      year,
			"week":      week,
			"reference": receipt.Reference,
		}).Error("Week submitted but not recorded")
		return nil, fmt.Errorf("record week submission: %w", err)
	}
	if !created {
		s.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"year":      year,
			"week":      week,
			"reference": receipt.Reference,
		}).Warn("Week was submitted concurrently")
		return alreadySubmitted(result, stored), nil
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"year":      year,
		"week":      week,
		"reference": stored.Reference,
		"confirmed": confirmed,
	}).Info("Week submitted")

	result.State = models.StateSubmitted
	result.Reference = stored.Reference
	result.SubmittedAt = &stored.SubmittedAt
	return result, nil
}

func (s *AbsenceService) getAbsences(ctx context.Context, userID string, r calendar.DateRange, policy calendar.Policy) ([]models.Absence, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(calendar.Day(s.clock.Now()), policy); err != nil {
		return nil, err
	}

	absences, err := s.absences.Query(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("get absences: %w", err)
	}
	return absences, nil
}

func (s *AbsenceService) weekPolicy() calendar.Policy {
	p := s.readPolicy
	p.AllowFuture = true
	return p
}

func alreadySubmitted(result *SubmissionResult, sub *models.WeekSubmission) *SubmissionResult {
	result.State = models.StateSubmitted
	result.AlreadySubmitted = true
	result.Reference = sub.Reference
	result.SubmittedAt = &sub.SubmittedAt
	return result
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperr.Validation("user_id", "must not be empty")
	}
	return userID, nil
}
