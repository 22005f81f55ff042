// Package tools exposes the absence operations as named tools taking
// primitive arguments, the shape an agent layer dispatches on.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
	"absence-assistant/internal/service"
)

const (
	FillAbsence     = "fill_absence"
	IsAbsent        = "is_absent"
	GetAbsences     = "get_absences"
	CountAbsences   = "count_absences"
	GetWeekAbsences = "get_week_absences"
	SubmitWeek      = "submit_week"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Service is the set of operations the tools dispatch to.
type Service interface {
	FillAbsence(ctx context.Context, userID, date, reasonText string) (*service.FilledAbsence, error)
	IsAbsent(ctx context.Context, userID, date string) (*service.AbsenceStatus, error)
	GetAbsences(ctx context.Context, userID string, r calendar.DateRange) ([]models.Absence, error)
	CountAbsences(ctx context.Context, userID string, r calendar.DateRange) (*service.AbsenceCount, error)
	GetWeekAbsences(ctx context.Context, userID string, year, week int) (*service.WeekAbsences, error)
	SubmitWeek(ctx context.Context, userID string, year, week int, confirmed bool) (*service.SubmissionResult, error)
}

// Args carries every tool argument; each tool reads the ones it needs.
type Args struct {
	UserID    string `json:"user_id"`
	Date      string `json:"date,omitempty"`
	Reason    string `json:"reason,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Year      int    `json:"year,omitempty"`
	WeekNo    int    `json:"week_no,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// Result is the JSON-shaped answer of one invocation.
type Result struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Info describes a tool for discovery.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Arguments   []string `json:"arguments"`
}

type tool struct {
	info Info
	run  func(ctx context.Context, args Args) (any, error)
}

type Registry struct {
	svc    Service
	tools  map[string]tool
	order  []string
	logger *logrus.Logger
}

func NewRegistry(svc Service, logger *logrus.Logger) *Registry {
	r := &Registry{
		svc:    svc,
		tools:  make(map[string]tool),
		logger: logger,
	}

	r.register(Info{
		Name:        FillAbsence,
		Description: "Record an absence for a past or current day, classifying the free-text reason",
		Arguments:   []string{"user_id", "date", "reason"},
	}, func(ctx context.Context, a Args) (any, error) {
		return r.svc.FillAbsence(ctx, a.UserID, a.Date, a.Reason)
	})

	r.register(Info{
		Name:        IsAbsent,
		Description: "Check whether the user is absent on a date",
		Arguments:   []string{"user_id", "date"},
	}, func(ctx context.Context, a Args) (any, error) {
		return r.svc.IsAbsent(ctx, a.UserID, a.Date)
	})

	r.register(Info{
		Name:        GetAbsences,
		Description: "List absences between two dates, inclusive",
		Arguments:   []string{"user_id", "start_date", "end_date"},
	}, func(ctx context.Context, a Args) (any, error) {
		dr, err := calendar.ParseDateRange(a.StartDate, a.EndDate)
		if err != nil {
			return nil, err
		}
		return r.svc.GetAbsences(ctx, a.UserID, dr)
	})

	r.register(Info{
		Name:        CountAbsences,
		Description: "Count absences between two dates, split by justification and reason",
		Arguments:   []string{"user_id", "start_date", "end_date"},
	}, func(ctx context.Context, a Args) (any, error) {
		dr, err := calendar.ParseDateRange(a.StartDate, a.EndDate)
		if err != nil {
			return nil, err
		}
		return r.svc.CountAbsences(ctx, a.UserID, dr)
	})

	r.register(Info{
		Name:        GetWeekAbsences,
		Description: "List absences in an ISO week",
		Arguments:   []string{"user_id", "year", "week_no"},
	}, func(ctx context.Context, a Args) (any, error) {
		return r.svc.GetWeekAbsences(ctx, a.UserID, a.Year, a.WeekNo)
	})

	r.register(Info{
		Name:        SubmitWeek,
		Description: "Submit an ISO week timesheet; weeks with absences need confirmed=true",
		Arguments:   []string{"user_id", "year", "week_no", "confirmed"},
	}, func(ctx context.Context, a Args) (any, error) {
		return r.svc.SubmitWeek(ctx, a.UserID, a.Year, a.WeekNo, a.Confirmed)
	})

	return r
}

func (r *Registry) register(info Info, run func(ctx context.Context, args Args) (any, error)) {
	r.tools[info.Name] = tool{info: info, run: run}
	r.order = append(r.order, info.Name)
}

// Names lists the tools in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) Describe() []Info {
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.tools[name].info)
	}
	return infos
}

// Invoke runs the named tool. Failures are folded into the Result; the
// taxonomy branch is reported in Kind.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) Result {
	t, ok := r.tools[name]
	if !ok {
		return r.fail(name, apperr.Validation("tool", "unknown tool %q", name))
	}

	data, err := t.run(ctx, args)
	if err != nil {
		return r.fail(name, err)
	}
	return Result{Status: StatusOK, Data: data}
}

// InvokeJSON decodes raw arguments before invoking.
func (r *Registry) InvokeJSON(ctx context.Context, name string, raw []byte) Result {
	var args Args
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return r.fail(name, apperr.Validation("arguments", "invalid JSON: %v", err))
		}
	}
	return r.Invoke(ctx, name, args)
}

func (r *Registry) fail(name string, err error) Result {
	kind := apperr.Kind(err)
	entry := r.logger.WithError(err).WithFields(logrus.Fields{
		"tool": name,
		"kind": kind,
	})
	switch kind {
	case "validation":
		entry.Info("Tool rejected input")
	default:
		entry.Error("Tool failed")
	}

	return Result{
		Status: StatusError,
		Error:  err.Error(),
		Kind:   kind,
	}
}

// String renders a result for logs and chat replies.
func (r Result) String() string {
	if r.OK() {
		b, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Sprintf("ok: %v", r.Data)
		}
		return string(b)
	}
	return fmt.Sprintf("%s error: %s", r.Kind, r.Error)
}
