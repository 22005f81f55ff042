// Package faultinject forces designated backend calls to fail on demand so
// error paths can be tested without real outages. Nothing in production code
// constructs an Injector.
package faultinject

import (
	"context"
	"errors"
	"sync"
	"time"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
	"absence-assistant/internal/repository"
	"absence-assistant/internal/timesheet"
)

// Op names an injectable backend call.
type Op string

const (
	OpUpsert           Op = "absences.upsert"
	OpFind             Op = "absences.find"
	OpQuery            Op = "absences.query"
	OpSubmissionGet    Op = "submissions.get"
	OpSubmissionRecord Op = "submissions.record"
	OpSubmit           Op = "timesheet.submit"
)

// ErrInjected is the default cause of an injected failure.
var ErrInjected = errors.New("injected fault")

const forever = -1

type rule struct {
	skip      int
	remaining int
	err       error
}

// Injector decides, per Op and call count, whether a call fails. It is safe
// for concurrent use.
type Injector struct {
	mu    sync.Mutex
	rules map[Op]*rule
	calls map[Op]int
}

func New() *Injector {
	return &Injector{
		rules: make(map[Op]*rule),
		calls: make(map[Op]int),
	}
}

// FailNext makes the next n calls of op fail with err (ErrInjected if nil).
func (i *Injector) FailNext(op Op, n int, err error) {
	i.set(op, &rule{remaining: n, err: err})
}

// FailAlways makes every call of op fail until Clear.
func (i *Injector) FailAlways(op Op, err error) {
	i.set(op, &rule{remaining: forever, err: err})
}

// FailAfter lets ok calls of op succeed, then fails every later one.
func (i *Injector) FailAfter(op Op, ok int, err error) {
	i.set(op, &rule{skip: ok, remaining: forever, err: err})
}

func (i *Injector) Clear(op Op) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.rules, op)
}

// Calls reports how many times op was attempted, failed or not.
func (i *Injector) Calls(op Op) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls[op]
}

// Check records one attempt of op and returns the injected failure, wrapped
// as a service error, when a rule fires.
func (i *Injector) Check(op Op) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.calls[op]++
	r, ok := i.rules[op]
	if !ok {
		return nil
	}
	if r.skip > 0 {
		r.skip--
		return nil
	}
	if r.remaining == 0 {
		delete(i.rules, op)
		return nil
	}
	if r.remaining > 0 {
		r.remaining--
	}
	return apperr.Service(string(op), r.err)
}

func (i *Injector) set(op Op, r *rule) {
	if r.err == nil {
		r.err = ErrInjected
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.rules[op] = r
}

// Absences wraps an absence store so each call consults the injector first.
func Absences(inner repository.AbsenceRepository, inj *Injector) repository.AbsenceRepository {
	return &absenceStore{inner: inner, inj: inj}
}

type absenceStore struct {
	inner repository.AbsenceRepository
	inj   *Injector
}

func (s *absenceStore) Upsert(ctx context.Context, a models.Absence) (*models.Absence, error) {
	if err := s.inj.Check(OpUpsert); err != nil {
		return nil, err
	}
	return s.inner.Upsert(ctx, a)
}

func (s *absenceStore) Find(ctx context.Context, userID string, date time.Time) (*models.Absence, error) {
	if err := s.inj.Check(OpFind); err != nil {
		return nil, err
	}
	return s.inner.Find(ctx, userID, date)
}

func (s *absenceStore) Query(ctx context.Context, userID string, r calendar.DateRange) ([]models.Absence, error) {
	if err := s.inj.Check(OpQuery); err != nil {
		return nil, err
	}
	return s.inner.Query(ctx, userID, r)
}

// Submissions wraps the submission ledger.
func Submissions(inner repository.WeekSubmissionRepository, inj *Injector) repository.WeekSubmissionRepository {
	return &submissionStore{inner: inner, inj: inj}
}

type submissionStore struct {
	inner repository.WeekSubmissionRepository
	inj   *Injector
}

func (s *submissionStore) Get(ctx context.Context, userID string, year, week int) (*models.WeekSubmission, error) {
	if err := s.inj.Check(OpSubmissionGet); err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, userID, year, week)
}

func (s *submissionStore) Record(ctx context.Context, sub models.WeekSubmission) (*models.WeekSubmission, bool, error) {
	if err := s.inj.Check(OpSubmissionRecord); err != nil {
		return nil, false, err
	}
	return s.inner.Record(ctx, sub)
}

// Submitter wraps a timesheet submitter.
func Submitter(inner timesheet.Submitter, inj *Injector) timesheet.Submitter {
	return &submitter{inner: inner, inj: inj}
}

type submitter struct {
	inner timesheet.Submitter
	inj   *Injector
}

func (s *submitter) Submit(ctx context.Context, ts timesheet.Timesheet) (*timesheet.Receipt, error) {
	if err := s.inj.Check(OpSubmit); err != nil {
		return nil, err
	}
	return s.inner.Submit(ctx, ts)
}
