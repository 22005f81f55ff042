package timesheet_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
	"absence-assistant/internal/timesheet"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func week10(t *testing.T) timesheet.Timesheet {
	t.Helper()
	r, err := calendar.ResolveISOWeek(2025, 10)
	require.NoError(t, err)
	return timesheet.Timesheet{
		UserID: "u1",
		Year:   2025,
		Week:   10,
		Range:  r,
		Absences: []models.Absence{
			{UserID: "u1", Date: "2025-03-04", Reason: models.ReasonSick, Justified: true},
			{UserID: "u1", Date: "2025-03-06", Reason: models.ReasonUnjustified},
		},
	}
}

func TestLogSubmitter_Submit(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s := timesheet.NewLogSubmitter(logger, calendar.NewFixedClock(now))

	receipt, err := s.Submit(context.Background(), week10(t))

	require.NoError(t, err)
	assert.Equal(t, "log", receipt.Backend)
	assert.NotEmpty(t, receipt.Reference)
	assert.Equal(t, now, receipt.SubmittedAt)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "2025-W10", hook.LastEntry().Data["week"])
}

func TestHTTPSubmitter_PostsWeek(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ts-42"}`))
	}))
	defer srv.Close()

	logger, _ := logtest.NewNullLogger()
	s := timesheet.NewHTTPSubmitter(srv.URL+"/", "secret", srv.Client(), logger, calendar.NewFixedClock(now))

	receipt, err := s.Submit(context.Background(), week10(t))

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users/u1/timesheets/submit", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, float64(10), gotBody["weekNumber"])
	assert.Equal(t, "2025-03-03", gotBody["startDate"])
	assert.Equal(t, "2025-03-09", gotBody["endDate"])
	assert.Equal(t, "ts-42", receipt.Reference)
	assert.Equal(t, "http", receipt.Backend)
}

func TestHTTPSubmitter_RejectedIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "locked", http.StatusConflict)
	}))
	defer srv.Close()

	logger, _ := logtest.NewNullLogger()
	s := timesheet.NewHTTPSubmitter(srv.URL, "", srv.Client(), logger, calendar.NewFixedClock(now))

	receipt, err := s.Submit(context.Background(), week10(t))

	assert.Nil(t, receipt)
	require.Error(t, err)
	assert.True(t, apperr.IsService(err))
	assert.Contains(t, err.Error(), "409")
}

func TestHTTPSubmitter_UnreachableIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	logger, _ := logtest.NewNullLogger()
	s := timesheet.NewHTTPSubmitter(url, "", nil, logger, calendar.NewFixedClock(now))

	_, err := s.Submit(context.Background(), week10(t))

	assert.True(t, apperr.IsService(err))
}

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailSubmitter_SendsSummary(t *testing.T) {
	sender := &fakeSender{}
	logger, _ := logtest.NewNullLogger()
	s := timesheet.NewMailSubmitter(sender, "bot@example.com", []string{"hr@example.com"}, logger, calendar.NewFixedClock(now))

	receipt, err := s.Submit(context.Background(), week10(t))

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"Timesheet u1 2025-W10"}, sender.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"hr@example.com"}, sender.sent[0].GetHeader("To"))
	assert.True(t, strings.HasPrefix(receipt.Reference, "mail:u1:"))
}

func TestMailSubmitter_Failures(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	clock := calendar.NewFixedClock(now)

	_, err := timesheet.NewMailSubmitter(&fakeSender{}, "bot@example.com", nil, logger, clock).
		Submit(context.Background(), week10(t))
	assert.True(t, apperr.IsService(err))

	_, err = timesheet.NewMailSubmitter(&fakeSender{err: errors.New("smtp down")}, "bot@example.com", []string{"hr@example.com"}, logger, clock).
		Submit(context.Background(), week10(t))
	assert.True(t, apperr.IsService(err))
	assert.Contains(t, err.Error(), "smtp down")
}
