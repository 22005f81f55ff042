package timesheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
)

const submitOp = "timesheet.submit"

// HTTPSubmitter posts the week to the timesheet API:
// POST {base}/api/v1/users/{id}/timesheets/submit.
type HTTPSubmitter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
	now     func() time.Time
}

func NewHTTPSubmitter(baseURL, apiKey string, client *http.Client, logger *logrus.Logger, clock calendar.Clock) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
		now:     clock.Now,
	}
}

type submitRequest struct {
	WeekNumber int      `json:"weekNumber"`
	Year       int      `json:"year"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Absences   []string `json:"absences"`
}

type submitResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
}

func (s *HTTPSubmitter) Submit(ctx context.Context, ts Timesheet) (*Receipt, error) {
	body := submitRequest{
		WeekNumber: ts.Week,
		Year:       ts.Year,
		StartDate:  calendar.FormatDate(ts.Range.Start()),
		EndDate:    calendar.FormatDate(ts.Range.End()),
		Absences:   make([]string, 0, len(ts.Absences)),
	}
	for _, a := range ts.Absences {
		body.Absences = append(body.Absences, a.Date)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Service(submitOp, err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/users/%s/timesheets/submit", s.baseURL, url.PathEscape(ts.UserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Service(submitOp, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.Service(submitOp, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Service(submitOp, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.WithFields(logrus.Fields{
			"user_id": ts.UserID,
			"week":    ts.Label(),
			"status":  resp.StatusCode,
		}).Error("Timesheet API rejected submission")
		return nil, apperr.Service(submitOp, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var decoded submitResponse
	if len(raw) > 0 {
		// a non-JSON 2xx body still counts as accepted
		_ = json.Unmarshal(raw, &decoded)
	}

	reference := decoded.Reference
	if reference == "" {
		reference = decoded.ID
	}
	if reference == "" {
		reference = fmt.Sprintf("%s/%s", ts.UserID, ts.Label())
	}

	return &Receipt{
		Reference:   reference,
		Backend:     "http",
		SubmittedAt: s.now(),
	}, nil
}
