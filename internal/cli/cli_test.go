package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absence-assistant/internal/app"
	"absence-assistant/internal/cli"
	"absence-assistant/internal/config"
)

func newOpener(t *testing.T) cli.Opener {
	t.Helper()
	color.NoColor = true

	dbPath := filepath.Join(t.TempDir(), "cli.db")
	logger, _ := logtest.NewNullLogger()

	return func(ctx context.Context) (*cli.Env, error) {
		a, err := app.New(ctx, &config.Config{
			DatabaseDriver:      "sqlite",
			DatabaseURL:         dbPath,
			MaxRangeDays:        365,
			ClassifierThreshold: 70,
			TimesheetBackend:    config.TimesheetLog,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &cli.Env{
			Service:  a.Service,
			Registry: a.Registry,
			Close:    func() error { return a.Close(context.Background()) },
		}, nil
	}
}

func execute(t *testing.T, open cli.Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFillAndCheck(t *testing.T) {
	open := newOpener(t)

	out, err := execute(t, open, "-u", "jdoe", "fill", "2020-03-10", "i", "was", "sick")
	require.NoError(t, err)
	assert.Contains(t, out, "jdoe 2020-03-10: sick (justified")

	out, err = execute(t, open, "-u", "jdoe", "--json", "check", "2020-03-10")
	require.NoError(t, err)

	var status struct {
		IsAbsent bool   `json:"is_absent"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.IsAbsent)
	assert.Equal(t, "sick", status.Reason)

	out, err = execute(t, open, "-u", "jdoe", "check", "2020-03-11")
	require.NoError(t, err)
	assert.Contains(t, out, "not absent on 2020-03-11")
}

func TestListAndCount(t *testing.T) {
	open := newOpener(t)

	_, err := execute(t, open, "-u", "jdoe", "fill", "2020-03-10", "sick")
	require.NoError(t, err)
	_, err = execute(t, open, "-u", "jdoe", "fill", "2020-03-12", "overslept")
	require.NoError(t, err)

	out, err := execute(t, open, "-u", "jdoe", "list", "2020-03-09", "2020-03-15")
	require.NoError(t, err)
	assert.Contains(t, out, "2020-03-10")
	assert.Contains(t, out, "2020-03-12")

	out, err = execute(t, open, "-u", "jdoe", "--json", "count", "2020-03-09", "2020-03-15")
	require.NoError(t, err)
	var count struct {
		Total       int `json:"total"`
		Justified   int `json:"justified"`
		Unjustified int `json:"unjustified"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &count))
	assert.Equal(t, 2, count.Total)
	assert.Equal(t, 1, count.Justified)
	assert.Equal(t, 1, count.Unjustified)
}

func TestList_InvalidRange(t *testing.T) {
	_, err := execute(t, newOpener(t), "-u", "jdoe", "list", "2020-03-15", "2020-03-09")
	assert.Error(t, err)
}

func TestSubmit_ReviewThenConfirm(t *testing.T) {
	open := newOpener(t)

	_, err := execute(t, open, "-u", "jdoe", "fill", "2020-03-10", "sick")
	require.NoError(t, err)

	out, err := execute(t, open, "-u", "jdoe", "submit", "2020", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "REVIEW_REQUIRED")
	assert.Contains(t, out, "--confirm")

	out, err = execute(t, open, "-u", "jdoe", "submit", "2020", "11", "--confirm")
	require.NoError(t, err)
	assert.Contains(t, out, "SUBMITTED")
	assert.Contains(t, out, "reference")

	out, err = execute(t, open, "-u", "jdoe", "week", "2020", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "2020-W11  2020-03-09..2020-03-15  SUBMITTED")

	out, err = execute(t, open, "-u", "jdoe", "submit", "2020", "11", "--confirm")
	require.NoError(t, err)
	assert.Contains(t, out, "already submitted")
}

func TestSubmit_BadWeekArgument(t *testing.T) {
	_, err := execute(t, newOpener(t), "-u", "jdoe", "submit", "2020", "eleven")
	assert.Error(t, err)
}

func TestTools(t *testing.T) {
	open := newOpener(t)

	out, err := execute(t, open, "tools", "list")
	require.NoError(t, err)
	for _, name := range []string{"fill_absence", "is_absent", "get_absences", "count_absences", "get_week_absences", "submit_week"} {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, open, "tools", "call", "is_absent", `{"user_id":"jdoe","date":"2020-01-01"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)

	out, err = execute(t, open, "tools", "call", "is_absent", `{"date":"2020-01-01"}`)
	require.Error(t, err)
	assert.Contains(t, out, `"kind": "validation"`)
}

func TestOpenerFailure(t *testing.T) {
	failing := func(ctx context.Context) (*cli.Env, error) {
		return nil, errors.New("no database")
	}
	_, err := execute(t, failing, "-u", "jdoe", "check", "2020-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")
}
