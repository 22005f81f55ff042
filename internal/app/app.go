// Package app assembles the absence service from configuration. Both the
// server and the CLI start from here.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"absence-assistant/internal/calendar"
	"absence-assistant/internal/classifier"
	"absence-assistant/internal/config"
	"absence-assistant/internal/repository"
	"absence-assistant/internal/service"
	"absence-assistant/internal/timesheet"
	"absence-assistant/internal/tools"
)

type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Clock    calendar.Clock
	Stores   *repository.Stores
	Service  *service.AbsenceService
	Registry *tools.Registry
}

// New opens storage and wires every collaborator of the service.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	clock := calendar.SystemClock{}

	stores, err := repository.Open(ctx, repository.Options{
		Driver:   cfg.DatabaseDriver,
		URL:      cfg.DatabaseURL,
		MongoURI: cfg.MongoURI,
		MongoDB:  cfg.MongoDB,
		Debug:    cfg.Debug,
	}, logger)
	if err != nil {
		return nil, err
	}

	submitter, err := NewSubmitter(cfg, logger, clock)
	if err != nil {
		_ = stores.Close(ctx)
		return nil, err
	}

	svc := service.NewAbsenceService(
		stores.Absences,
		stores.Submissions,
		classifier.New(logger, classifier.WithThreshold(cfg.ClassifierThreshold)),
		submitter,
		service.WithClock(clock),
		service.WithLogger(logger),
		service.WithMaxSpanDays(cfg.MaxRangeDays),
		service.WithFutureReads(cfg.AllowFutureReads),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Clock:    clock,
		Stores:   stores,
		Service:  svc,
		Registry: tools.NewRegistry(svc, logger),
	}, nil
}

func (a *App) Close(ctx context.Context) error {
	return a.Stores.Close(ctx)
}

// NewSubmitter picks the timesheet backend named by TIMESHEET_BACKEND.
func NewSubmitter(cfg *config.Config, logger *logrus.Logger, clock calendar.Clock) (timesheet.Submitter, error) {
	switch cfg.TimesheetBackend {
	case config.TimesheetLog, "":
		return timesheet.NewLogSubmitter(logger, clock), nil
	case config.TimesheetHTTP:
		return timesheet.NewHTTPSubmitter(cfg.KimbleBaseURL, cfg.KimbleAPIKey, nil, logger, clock), nil
	case config.TimesheetMail:
		dialer := timesheet.NewDialer(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass)
		return timesheet.NewMailSubmitter(dialer, cfg.MailFrom, cfg.MailTo, logger, clock), nil
	default:
		return nil, fmt.Errorf("unknown timesheet backend %q", cfg.TimesheetBackend)
	}
}
