package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"absence-assistant/internal/api"
	"absence-assistant/internal/app"
	"absence-assistant/internal/config"
	"absence-assistant/internal/handler"
	"absence-assistant/pkg/telegram"
)

func main() {
	cfg := config.GetConfig()
	logger := cfg.NewLogger()
	logger.Info("Config initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}

	apiHandler := api.NewHandler(application.Service, application.Registry, cfg.AppName, logger)
	server := api.NewServer(cfg.HTTPAddr, api.NewRouter(apiHandler, cfg.CORSOrigins))

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	var client *telegram.Client
	if cfg.TelegramToken != "" {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.Debug)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Telegram client")
		}
		logger.Infof("Authorized on account %s", client.Bot.Self.UserName)

		botHandler := handler.NewHandler(client.Bot, application.Service, application.Clock, logger)
		go botHandler.HandleUpdates(ctx, client.Updates())
	} else {
		logger.Infof("%s not set, chat front end disabled", config.TelegramTokenKey)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Absence assistant started. Press Ctrl+C to stop.")
	<-stop

	if client != nil {
		client.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error closing storage")
	}

	logger.Info("Absence assistant stopped gracefully")
}
