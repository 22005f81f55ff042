package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"APP_NAME", "DATABASE_DRIVER", "DATABASE_URL", "HTTP_ADDR", "MAX_RANGE_DAYS",
		"ALLOW_FUTURE_READS", "CLASSIFIER_THRESHOLD", "TIMESHEET_BACKEND", "LOG_LEVEL", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "Avatar", cfg.AppName)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 365, cfg.MaxRangeDays)
	assert.False(t, cfg.AllowFutureReads)
	assert.Equal(t, 70.0, cfg.ClassifierThreshold)
	assert.Equal(t, TimesheetLog, cfg.TimesheetBackend)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("MAX_RANGE_DAYS", "31")
	t.Setenv("ALLOW_FUTURE_READS", "true")
	t.Setenv("TIMESHEET_BACKEND", "mail")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("MAIL_USER", "bot@example.com")
	t.Setenv("MAIL_TO", "hr@example.com, lead@example.com")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.DatabaseDriver)
	assert.Equal(t, 31, cfg.MaxRangeDays)
	assert.True(t, cfg.AllowFutureReads)
	assert.Equal(t, []string{"hr@example.com", "lead@example.com"}, cfg.MailTo)
	assert.Equal(t, "bot@example.com", cfg.MailFrom)
	assert.Equal(t, "TELEGRAM_BOT_TOKEN", TelegramTokenKey)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "postgres"}},
		{"http backend without url", map[string]string{"TIMESHEET_BACKEND": "http", "KIMBLE_BASE_URL": ""}},
		{"mail backend without recipients", map[string]string{"TIMESHEET_BACKEND": "mail", "MAIL_HOST": "smtp", "MAIL_TO": ""}},
		{"threshold above 100", map[string]string{"CLASSIFIER_THRESHOLD": "120"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger()
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg = &Config{LogLevel: "warn", Debug: true}
	logger = cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
	text := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, text.FullTimestamp)
	assert.Equal(t, "2006-01-02 15:04:05", text.TimestampFormat)
}
