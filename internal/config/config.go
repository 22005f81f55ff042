package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// TelegramTokenKey enables the chat front end when set.
const TelegramTokenKey = "TELEGRAM_BOT_TOKEN"

const (
	TimesheetLog  = "log"
	TimesheetHTTP = "http"
	TimesheetMail = "mail"
)

type Config struct {
	AppName   string
	Debug     bool
	LogLevel  string
	LogFormat string

	HTTPAddr    string
	CORSOrigins []string

	TelegramToken string

	DatabaseDriver string
	DatabaseURL    string
	MongoURI       string
	MongoDB        string

	MaxRangeDays        int
	AllowFutureReads    bool
	ClassifierThreshold float64

	TimesheetBackend string
	KimbleBaseURL    string
	KimbleAPIKey     string

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string
	MailTo   []string
}

var instance *Config
var once sync.Once

// GetConfig loads the configuration once per process, reading .env if present.
// Invalid configuration is fatal.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.Fatalf("error loading env variables: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		AppName:   getEnv("APP_NAME", "Avatar"),
		Debug:     getEnvAsBool("DEBUG", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		HTTPAddr:    getEnv("HTTP_ADDR", "0.0.0.0:8000"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),

		TelegramToken: getEnv(TelegramTokenKey, ""),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", "absences.db"),
		MongoURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGODB_NAME", "absences"),

		MaxRangeDays:        int(getEnvAsInt("MAX_RANGE_DAYS", 365)),
		AllowFutureReads:    getEnvAsBool("ALLOW_FUTURE_READS", false),
		ClassifierThreshold: getEnvAsFloat("CLASSIFIER_THRESHOLD", 70),

		TimesheetBackend: getEnv("TIMESHEET_BACKEND", TimesheetLog),
		KimbleBaseURL:    getEnv("KIMBLE_BASE_URL", ""),
		KimbleAPIKey:     getEnv("KIMBLE_API_KEY", ""),

		MailHost: getEnv("MAIL_HOST", ""),
		MailPort: int(getEnvAsInt("MAIL_PORT", 587)),
		MailUser: getEnv("MAIL_USER", ""),
		MailPass: getEnv("MAIL_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", ""),
		MailTo:   getEnvAsList("MAIL_TO", nil),
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.MailUser
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %s", c.DatabaseDriver)
		}
	case "mongo":
		if c.MongoURI == "" || c.MongoDB == "" {
			return errors.New("MONGODB_URI and MONGODB_NAME are required for driver mongo")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite, mysql or mongo, got %q", c.DatabaseDriver)
	}

	switch c.TimesheetBackend {
	case TimesheetLog:
	case TimesheetHTTP:
		if c.KimbleBaseURL == "" {
			return errors.New("KIMBLE_BASE_URL is required for the http timesheet backend")
		}
	case TimesheetMail:
		if c.MailHost == "" || len(c.MailTo) == 0 {
			return errors.New("MAIL_HOST and MAIL_TO are required for the mail timesheet backend")
		}
	default:
		return fmt.Errorf("TIMESHEET_BACKEND must be log, http or mail, got %q", c.TimesheetBackend)
	}

	if c.MaxRangeDays < 0 {
		return errors.New("MAX_RANGE_DAYS must not be negative")
	}
	if c.ClassifierThreshold < 0 || c.ClassifierThreshold > 100 {
		return errors.New("CLASSIFIER_THRESHOLD must be within [0, 100]")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if c.Debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return int64(val)
	}

	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseFloat(valStr, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsList(name string, defaultVal []string) []string {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}

	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
