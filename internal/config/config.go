package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Port              string        `mapstructure:"PORT"`
	DBConn            string        `mapstructure:"DB_CONN"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	LogFile           string        `mapstructure:"LOG_FILE"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTTTL            time.Duration `mapstructure:"JWT_TTL"`
	QRSecret          string        `mapstructure:"QR_SECRET"`
	DefaultCredit     string        `mapstructure:"DEFAULT_CREDIT_LIMIT"`
	LockTimeout       time.Duration `mapstructure:"LOCK_TIMEOUT"`
	TimeZone          string        `mapstructure:"TIME_ZONE"`
	RequestTTL        time.Duration `mapstructure:"PAYMENT_REQUEST_TTL"`
	ReminderDaysAhead int           `mapstructure:"REMINDER_DAYS_AHEAD"`
	CronOverdue       string        `mapstructure:"CRON_OVERDUE"`
	CronExpire        string        `mapstructure:"CRON_EXPIRE"`
	CronReminders     string        `mapstructure:"CRON_REMINDERS"`
	CronReconcile     string        `mapstructure:"CRON_RECONCILE"`
	SMTPHost          string        `mapstructure:"SMTP_HOST"`
	SMTPPort          int           `mapstructure:"SMTP_PORT"`
	SMTPUsername      string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword      string        `mapstructure:"SMTP_PASSWORD"`
	SenderEmail       string        `mapstructure:"SENDER_EMAIL"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	IdempotencyTTL    time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
	CORSOrigins       string        `mapstructure:"CORS_ORIGINS"`

	// Parsed from the raw settings above by NewConfig.
	DefaultCreditLimit money.Amount   `mapstructure:"-"`
	Location           *time.Location `mapstructure:"-"`
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"DB_CONN":              "host=localhost port=5436 user=test password=test dbname=bnpl sslmode=disable",
	"LOG_LEVEL":            "INFO",
	"LOG_FILE":             "",
	"JWT_SECRET":           "secret",
	"JWT_TTL":              "24h",
	"QR_SECRET":            "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6",
	"DEFAULT_CREDIT_LIMIT": "2000.00",
	"LOCK_TIMEOUT":         "5s",
	"TIME_ZONE":            "Asia/Bangkok",
	"PAYMENT_REQUEST_TTL":  "15m",
	"REMINDER_DAYS_AHEAD":  3,
	"CRON_OVERDUE":         "5 0 * * *",
	"CRON_EXPIRE":          "@every 1m",
	"CRON_REMINDERS":       "0 9 * * *",
	"CRON_RECONCILE":       "30 1 * * *",
	"SMTP_HOST":            "",
	"SMTP_PORT":            587,
	"SMTP_USERNAME":        "",
	"SMTP_PASSWORD":        "",
	"SENDER_EMAIL":         "no-reply@bnpl.local",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"IDEMPOTENCY_TTL":      "24h",
	"CORS_ORIGINS":         "*",
}

// NewConfig loads configuration from environment variables and an optional .env file
// in the working directory
func NewConfig() (*Config, error) {
	return Load(".")
}

// Load reads configuration from the environment, falling back to path/.env and then
// to built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBConn == "" {
		return fmt.Errorf("DB_CONN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.QRSecret == "" {
		return fmt.Errorf("QR_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.RequestTTL <= 0 {
		return fmt.Errorf("PAYMENT_REQUEST_TTL must be positive")
	}
	if c.ReminderDaysAhead < 0 {
		return fmt.Errorf("REMINDER_DAYS_AHEAD must not be negative")
	}

	limit, err := money.Parse(c.DefaultCredit)
	if err != nil {
		return fmt.Errorf("DEFAULT_CREDIT_LIMIT: %w", err)
	}
	if limit < 0 {
		return fmt.Errorf("DEFAULT_CREDIT_LIMIT must not be negative")
	}
	c.DefaultCreditLimit = limit

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("TIME_ZONE: %w", err)
	}
	c.Location = loc
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Redact returns a copy safe to log
func (c *Config) Redact() Config {
	redacted := *c
	redacted.JWTSecret = "****"
	redacted.QRSecret = "****"
	redacted.SMTPPassword = "****"
	redacted.RedisPassword = "****"
	return redacted
}
