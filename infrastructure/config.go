package infrastructure

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Env     string
	Port    string
	BaseURL string

	DBDriver string
	DBDSN    string

	RabbitMQURL string

	ResendAPIKey string
	EmailFrom    string
	SMTP         SMTPConfig

	TurnstileSecret string

	AdminTokenTTLHours int
	EditTokenTTLHours  int
	TokenPurgeSchedule string
	// LinkRequestCooldownMinutes is how long a freshly minted token is
	// protected from being replaced by a "send me a new link" request.
	LinkRequestCooldownMinutes int

	LogLevel string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != "" && c.Username != "" && c.Password != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads .env (when present) and the process environment once.
// A missing database DSN is an error; everything else has a fallback.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not loaded, using process environment")
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:              os.Getenv("DB_DSN"),
		RabbitMQURL:        os.Getenv("RABBITMQ_URL"),
		ResendAPIKey:       os.Getenv("RESEND_API_KEY"),
		EmailFrom:          getEnv("EMAIL_FROM", "Job Board <onboarding@resend.dev>"),
		TurnstileSecret:    os.Getenv("TURNSTILE_SECRET_KEY"),
		TokenPurgeSchedule: getEnv("TOKEN_PURGE_SCHEDULE", "@hourly"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
	}
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+cfg.Port), "/")

	var err error
	if cfg.AdminTokenTTLHours, err = getEnvInt("ADMIN_TOKEN_TTL_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.EditTokenTTLHours, err = getEnvInt("EDIT_TOKEN_TTL_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.LinkRequestCooldownMinutes, err = getEnvInt("LINK_REQUEST_COOLDOWN_MINUTES", 15); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is not set in environment")
	}
	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AdminTokenTTLHours <= 0 || c.EditTokenTTLHours <= 0 {
		return fmt.Errorf("token TTL hours must be positive")
	}
	if c.LinkRequestCooldownMinutes < 0 {
		return fmt.Errorf("LINK_REQUEST_COOLDOWN_MINUTES must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
