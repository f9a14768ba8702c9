package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // ANALYTICS_TIMEZONE must resolve on minimal images

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment       string   `env:"GO_ENV" envDefault:"development"`
	LogLevel          string   `env:"LOG_LEVEL" envDefault:"info"`
	Port              string   `env:"PORT" envDefault:"8080"`
	DBUrl             string   `env:"DATABASE_URL" envDefault:"sqlite://./data/attendees.db"`
	AllowedOrigins    []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	StaticDir         string   `env:"STATIC_DIR" envDefault:"dist"`
	AnalyticsTimezone string   `env:"ANALYTICS_TIMEZONE" envDefault:"UTC"`

	Program ProgramConfig `envPrefix:"PROGRAM_"`
	Letter  LetterConfig  `envPrefix:"LETTER_"`
	Mail    MailConfig    `envPrefix:"MAIL_"`
	Notify  NotifyConfig  `envPrefix:"NOTIFY_"`
}

// ProgramConfig describes the department running the fair. It feeds letters and emails.
type ProgramConfig struct {
	Name         string `env:"NAME" envDefault:"ABC Department"`
	Institution  string `env:"INSTITUTION" envDefault:"Example University"`
	ApplyURL     string `env:"APPLY_URL" envDefault:"https://www.example-university.edu/abc/apply"`
	WebsiteURL   string `env:"WEBSITE_URL" envDefault:"https://www.example-university.edu/abc"`
	ContactEmail string `env:"CONTACT_EMAIL" envDefault:"abc-admission@example-university.edu"`
}

// LetterConfig configures the OpenAI-compatible text generation provider.
// An empty APIKey disables the provider and every letter uses the fallback text.
type LetterConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model   string        `env:"MODEL" envDefault:"gemini-2.0-flash"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"8s"`
}

// MailConfig selects and configures the welcome email transport.
type MailConfig struct {
	Provider    string        `env:"PROVIDER" envDefault:"smtp"`
	FromAddress string        `env:"FROM_ADDRESS"`
	FromName    string        `env:"FROM_NAME" envDefault:"ABC Admissions"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
	SMTP        SMTPConfig    `envPrefix:"SMTP_"`
	SES         SESConfig     `envPrefix:"SES_"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string `env:"REGION" envDefault:"us-east-1"`
	AccessKeyID        string `env:"ACCESS_KEY_ID"`
	SecretAccessKey    string `env:"SECRET_ACCESS_KEY"`
	Endpoint           string `env:"ENDPOINT"`
	InsecureSkipVerify bool   `env:"INSECURE_SKIP_VERIFY"`
}

// NotifyConfig sizes the background pool that delivers welcome emails.
type NotifyConfig struct {
	Workers     int           `env:"WORKERS" envDefault:"4"`
	QueueSize   int           `env:"QUEUE_SIZE" envDefault:"256"`
	TaskTimeout time.Duration `env:"TASK_TIMEOUT" envDefault:"30s"`
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	if os.Getenv("GO_ENV") != "production" {
		// .env is optional; in production we rely on system environment variables
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: .env file couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Legacy deployments only set GEMINI_API_KEY and SMTP_* without the MAIL_ prefix.
	if cfg.Letter.APIKey == "" {
		cfg.Letter.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := applyLegacySMTP(&cfg.Mail); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLegacySMTP fills MAIL_SMTP_* and MAIL_FROM_* settings from their unprefixed
// SMTP_* names when the prefixed variable is not set at all.
func applyLegacySMTP(m *MailConfig) error {
	legacy := func(key, legacyKey string) (string, bool) {
		if _, ok := os.LookupEnv(key); ok {
			return "", false
		}
		v := strings.TrimSpace(os.Getenv(legacyKey))
		return v, v != ""
	}

	if v, ok := legacy("MAIL_SMTP_HOST", "SMTP_HOST"); ok {
		m.SMTP.Host = v
	}
	if v, ok := legacy("MAIL_SMTP_PORT", "SMTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		m.SMTP.Port = port
	}
	if v, ok := legacy("MAIL_SMTP_USERNAME", "SMTP_USERNAME"); ok {
		m.SMTP.Username = v
	}
	if v, ok := legacy("MAIL_SMTP_PASSWORD", "SMTP_PASSWORD"); ok {
		m.SMTP.Password = v
	}
	if v, ok := legacy("MAIL_FROM_ADDRESS", "SMTP_FROM_EMAIL"); ok {
		m.FromAddress = v
	}
	if v, ok := legacy("MAIL_FROM_NAME", "SMTP_FROM_NAME"); ok {
		m.FromName = v
	}
	if m.FromAddress == "" {
		m.FromAddress = m.SMTP.Username
	}
	return nil
}

// Validate checks values that cannot be expressed with env tags.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBUrl) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be at least 1")
	}
	if c.Notify.QueueSize < 1 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be at least 1")
	}
	return nil
}

// Location returns the time zone used to bucket check-ins by calendar date.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.AnalyticsTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_TIMEZONE %q: %w", c.AnalyticsTimezone, err)
	}
	return loc, nil
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
