package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"admissionfair/internal/domain"
)

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	Endpoint           string
	InsecureSkipVerify bool
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	Timeout     time.Duration
	SMTP        SMTPConfig
	SES         SESConfig
}

const defaultTimeout = 10 * time.Second

// NewMailer creates a mailer from config.
// Provider "smtp" uses an SMTP relay, "ses" uses AWS SES, "noop" or unknown uses a no-op mailer.
// A provider missing its credentials yields a mailer that fails every send with domain.ErrMailerNotConfigured.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	provider := strings.ToLower(strings.TrimSpace(config.Provider))
	switch provider {
	case "smtp":
		if config.SMTP.Username == "" || config.SMTP.Password == "" {
			logger.Warn("SMTP credentials missing, welcome emails will not be sent")
			return &unconfiguredMailer{provider: provider}, nil
		}
		if config.SMTP.Host == "" || config.SMTP.Port <= 0 {
			return nil, fmt.Errorf("smtp host and port are required")
		}
		return newSMTPMailer(config), nil
	case "ses":
		if config.SES.AccessKeyID == "" || config.SES.SecretAccessKey == "" {
			logger.Warn("SES credentials missing, welcome emails will not be sent")
			return &unconfiguredMailer{provider: provider}, nil
		}
		if config.SES.Region == "" {
			return nil, fmt.Errorf("ses region is required")
		}
		if config.SES.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for SES. Use only in development.")
		}
		return newSESMailer(config), nil
	case "noop":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

// formatAddress renders "Name <addr>" with the display name encoded for non-ASCII text.
func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

type unconfiguredMailer struct {
	provider string
}

func (u *unconfiguredMailer) Send(_ context.Context, msg *domain.EmailMessage) error {
	return fmt.Errorf("%w: %s credentials are not set", domain.ErrMailerNotConfigured, u.provider)
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	n.logger.InfoContext(ctx, "email would be sent (noop)", "to", msg.To, "subject", msg.Subject)
	return nil
}
