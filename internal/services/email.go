package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"admissionfair/internal/domain"
	"admissionfair/internal/metrics"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger, m *metrics.Metrics) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger, metrics: m}
}

// SendWelcomeLetter sends the welcome letter using the "welcome" template and the given data.
// Failures are classified, logged and counted; they are never returned.
func (s *emailService) SendWelcomeLetter(ctx context.Context, data *domain.WelcomeLetterEmailData) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			s.record(ctx, "", fmt.Errorf("panic while sending welcome email: %v", r))
			sent = false
		}
	}()

	if data == nil {
		s.record(ctx, "", errors.New("welcome letter data is nil"))
		return false
	}
	subject, htmlBody, textBody, err := s.renderer.Render("welcome", data)
	if err != nil {
		s.record(ctx, data.Email, fmt.Errorf("failed to render welcome template: %w", err))
		return false
	}
	err = s.mailer.Send(ctx, &domain.EmailMessage{
		To:      data.Email,
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	})
	s.record(ctx, data.Email, err)
	return err == nil
}

func (s *emailService) record(ctx context.Context, to string, err error) {
	outcome := classifyMailError(err)
	s.metrics.Email(outcome)
	switch outcome {
	case metrics.EmailSent:
		s.logger.InfoContext(ctx, "welcome email sent", "to", to)
	case metrics.EmailNotConfigured:
		s.logger.WarnContext(ctx, "mailer not configured, welcome email not sent", "to", to)
	default:
		s.logger.ErrorContext(ctx, "welcome email failed", "to", to, "outcome", outcome, "err", err)
	}
}

func classifyMailError(err error) string {
	switch {
	case err == nil:
		return metrics.EmailSent
	case errors.Is(err, domain.ErrMailerNotConfigured):
		return metrics.EmailNotConfigured
	case errors.Is(err, domain.ErrMailAuth):
		return metrics.EmailAuthFailed
	case errors.Is(err, domain.ErrMailTransport):
		return metrics.EmailTransportFailed
	default:
		return metrics.EmailFailed
	}
}
