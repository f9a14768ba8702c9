package domain

import (
	"context"
	"errors"
)

// Mailer failure classes. Mailers wrap their errors with one of these so callers can log them apart.
var (
	ErrMailerNotConfigured = errors.New("mailer not configured")
	ErrMailAuth            = errors.New("mail authentication failed")
	ErrMailTransport       = errors.New("mail transport failed")
)

// EmailMessage is a rendered email ready to be sent.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeLetterEmailData holds data for the welcome letter email.
type WelcomeLetterEmailData struct {
	Email        string
	Name         string
	Letter       string
	ProgramName  string
	ApplyURL     string
	WebsiteURL   string
	ContactEmail string
	Year         int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	// SendWelcomeLetter reports whether the message was handed to the transport. It never returns an error.
	SendWelcomeLetter(ctx context.Context, data *WelcomeLetterEmailData) bool
}
