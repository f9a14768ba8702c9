package email

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"admissionfair/internal/domain"
)

type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	timeout  time.Duration
	now      func() time.Time
}

func newSMTPMailer(config MailerConfig) *smtpMailer {
	from := config.FromAddress
	if from == "" {
		from = config.SMTP.Username
	}
	return &smtpMailer{
		host:     config.SMTP.Host,
		port:     config.SMTP.Port,
		username: config.SMTP.Username,
		password: config.SMTP.Password,
		from:     from,
		fromName: config.FromName,
		timeout:  config.Timeout,
		now:      time.Now,
	}
}

// Send delivers msg over a fresh connection: STARTTLS when offered, AUTH PLAIN, one message, QUIT.
func (m *smtpMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	message, err := newMessage(m.fromName, m.from, msg, m.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTimeout(m.timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return classifySMTPError(err)
	}
	return nil
}

// classifySMTPError maps authentication replies to domain.ErrMailAuth, other
// server replies to a plain error and connection level failures to domain.ErrMailTransport.
func classifySMTPError(err error) error {
	var (
		code    int
		tpErr   *textproto.Error
		sendErr *mail.SendError
	)
	switch {
	case errors.As(err, &tpErr):
		code = tpErr.Code
	case errors.As(err, &sendErr):
		code = sendErr.ErrorCode()
	}

	switch {
	case code == 530 || code == 534 || code == 535,
		errors.Is(err, mail.ErrPlainAuthNotSupported):
		return fmt.Errorf("%w: smtp: %w", domain.ErrMailAuth, err)
	case code > 0:
		return fmt.Errorf("smtp rejected: %w", err)
	}
	return fmt.Errorf("%w: smtp: %w", domain.ErrMailTransport, err)
}

// newMessage renders msg as a multipart/alternative message with a text and an HTML part.
func newMessage(fromName, from string, msg *domain.EmailMessage, now time.Time) (*mail.Msg, error) {
	m := mail.NewMsg()
	if fromName != "" {
		if err := m.FromFormat(fromName, from); err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
	} else if err := m.From(from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(now)
	m.SetMessageIDWithValue(uuid.NewString() + "@" + domainOf(from))

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
	}
	return m, nil
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}
