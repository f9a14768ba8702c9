package cli

import (
	"context"
	"fmt"
	"log/slog"

	"admissionfair/config"
	"admissionfair/internal/adapters/email"
	"admissionfair/internal/adapters/lettergen"
	"admissionfair/internal/domain"
	"admissionfair/internal/metrics"
	"admissionfair/internal/repository"
	"admissionfair/internal/services"
	"admissionfair/internal/worker"
)

// app is the wired object graph shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *repository.Store
	pool    *worker.Pool
	service domain.AttendeeService
}

// newApp opens and migrates the store and builds the check-in service on top of it.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	store, err := repository.Open(ctx, cfg.DBUrl, domain.NewMonotonicClock(nil))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", store.Driver)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mail.Provider,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		Timeout:     cfg.Mail.Timeout,
		SMTP: email.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
		},
		SES: email.SESConfig{
			Region:             cfg.Mail.SES.Region,
			AccessKeyID:        cfg.Mail.SES.AccessKeyID,
			SecretAccessKey:    cfg.Mail.SES.SecretAccessKey,
			Endpoint:           cfg.Mail.SES.Endpoint,
			InsecureSkipVerify: cfg.Mail.SES.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		store.Close()
		return nil, err
	}

	provider := lettergen.New(lettergen.Config{
		APIKey:      cfg.Letter.APIKey,
		BaseURL:     cfg.Letter.BaseURL,
		Model:       cfg.Letter.Model,
		ProgramName: cfg.Program.Name,
		Institution: cfg.Program.Institution,
	})
	if cfg.Letter.APIKey == "" {
		logger.Warn("LETTER_API_KEY not set, every attendee gets the fallback letter")
	}

	pool := worker.NewPool(logger, m, cfg.Notify.Workers, cfg.Notify.QueueSize, cfg.Notify.TaskTimeout)
	svc := services.NewAttendeeService(services.AttendeeServiceDeps{
		Repo:       store.Attendees,
		Letters:    services.NewLetterGenerator(provider, cfg.Program.Name, cfg.Letter.Timeout, logger, m),
		Emails:     services.NewEmailService(mailer, renderer, logger, m),
		Dispatcher: pool,
		Program: services.ProgramInfo{
			Name:         cfg.Program.Name,
			ApplyURL:     cfg.Program.ApplyURL,
			WebsiteURL:   cfg.Program.WebsiteURL,
			ContactEmail: cfg.Program.ContactEmail,
		},
		Location: loc,
		Logger:   logger,
		Metrics:  m,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		store:   store,
		pool:    pool,
		service: svc,
	}, nil
}

func (a *app) close() {
	a.pool.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close database", "err", err)
	}
}
