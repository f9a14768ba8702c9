package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"admissionfair/internal/domain"
	"admissionfair/internal/metrics"
)

type letterGenerator struct {
	provider domain.TextGenerator
	program  string
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewLetterGenerator returns a LetterGenerator that asks provider once per call and
// falls back to FallbackLetter on any failure.
func NewLetterGenerator(provider domain.TextGenerator, program string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) domain.LetterGenerator {
	return &letterGenerator{
		provider: provider,
		program:  program,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// FallbackLetter is the letter used whenever the provider cannot produce one.
func FallbackLetter(name, program string) string {
	return fmt.Sprintf("Dear %s, welcome to %s! We are glad you attended our recruitment fair and look forward to seeing you in a future semester.", name, program)
}

func (g *letterGenerator) Generate(ctx context.Context, name string) string {
	if g.provider == nil {
		return g.fallback(ctx, name, "not_configured", domain.ErrGenerationUnavailable)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	letter, err := g.provider.GenerateLetter(callCtx, name)
	if err != nil {
		return g.fallback(ctx, name, failureReason(err), err)
	}
	letter = strings.TrimSpace(letter)
	if letter == "" {
		return g.fallback(ctx, name, "empty_response", errors.New("provider returned an empty letter"))
	}

	g.metrics.Letter(metrics.LetterProvider)
	g.logger.DebugContext(ctx, "letter generated", "duration_ms", time.Since(start).Milliseconds())
	return letter
}

func (g *letterGenerator) fallback(ctx context.Context, name, reason string, err error) string {
	g.metrics.Letter(metrics.LetterFallback)
	if errors.Is(err, domain.ErrGenerationUnavailable) {
		g.logger.DebugContext(ctx, "letter provider not configured, using fallback")
	} else {
		g.logger.WarnContext(ctx, "letter generation failed, using fallback", "reason", reason, "err", err)
	}
	return FallbackLetter(name, g.program)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "provider_error"
	}
}
