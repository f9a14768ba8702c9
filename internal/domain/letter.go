package domain

import (
	"context"
	"errors"
)

// ErrGenerationUnavailable is returned by a TextGenerator that is not configured.
var ErrGenerationUnavailable = errors.New("text generation unavailable")

// TextGenerator produces a welcome letter body for an attendee (infrastructure port).
type TextGenerator interface {
	GenerateLetter(ctx context.Context, name string) (string, error)
}

// LetterGenerator returns a welcome letter for name. It never fails: provider
// errors are replaced by a fixed fallback letter.
type LetterGenerator interface {
	Generate(ctx context.Context, name string) string
}
