// Package lettergen asks an OpenAI-compatible chat completions endpoint for welcome letters.
package lettergen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"admissionfair/internal/domain"
)

// Config configures the provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	ProgramName string
	Institution string
	HTTPClient  *http.Client
}

const systemPrompt = "You write short welcome letters on behalf of a university admissions office. " +
	"Reply with the letter body only: no title, no subject line, no signature placeholders."

// Client implements domain.TextGenerator on top of the openai-go chat completions API.
type Client struct {
	client      openai.Client
	model       string
	programName string
	institution string
}

// New returns a TextGenerator for cfg. Without an API key every call fails with
// domain.ErrGenerationUnavailable.
func New(cfg Config) domain.TextGenerator {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return unconfigured{}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		programName: cfg.ProgramName,
		institution: cfg.Institution,
	}
}

// Prompt builds the user prompt for name.
func (c *Client) Prompt(name string) string {
	org := c.programName
	if c.institution != "" {
		org = fmt.Sprintf("the %s at %s", c.programName, c.institution)
	}
	return fmt.Sprintf(
		"Write a warm, professional welcome letter of 100 to 150 words to %s, a high school student "+
			"who just checked in at our recruitment fair booth. Write as an admissions representative of %s. "+
			"Thank them for visiting, mention what makes the program a good place to study, "+
			"and encourage them to learn more and apply.",
		name, org)
}

// GenerateLetter performs a single chat completion call.
func (c *Client) GenerateLetter(ctx context.Context, name string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(c.Prompt(name)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type unconfigured struct{}

func (unconfigured) GenerateLetter(context.Context, string) (string, error) {
	return "", domain.ErrGenerationUnavailable
}
