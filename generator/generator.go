// Package generator turns an assembled feed context into raw briefing text
// by calling an external generative model.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsbrief/shared/logger"
)

// SystemInstruction is sent with every request.
const SystemInstruction = `You are an AI news editor producing a daily bilingual (English and Simplified Chinese) briefing.
Rules:
1. Be comprehensive: aim for 20 to 30 distinct items when the feed data allows it.
2. Only include news published within the last 24 hours according to the feed data. Never invent items.
3. Every item must have bilingual fields: "title": {"en": "...", "zh": "..."} and "summary": {"en": "...", "zh": "..."}.
4. "category" must be exactly one of: LLMs, ImageAndVideo, Hardware, Business, Research, Robotics.
5. "impactScore" is an integer from 1 (minor) to 10 (industry-changing).
6. Each item also has "id", "url", "source", "tags" (array of short strings) and "date" (ISO 8601).
7. Output ONLY a JSON array of item objects. No prose, no markdown.`

// TrailingInstruction is appended after the feed context.
const TrailingInstruction = "Based on the feed data above, produce the briefing now. Return only the JSON array."

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 3 * time.Minute

// ErrMissingCredential is returned when no model API key is configured.
var ErrMissingCredential = errors.New("model credential not configured")

// GenerationError wraps every generator failure.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Client is a text completion backend.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// Generator sends the assembled context to a model client.
type Generator struct {
	client  Client
	timeout time.Duration
	log     logger.Logger
}

// New returns a Generator. A nil client is allowed and makes every call fail
// with ErrMissingCredential.
func New(client Client, log logger.Logger) *Generator {
	return &Generator{client: client, timeout: DefaultTimeout, log: log}
}

// Configured reports whether a model client is available.
func (g *Generator) Configured() bool { return g.client != nil }

// Generate returns the model output verbatim. It does not check that the
// output is JSON.
func (g *Generator) Generate(ctx context.Context, feedContext string) (string, error) {
	if g.client == nil {
		return "", &GenerationError{Provider: "none", Err: ErrMissingCredential}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := BuildPrompt(feedContext)
	started := time.Now()
	out, err := g.client.Complete(ctx, SystemInstruction, prompt)
	if err != nil {
		return "", &GenerationError{Provider: g.client.Name(), Err: err}
	}

	g.log.Info("Model response received",
		logger.String("provider", g.client.Name()),
		logger.Int("prompt_chars", len(prompt)),
		logger.Int("response_chars", len(out)),
		logger.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// BuildPrompt joins the feed context and the trailing instruction.
func BuildPrompt(feedContext string) string {
	var b strings.Builder
	b.WriteString(feedContext)
	if !strings.HasSuffix(feedContext, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(TrailingInstruction)
	return b.String()
}

// Provider names accepted by NewClient.
const (
	ProviderAnthropic = "anthropic"
	ProviderCohere    = "cohere"
)

// ClientConfig selects and configures a model client.
type ClientConfig struct {
	Provider        string
	Model           string
	AnthropicAPIKey string
	CohereAPIKey    string
}

// NewClient builds the client for the configured provider. It returns nil
// when the provider's credential is empty.
func NewClient(cfg ClientConfig) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model), nil
	case ProviderCohere:
		if cfg.CohereAPIKey == "" {
			return nil, nil
		}
		return NewCohereClient(cfg.CohereAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
