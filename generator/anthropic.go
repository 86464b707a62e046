package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = anthropic.ModelClaudeSonnet4_5
	anthropicMaxTokens    = 16000
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicClient builds a client. Retries are disabled; a failed call
// fails the job.
func NewAnthropicClient(apiKey, model string, opts ...option.RequestOption) *AnthropicClient {
	m := anthropic.Model(model)
	if model == "" {
		m = defaultAnthropicModel
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicClient{client: anthropic.NewClient(opts...), model: m}
}

func (a *AnthropicClient) Name() string { return ProviderAnthropic }

func (a *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic returned no text content")
	}
	return b.String(), nil
}
