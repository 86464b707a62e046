package generator

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const defaultCohereModel = "command-r-plus"

// CohereClient calls the Cohere Chat API.
type CohereClient struct {
	client *cohereclient.Client
	model  string
}

func NewCohereClient(apiKey, model string) *CohereClient {
	if model == "" {
		model = defaultCohereModel
	}
	// HTTP/1.1 only; the Cohere endpoint has produced HTTP/2 stream errors on long responses.
	httpClient := &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereClient{client: client, model: model}
}

func (c *CohereClient) Name() string { return ProviderCohere }

func (c *CohereClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	model := c.model
	preamble := system
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:  prompt,
		Model:    &model,
		Preamble: &preamble,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Text == "" {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}

var _ Client = (*CohereClient)(nil)
var _ Client = (*AnthropicClient)(nil)
