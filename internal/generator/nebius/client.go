// Package nebius implements image generation against the Nebius AI Studio
// OpenAI-compatible API via direct HTTP.
package nebius

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL        = "https://api.studio.nebius.com/v1/"
	DefaultModel          = "black-forest-labs/flux-schnell"
	DefaultInferenceSteps = 4
	DefaultExtension      = "webp"
)

// Client talks to the Nebius images endpoint.
type Client struct {
	BaseURL        string
	APIKey         string
	Model          string
	InferenceSteps int
	Extension      string
	HTTPClient     *http.Client
	Timeout        time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL, apiKey string) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = DefaultBaseURL
	}

	return &Client{
		BaseURL:        url,
		APIKey:         strings.TrimSpace(apiKey),
		Model:          DefaultModel,
		InferenceSteps: DefaultInferenceSteps,
		Extension:      DefaultExtension,
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "nebius"
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
