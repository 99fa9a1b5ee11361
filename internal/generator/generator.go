// Package generator defines the provider-agnostic image generation contract.
package generator

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyImage is returned when a provider answers 2xx without image data.
var ErrEmptyImage = errors.New("provider returned no image data")

// ImageGenerator produces images from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error)
	// Name returns the provider identifier (e.g., "nebius").
	Name() string
}

// ImageRequest is a provider-agnostic image request.
type ImageRequest struct {
	Prompt         string
	Model          string
	Width          int
	Height         int
	NegativePrompt string
	// Format is the requested output extension ("webp", "png", "jpeg").
	Format string
}

// ImageResponse carries the decoded image payload.
type ImageResponse struct {
	Data     []byte
	Encoded  string
	MIMEType string
	Model    string
}

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Message holds the trimmed response body. It must never include API keys.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var perr *ProviderError
	if errors.As(err, &perr) && perr != nil {
		return perr.StatusCode
	}
	return 0
}
