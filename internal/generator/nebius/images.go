package nebius

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pixelgate/pixelgate/internal/generator"
)

type imageGenerationRequest struct {
	Model             string `json:"model"`
	Prompt            string `json:"prompt"`
	ResponseFormat    string `json:"response_format"`
	ResponseExtension string `json:"response_extension"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	InferenceSteps    int    `json:"num_inference_steps"`
	NegativePrompt    string `json:"negative_prompt"`
	// Seed -1 asks the provider for a random seed.
	Seed int `json:"seed"`
}

type imageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON string `json:"b64_json,omitempty"`
		URL     string `json:"url,omitempty"`
	} `json:"data"`
}

// GenerateImage requests a single base64 image.
func (c *Client) GenerateImage(ctx context.Context, req *generator.ImageRequest) (*generator.ImageResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("nebius client not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	payload := imageGenerationRequest{
		Model:             strings.TrimSpace(req.Model),
		Prompt:            req.Prompt,
		ResponseFormat:    "b64_json",
		ResponseExtension: strings.ToLower(strings.TrimSpace(req.Format)),
		Width:             req.Width,
		Height:            req.Height,
		InferenceSteps:    c.InferenceSteps,
		NegativePrompt:    req.NegativePrompt,
		Seed:              -1,
	}
	if payload.Model == "" {
		payload.Model = c.Model
	}
	if payload.Model == "" {
		payload.Model = DefaultModel
	}
	if payload.ResponseExtension == "" {
		payload.ResponseExtension = c.Extension
	}
	if payload.ResponseExtension == "" {
		payload.ResponseExtension = DefaultExtension
	}
	if payload.Width <= 0 {
		payload.Width = 1024
	}
	if payload.Height <= 0 {
		payload.Height = 1024
	}
	if payload.InferenceSteps <= 0 {
		payload.InferenceSteps = DefaultInferenceSteps
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/images/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &generator.ProviderError{Provider: c.Name(), StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var parsed imageGenerationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) == 0 || strings.TrimSpace(parsed.Data[0].B64JSON) == "" {
		return nil, generator.ErrEmptyImage
	}

	encoded := strings.TrimSpace(parsed.Data[0].B64JSON)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode image base64: %w", err)
	}

	return &generator.ImageResponse{
		Data:     decoded,
		Encoded:  encoded,
		MIMEType: "image/" + payload.ResponseExtension,
		Model:    payload.Model,
	}, nil
}
