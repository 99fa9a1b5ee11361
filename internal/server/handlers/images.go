package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/pixelgate/pixelgate/internal/errors"
	"github.com/pixelgate/pixelgate/internal/generator"
	"github.com/pixelgate/pixelgate/internal/imaging"
	"github.com/pixelgate/pixelgate/internal/metrics"
	"github.com/pixelgate/pixelgate/internal/observability"
)

const (
	maxRequestBodyBytes = 64 << 10

	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
)

// AdmissionTracker is the subset of admission.Tracker the handlers use.
type AdmissionTracker interface {
	CheckAndRecord(identifier string, now time.Time) (limited bool, remaining int)
	Usage(identifier string, now time.Time) (used, remaining int)
	Limit() int
	Window() time.Duration
	Len() int
}

// ImageHandler serves image generation behind per-client admission control.
type ImageHandler struct {
	Tracker            AdmissionTracker
	Generator          generator.ImageGenerator
	ClientHeader       string
	FallbackIdentifier string
	Clock              func() time.Time
}

// GenerateRequest is the POST /v1/images body.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
}

// GenerateResponse is returned on success. Image is base64 encoded.
type GenerateResponse struct {
	Image     string `json:"image"`
	MIMEType  string `json:"mime_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Model     string `json:"model,omitempty"`
	Remaining int    `json:"remaining"`
}

// QuotaResponse reports the caller's usage without consuming quota.
type QuotaResponse struct {
	Identifier string `json:"identifier"`
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	Used       int    `json:"used"`
	Remaining  int    `json:"remaining"`
}

// Generate handles POST /v1/images.
func (h *ImageHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, r, apperrors.WrapInvalidInput(ctx, err, "Request body must be a JSON object"))
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("Prompt is required"))
		return
	}

	size := imaging.ParseSize(req.Size)
	if !size.Allowed() {
		envelope := apperrors.NewInvalidInputError(fmt.Sprintf("Unsupported size %q", req.Size)).
			WithDetails(map[string]interface{}{"allowed_sizes": allowedSizeStrings()})
		respondWithError(w, r, envelope)
		return
	}

	if h.Generator == nil {
		respondWithError(w, r, apperrors.NewServiceUnavailableError("Image generation is not configured"))
		return
	}

	identifier := h.identifier(r)
	limited, remaining := h.Tracker.CheckAndRecord(identifier, h.now())
	h.recordDecision(ctx, identifier, limited, remaining)
	h.writeQuotaHeaders(w, remaining)

	if limited {
		envelope := apperrors.NewRateLimitedError(fmt.Sprintf(
			"You have reached the maximum number of image generations (%d per %s). Please try again later.",
			h.Tracker.Limit(), describeWindow(h.Tracker.Window()),
		)).WithDetails(map[string]interface{}{
			"remaining": 0,
			"limit":     h.Tracker.Limit(),
			"window":    h.Tracker.Window().String(),
		})
		respondWithError(w, r, envelope)
		return
	}

	start := time.Now()
	resp, err := h.Generator.GenerateImage(ctx, &generator.ImageRequest{
		Prompt: prompt,
		Width:  size.Width,
		Height: size.Height,
	})
	if err != nil {
		metrics.RecordGeneration(h.Generator.Name(), "error", time.Since(start))
		respondWithError(w, r, generationError(ctx, err))
		return
	}
	metrics.RecordGeneration(h.Generator.Name(), "success", time.Since(start))

	out := GenerateResponse{
		Image:     resp.Encoded,
		MIMEType:  resp.MIMEType,
		Width:     size.Width,
		Height:    size.Height,
		Model:     resp.Model,
		Remaining: remaining,
	}
	if info, err := imaging.Inspect(resp.Data); err == nil {
		out.Width, out.Height = info.Width, info.Height
		out.MIMEType = info.MIMEType()
	} else if logger := observability.ServerLogger; logger != nil {
		logger.Warn("Generated payload did not decode as an image",
			zap.String("provider", h.Generator.Name()),
			zap.Error(err))
	}

	writeJSON(w, http.StatusOK, out)
}

// Quota handles GET /v1/quota.
func (h *ImageHandler) Quota(w http.ResponseWriter, r *http.Request) {
	identifier := h.identifier(r)
	used, remaining := h.Tracker.Usage(identifier, h.now())
	h.writeQuotaHeaders(w, remaining)

	writeJSON(w, http.StatusOK, QuotaResponse{
		Identifier: identifier,
		Limit:      h.Tracker.Limit(),
		Window:     h.Tracker.Window().String(),
		Used:       used,
		Remaining:  remaining,
	})
}

func (h *ImageHandler) identifier(r *http.Request) string {
	header := h.ClientHeader
	if header == "" {
		header = "X-Forwarded-For"
	}
	fallback := h.FallbackIdentifier
	if fallback == "" {
		fallback = "unknown"
	}
	return ClientIdentifier(r, header, fallback)
}

func (h *ImageHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

func (h *ImageHandler) writeQuotaHeaders(w http.ResponseWriter, remaining int) {
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(h.Tracker.Limit()))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
}

func (h *ImageHandler) recordDecision(ctx context.Context, identifier string, limited bool, remaining int) {
	metrics.RecordAdmission(limited)
	metrics.SetTrackedIdentifiers(h.Tracker.Len())

	logger := observability.ServerLogger
	if logger == nil {
		return
	}
	if limited {
		logger.Info("Admission rejected",
			zap.String("client", identifier),
			zap.Int("limit", h.Tracker.Limit()),
			zap.Duration("window", h.Tracker.Window()))
		return
	}
	logger.Debug("Admission granted",
		zap.String("client", identifier),
		zap.Int("remaining", remaining))
}

// generationError maps a provider failure onto the public error taxonomy.
func generationError(ctx context.Context, err error) error {
	switch {
	case generator.StatusCode(err) == http.StatusUnauthorized:
		return apperrors.WrapUnauthorized(ctx, err, "Invalid API key. Please check the image provider API key configuration.")
	case errors.Is(err, generator.ErrEmptyImage):
		return apperrors.WrapExternalService(ctx, err, "Failed to generate image: Invalid API response")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.WrapTimeout(ctx, err, "Image generation timed out. Please try again later.")
	default:
		return apperrors.WrapExternalService(ctx, err, "Failed to generate image. Please try again later.")
	}
}

// describeWindow renders a window for user-facing messages ("24 hours").
func describeWindow(window time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case window >= time.Hour && window%time.Hour == 0:
		return plural(int64(window/time.Hour), "hour")
	case window >= time.Minute && window%time.Minute == 0:
		return plural(int64(window/time.Minute), "minute")
	case window >= time.Second && window%time.Second == 0:
		return plural(int64(window/time.Second), "second")
	default:
		return window.String()
	}
}

func allowedSizeStrings() []string {
	sizes := make([]string, 0, len(imaging.AllowedSizes))
	for _, s := range imaging.AllowedSizes {
		sizes = append(sizes, s.String())
	}
	return sizes
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
