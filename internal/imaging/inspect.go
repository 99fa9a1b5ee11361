// Package imaging inspects generated image payloads.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"strings"

	_ "golang.org/x/image/webp" // register decoder
)

// Info describes a decoded image header.
type Info struct {
	Format string
	Width  int
	Height int
}

// MIMEType returns the media type for the detected format.
func (i Info) MIMEType() string {
	if i.Format == "" {
		return "application/octet-stream"
	}
	return "image/" + i.Format
}

// Inspect decodes only the image header of data.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("empty image payload")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Size is a parsed WxH request size.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DefaultSize is used when the caller omits a size.
var DefaultSize = Size{Width: 1024, Height: 1024}

// AllowedSizes lists the sizes the endpoint accepts.
var AllowedSizes = []Size{
	{Width: 1024, Height: 1024},
	{Width: 1024, Height: 1792},
	{Width: 1792, Height: 1024},
}

// ParseSize parses "WxH". Missing or non-numeric parts fall back to 1024.
func ParseSize(raw string) Size {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultSize
	}
	w, h, _ := strings.Cut(raw, "x")
	return Size{Width: dimension(w), Height: dimension(h)}
}

// Allowed reports whether s is one of AllowedSizes.
func (s Size) Allowed() bool {
	for _, allowed := range AllowedSizes {
		if s == allowed {
			return true
		}
	}
	return false
}

func dimension(raw string) int {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &n); err != nil || n <= 0 {
		return 1024
	}
	return n
}
