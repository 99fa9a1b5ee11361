package output

import (
	"fmt"
	"strings"

	"github.com/pixelgate/pixelgate/internal/simulate"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders simulation results.
type Formatter interface {
	FormatSimulation(result *simulate.Result) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func decisionLabel(d simulate.Decision) string {
	if d.Admitted {
		return "admitted"
	}
	return "rejected"
}

func summaryLine(result *simulate.Result) string {
	return fmt.Sprintf("%d/%d admitted, %d rejected, %d clients (limit %d per %s)",
		result.Admitted, result.Requests, result.Rejected, result.Clients, result.Limit, result.Window)
}
