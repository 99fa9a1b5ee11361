package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/pixelgate/pixelgate/internal/simulate"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) FormatSimulation(result *simulate.Result) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Admission replay\n\n")
	sb.WriteString("| # | Client | At | Decision | Remaining |\n")
	sb.WriteString("|---|--------|----|----------|-----------|\n")

	for _, d := range result.Decisions {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %d |\n",
			d.Seq,
			escapeMarkdownCell(d.Client),
			d.At.UTC().Format(time.RFC3339),
			decisionLabel(d),
			d.Remaining,
		)
	}

	fmt.Fprintf(&sb, "\n**Summary**: %s\n", summaryLine(result))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
