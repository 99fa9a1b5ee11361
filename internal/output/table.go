package output

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pixelgate/pixelgate/internal/simulate"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

func (f *TableFormatter) FormatSimulation(result *simulate.Result) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Client", "At", "Decision", "Remaining"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for _, d := range result.Decisions {
		t.AppendRow(table.Row{
			d.Seq,
			d.Client,
			d.At.UTC().Format(time.RFC3339),
			decisionLabel(d),
			strconv.Itoa(d.Remaining),
		})
	}

	t.AppendFooter(table.Row{"", "", "", summaryLine(result), ""})
	return t.Render(), nil
}
