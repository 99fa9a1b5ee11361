package output

import (
	"encoding/json"

	"github.com/pixelgate/pixelgate/internal/simulate"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatSimulation(result *simulate.Result) (string, error) {
	if result == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
