package reporter

import (
	"encoding/json"
	"os"
)

type JSONReporter struct{}

func (r *JSONReporter) Report(entries []Entry) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	type output struct {
		Count    int     `json:"count"`
		Releases []Entry `json:"releases"`
	}

	return enc.Encode(output{
		Count:    len(entries),
		Releases: entries,
	})
}
