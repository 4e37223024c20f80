// Package reporter prints resolved release lineage for inspection and dry
// runs.
package reporter

import "time"

// Entry is one resolved release.
type Entry struct {
	Component         string    `json:"component"`
	Tag               string    `json:"tag"`
	Version           string    `json:"version"`
	Date              time.Time `json:"date"`
	CommitID          string    `json:"commit"`
	Predecessor       string    `json:"predecessor"`
	PredecessorCommit string    `json:"predecessor_commit"`
	Tickets           int       `json:"tickets"`
}

type Reporter interface {
	Report(entries []Entry) error
}

func New(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	default:
		return &TableReporter{}
	}
}
