// Package notes renders per-component release-notes documents and preserves
// the operator-authored summary blocks across regenerations.
package notes

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/monorepo-release-notes/pkg/assemble"
)

// ValidationError reports a structurally broken document, e.g. a table row
// whose cell count disagrees with the header.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "release notes validation: " + e.Msg
}

// Release is everything the renderer needs for one release section.
type Release struct {
	TagName             string
	Version             string
	Date                time.Time
	CommitID            string
	PredecessorName     string
	PredecessorCommitID string
	Summary             string
	Rows                []assemble.Row
}

// Renderer turns a component's releases into one markdown document.
type Renderer struct {
	// TreeURL, CompareURL: web URL bases for the component directory and
	// the two-commit comparison view.
	TreeURL       string
	CompareURL    string
	ComponentRoot string
}

var componentTmpl = template.Must(template.New("component").Funcs(template.FuncMap{
	"join": strings.Join,
	"separator": func(headers []string) string {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = strings.Repeat("-", len(h)+2)
		}
		return strings.Join(cells, "|")
	},
}).Parse(`# [{{.Component}}]({{.ComponentURL}})
{{range .Releases}}
## ` + "`{{.Version}}` `{{.Date}}`" + `

` + summaryStartPrefix + ` {{.TagName}}; ` + summaryMarkerNote + `-->

{{.Summary}}` + summaryEndPrefix + ` {{.TagName}}; ` + summaryMarkerNote + `-->

| {{join .Headers " | "}} |
|{{separator .Headers}}|
{{- range .Rows}}
|{{join . "|"}}|
{{- end}}

Previous Release: ` + "`{{.PredecessorName}}`" + `

[Compare changes on Github]({{.CompareLink}})

` + "```" + `
>> git diff {{.PredecessorCommitID}} {{.CommitID}} {{.ComponentDir}}
` + "```" + `
{{end}}`))

type releaseView struct {
	TagName             string
	Version             string
	Date                string
	Summary             string
	Headers             []string
	Rows                []assemble.Row
	PredecessorName     string
	PredecessorCommitID string
	CommitID            string
	CompareLink         string
	ComponentDir        string
}

type componentView struct {
	Component    string
	ComponentURL string
	Releases     []releaseView
}

// Component renders the full document for one component. Releases render in
// the order given (callers pass newest first). Every row must have exactly
// as many cells as the table header.
func (r *Renderer) Component(component string, releases []Release) (string, error) {
	view := componentView{
		Component:    component,
		ComponentURL: r.TreeURL + component,
		Releases:     make([]releaseView, 0, len(releases)),
	}

	for _, rel := range releases {
		for _, row := range rel.Rows {
			if len(row) != len(assemble.Headers) {
				return "", &ValidationError{Msg: fmt.Sprintf(
					"release %s: row has %d cells, header has %d", rel.TagName, len(row), len(assemble.Headers))}
			}
		}

		summary := rel.Summary
		if summary != "" && !strings.HasSuffix(summary, "\n") {
			summary += "\n"
		}

		view.Releases = append(view.Releases, releaseView{
			TagName:             rel.TagName,
			Version:             rel.Version,
			Date:                rel.Date.Format("2006-01-02"),
			Summary:             summary,
			Headers:             assemble.Headers,
			Rows:                rel.Rows,
			PredecessorName:     rel.PredecessorName,
			PredecessorCommitID: rel.PredecessorCommitID,
			CommitID:            rel.CommitID,
			CompareLink:         r.CompareURL + rel.PredecessorCommitID + "..." + rel.CommitID,
			ComponentDir:        r.ComponentRoot + "/" + component + "/",
		})
	}

	var buf bytes.Buffer
	if err := componentTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
