// Package assemble merges in-scope commits with tracker records into the
// rows of a release-notes table.
//
// Field precedence: when a commit references a tracker issue, the tracker's
// summary is what readers see; the raw commit title is shown only for
// commits with no issue reference. This rule is applied here and nowhere
// else.
package assemble

import (
	"fmt"

	"github.com/monorepo-release-notes/pkg/scope"
	"github.com/monorepo-release-notes/pkg/tracker"
)

// Headers are the release-notes table columns, in render order.
var Headers = []string{"Priority", "Ticket", "Summary", "Assignee", "Github", "JIRA"}

// Row is one table row; it always has exactly len(Headers) cells.
type Row []string

// Links holds the web URL bases used to turn ids into markdown links.
type Links struct {
	CommitURL string
	PullURL   string
}

// Assembler enriches tickets through the tracker and lays them out as rows.
type Assembler struct {
	client tracker.Client
	links  Links
}

func New(client tracker.Client, links Links) *Assembler {
	return &Assembler{client: client, links: links}
}

// Assemble returns one row per ticket, in input order. Each distinct issue
// id is looked up once; a lookup failure fails the whole assembly rather
// than leaving a hole in a published document.
func (a *Assembler) Assemble(tickets []scope.Ticket) ([]Row, error) {
	issues := make(map[string]tracker.Issue)
	for _, t := range tickets {
		if t.IssueID == "" {
			continue
		}
		if _, ok := issues[t.IssueID]; ok {
			continue
		}
		issue, err := a.client.GetIssue(t.IssueID)
		if err != nil {
			return nil, err
		}
		issues[t.IssueID] = issue
	}

	rows := make([]Row, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, a.row(t, issues))
	}
	return rows, nil
}

func (a *Assembler) row(t scope.Ticket, issues map[string]tracker.Issue) Row {
	row := make(Row, len(Headers))
	row[1] = t.IssueID

	if t.IssueID != "" {
		issue := issues[t.IssueID]
		row[0] = issue.Priority
		row[2] = issue.Summary
		row[3] = issue.Assignee
		row[5] = fmt.Sprintf("[%s](%s)", t.IssueID, issue.URL)
	} else {
		row[2] = t.Title
	}

	switch {
	case t.IssueID != "" && t.PullRequestID != "":
		row[4] = fmt.Sprintf("[#%s](%s%s)", t.PullRequestID, a.links.PullURL, t.PullRequestID)
	case t.CommitID != "":
		row[4] = fmt.Sprintf("[%s](%s%s)", shortID(t.CommitID), a.links.CommitURL, t.CommitID)
	}

	return row
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
