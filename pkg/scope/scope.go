// Package scope narrows a release's commit range to the commits that belong
// to one component of the monorepo and extracts their ticket references.
package scope

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/monorepo-release-notes/pkg/ancestry"
	"github.com/monorepo-release-notes/pkg/vcs"
)

var (
	issueIDPattern = regexp.MustCompile(`[A-Z]{2}-[0-9]+`)
	pullIDPattern  = regexp.MustCompile(` #([0-9]+) `)
)

// Ticket is one in-scope commit with whatever it told us about itself.
// IssueID is empty when the commit message references no tracker issue;
// that is an expected state, not a defect.
type Ticket struct {
	Date          time.Time
	CommitID      string
	Title         string
	IssueID       string
	PullRequestID string
}

// Filter selects, for a resolved release, the commits that touched the
// component's subtree.
type Filter struct {
	repo          vcs.Repository
	componentRoot string
}

// NewFilter builds a filter rooted at componentRoot (the directory each
// component lives under, e.g. "components").
func NewFilter(repo vcs.Repository, componentRoot string) *Filter {
	return &Filter{repo: repo, componentRoot: componentRoot}
}

// Commits returns, in the repository's log order, one ticket per commit
// between the release's predecessor (exclusive) and the release itself
// (inclusive) that changed at least one path under the component's subtree.
func (f *Filter) Commits(link ancestry.Link) ([]Ticket, error) {
	records, err := f.repo.LogBetween(link.PredecessorCommitID, link.Tag.CommitID)
	if err != nil {
		return nil, fmt.Errorf("log for %s: %w", link.Tag.Name, err)
	}

	subtree := path.Join(f.componentRoot, link.Tag.Component) + "/"

	var tickets []Ticket
	for _, rec := range records {
		paths, err := f.repo.ChangedPaths(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("changed paths for %s: %w", rec.ID, err)
		}
		if !touches(paths, subtree) {
			continue
		}

		title := rec.Message
		if i := strings.IndexByte(title, '\n'); i >= 0 {
			title = title[:i]
		}
		title = strings.TrimSpace(title)

		// FindString returns "" for no match, which is exactly the
		// "commit references no issue" state.
		issueID := issueIDPattern.FindString(rec.Message)
		pullID := ""
		if m := pullIDPattern.FindStringSubmatch(rec.Message); m != nil {
			pullID = m[1]
		}

		tickets = append(tickets, Ticket{
			Date:          rec.Date,
			CommitID:      rec.ID,
			Title:         title,
			IssueID:       issueID,
			PullRequestID: pullID,
		})
	}
	return tickets, nil
}

// touches reports whether any changed path is under the subtree. The first
// hit decides; the rest of the list is never inspected.
func touches(paths []string, subtree string) bool {
	for _, p := range paths {
		if strings.HasPrefix(p, subtree) {
			return true
		}
	}
	return false
}
