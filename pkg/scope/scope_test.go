package scope

import (
	"errors"
	"testing"
	"time"

	"github.com/monorepo-release-notes/pkg/ancestry"
	"github.com/monorepo-release-notes/pkg/catalog"
	"github.com/monorepo-release-notes/pkg/vcs"
)

type fakeRepo struct {
	log      []vcs.CommitRecord
	paths    map[string][]string
	pathsErr error
}

func (f *fakeRepo) LogBetween(from, to string) ([]vcs.CommitRecord, error) {
	return f.log, nil
}

func (f *fakeRepo) ChangedPaths(commitID string) ([]string, error) {
	if f.pathsErr != nil {
		return nil, f.pathsErr
	}
	return f.paths[commitID], nil
}

func (f *fakeRepo) Tags(vcs.TagSort) ([]string, error)    { return nil, nil }
func (f *fakeRepo) FirstCommitID() (string, error)        { return "", nil }
func (f *fakeRepo) LatestCommitID() (string, error)       { return "", nil }
func (f *fakeRepo) ResolveTag(string) (string, error)     { return "", nil }
func (f *fakeRepo) MergeBase(a, b string) (string, error) { return "", nil }
func (f *fakeRepo) CommitDate(string) (time.Time, error)  { return time.Time{}, nil }

func appLink() ancestry.Link {
	return ancestry.Link{
		Tag: catalog.Tag{
			Name:      "release/app/1.1.0",
			Component: "app",
			Version:   "1.1.0",
			CommitID:  "c2",
		},
		PredecessorTag:      catalog.Tag{Name: "release/app/1.0.0", Component: "app", CommitID: "c1"},
		PredecessorCommitID: "c1",
	}
}

func TestCommitsFiltersToComponentSubtree(t *testing.T) {
	repo := &fakeRepo{
		log: []vcs.CommitRecord{
			{ID: "a1", Message: "FT-12 fix boot splash #34 \n\nlonger body"},
			{ID: "a2", Message: "tweak unrelated tooling"},
			{ID: "a3", Message: "update docs"},
		},
		paths: map[string][]string{
			"a1": {"components/app/boot.go", "components/app/boot_test.go"},
			"a2": {"tools/lint.sh", "components/web/index.html"},
			"a3": {"components/app/README.md"},
		},
	}

	tickets, err := NewFilter(repo, "components").Commits(appLink())
	if err != nil {
		t.Fatalf("Commits() error = %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("len(tickets) = %d, want 2", len(tickets))
	}
	// a2 touched nothing under components/app/ and must not appear.
	for _, ticket := range tickets {
		if ticket.CommitID == "a2" {
			t.Fatal("commit outside the component subtree was included")
		}
		if ticket.CommitID == "" {
			t.Fatal("included ticket has empty commit id")
		}
	}
	// Log order is preserved.
	if tickets[0].CommitID != "a1" || tickets[1].CommitID != "a3" {
		t.Fatalf("ticket order = %s, %s; want a1, a3", tickets[0].CommitID, tickets[1].CommitID)
	}
}

func TestCommitsExtractsReferences(t *testing.T) {
	repo := &fakeRepo{
		log: []vcs.CommitRecord{
			{ID: "a1", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Message: "FT-1778 fix the feeder #102 \n\ndetails"},
			{ID: "a2", Message: "refactor internals"},
		},
		paths: map[string][]string{
			"a1": {"components/app/feeder.go"},
			"a2": {"components/app/internal.go"},
		},
	}

	tickets, err := NewFilter(repo, "components").Commits(appLink())
	if err != nil {
		t.Fatalf("Commits() error = %v", err)
	}

	got := tickets[0]
	if got.IssueID != "FT-1778" {
		t.Errorf("IssueID = %q, want FT-1778", got.IssueID)
	}
	if got.PullRequestID != "102" {
		t.Errorf("PullRequestID = %q, want 102", got.PullRequestID)
	}
	if got.Title != "FT-1778 fix the feeder #102" {
		t.Errorf("Title = %q, want the first message line", got.Title)
	}
	if got.Date.IsZero() {
		t.Error("Date not carried over")
	}

	// A commit with no references is still a valid ticket, just unlinked.
	if tickets[1].IssueID != "" || tickets[1].PullRequestID != "" {
		t.Errorf("unlinked commit got references: %+v", tickets[1])
	}
	if tickets[1].Title != "refactor internals" {
		t.Errorf("Title = %q", tickets[1].Title)
	}
}

func TestCommitsSubtreeBoundary(t *testing.T) {
	// "components/app2/..." must not count as inside "components/app".
	repo := &fakeRepo{
		log:   []vcs.CommitRecord{{ID: "a1", Message: "change app2"}},
		paths: map[string][]string{"a1": {"components/app2/main.go"}},
	}

	tickets, err := NewFilter(repo, "components").Commits(appLink())
	if err != nil {
		t.Fatalf("Commits() error = %v", err)
	}
	if len(tickets) != 0 {
		t.Fatalf("len(tickets) = %d, want 0", len(tickets))
	}
}

func TestCommitsPropagatesPathFault(t *testing.T) {
	queryErr := &vcs.QueryError{Op: "changed paths", Ref: "a1", Err: errors.New("unreadable")}
	repo := &fakeRepo{
		log:      []vcs.CommitRecord{{ID: "a1", Message: "x"}},
		pathsErr: queryErr,
	}

	_, err := NewFilter(repo, "components").Commits(appLink())
	var query *vcs.QueryError
	if !errors.As(err, &query) {
		t.Fatalf("Commits() error = %v, want wrapped QueryError", err)
	}
}
