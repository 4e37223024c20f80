package assemble

import (
	"errors"
	"testing"

	"github.com/monorepo-release-notes/pkg/scope"
	"github.com/monorepo-release-notes/pkg/tracker"
)

type fakeTracker struct {
	issues map[string]tracker.Issue
	err    error
	calls  map[string]int
}

func (f *fakeTracker) GetIssue(id string) (tracker.Issue, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[id]++
	if f.err != nil {
		return tracker.Issue{}, f.err
	}
	return f.issues[id], nil
}

var testLinks = Links{
	CommitURL: "https://github.com/acme/monorepo/commit/",
	PullURL:   "https://github.com/acme/monorepo/pull/",
}

func TestAssembleRowPerTicket(t *testing.T) {
	client := &fakeTracker{issues: map[string]tracker.Issue{
		"FT-1": {Summary: "Fix feeder", Assignee: "alice", Priority: "P1", URL: "https://tracker/browse/FT-1"},
	}}
	tickets := []scope.Ticket{
		{CommitID: "abcdef1234567", Title: "FT-1 fix feeder", IssueID: "FT-1", PullRequestID: "42"},
		{CommitID: "123456789abcd", Title: "tidy makefile"},
	}

	rows, err := New(client, testLinks).Assemble(tickets)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(rows) != len(tickets) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(tickets))
	}
	for i, row := range rows {
		if len(row) != len(Headers) {
			t.Fatalf("row %d has %d cells, want %d", i, len(row), len(Headers))
		}
	}

	tracked := rows[0]
	if tracked[0] != "P1" || tracked[1] != "FT-1" || tracked[3] != "alice" {
		t.Fatalf("tracked row = %v", tracked)
	}
	// The tracker summary wins over the commit title for tracked commits.
	if tracked[2] != "Fix feeder" {
		t.Fatalf("Summary cell = %q, want the tracker summary", tracked[2])
	}
	if tracked[4] != "[#42](https://github.com/acme/monorepo/pull/42)" {
		t.Fatalf("Github cell = %q", tracked[4])
	}
	if tracked[5] != "[FT-1](https://tracker/browse/FT-1)" {
		t.Fatalf("JIRA cell = %q", tracked[5])
	}

	untracked := rows[1]
	if untracked[0] != "" || untracked[1] != "" || untracked[3] != "" || untracked[5] != "" {
		t.Fatalf("untracked row has tracker fields: %v", untracked)
	}
	if untracked[2] != "tidy makefile" {
		t.Fatalf("Summary cell = %q, want the commit title", untracked[2])
	}
	if untracked[4] != "[1234567](https://github.com/acme/monorepo/commit/123456789abcd)" {
		t.Fatalf("Github cell = %q", untracked[4])
	}
}

func TestAssembleLooksUpEachIssueOnce(t *testing.T) {
	client := &fakeTracker{issues: map[string]tracker.Issue{"FT-1": {Summary: "S"}}}
	tickets := []scope.Ticket{
		{CommitID: "c1", IssueID: "FT-1"},
		{CommitID: "c2", IssueID: "FT-1"},
		{CommitID: "c3", IssueID: "FT-1"},
	}

	if _, err := New(client, testLinks).Assemble(tickets); err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if client.calls["FT-1"] != 1 {
		t.Fatalf("GetIssue(FT-1) called %d times, want 1", client.calls["FT-1"])
	}
}

func TestAssembleFailsWholeDocumentOnLookupError(t *testing.T) {
	serviceErr := &tracker.ServiceError{IssueID: "FT-1", Attempts: 3, Err: errors.New("502")}
	client := &fakeTracker{err: serviceErr}
	tickets := []scope.Ticket{
		{CommitID: "c1", Title: "ok without tracker"},
		{CommitID: "c2", IssueID: "FT-1"},
	}

	rows, err := New(client, testLinks).Assemble(tickets)
	if rows != nil {
		t.Fatal("Assemble() returned partial rows alongside an error")
	}
	var got *tracker.ServiceError
	if !errors.As(err, &got) {
		t.Fatalf("Assemble() error = %v, want ServiceError", err)
	}
}

func TestAssemblePlaceholderTicket(t *testing.T) {
	// The lead row for a release whose commit does not exist yet: no commit
	// id, no references, just a title.
	rows, err := New(&fakeTracker{}, testLinks).Assemble([]scope.Ticket{
		{Title: "Release release/app/1.2.0"},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	row := rows[0]
	if row[2] != "Release release/app/1.2.0" {
		t.Fatalf("Summary cell = %q", row[2])
	}
	if row[4] != "" {
		t.Fatalf("Github cell = %q, want empty without a commit", row[4])
	}
}
