package vcs

import (
	"fmt"
	"time"
)

// TagSort selects the ordering of Repository.Tags.
type TagSort int

const (
	// SortByCreation orders tags oldest first by the date they were created.
	SortByCreation TagSort = iota
	// SortByVersion orders tags by natural version comparison of their names.
	SortByVersion
)

// CommitRecord is one entry of a commit log.
type CommitRecord struct {
	ID      string
	Date    time.Time
	Message string
}

// Repository is the read-only view of a version-controlled repository that
// release resolution needs. Implementations must be side-effect free: the
// same query against the same repository state returns the same answer.
type Repository interface {
	// Tags returns all tag names in the requested order.
	Tags(sort TagSort) ([]string, error)

	// FirstCommitID returns the id of the repository's initial commit.
	FirstCommitID() (string, error)

	// LatestCommitID returns the id of the current head commit.
	LatestCommitID() (string, error)

	// ResolveTag returns the commit id a tag points to, peeling annotated
	// tags down to their commit.
	ResolveTag(name string) (string, error)

	// MergeBase returns the lowest common ancestor of two commits, or the
	// empty string when the commits share no history.
	MergeBase(a, b string) (string, error)

	// LogBetween returns the commits reachable from toInclusive but not from
	// fromExclusive, newest first.
	LogBetween(fromExclusive, toInclusive string) ([]CommitRecord, error)

	// ChangedPaths returns the paths touched by a commit.
	ChangedPaths(commitID string) ([]string, error)

	// CommitDate returns the author date of a commit.
	CommitDate(commitID string) (time.Time, error)
}

// QueryError wraps a failed repository query with the operation and the ref
// it was asked about, so callers can report which lookup broke a run.
type QueryError struct {
	Op  string
	Ref string
	Err error
}

func (e *QueryError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("vcs %s %q: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("vcs %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryErr(op, ref string, err error) error {
	return &QueryError{Op: op, Ref: ref, Err: err}
}
