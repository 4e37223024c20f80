package catalog

import (
	"errors"
	"fmt"
)

// ErrNoTags means no release tag at all matched the expected namespace.
// There is nothing to generate notes for, so a run cannot proceed.
var ErrNoTags = errors.New("no release tags found")

// MalformedTagError reports a tag name that does not fit
// release/<component>/<version>.
type MalformedTagError struct {
	Name   string
	Reason string
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("malformed release tag %q: %s", e.Name, e.Reason)
}

// DuplicateTagError reports a second tag for the same (component, version).
type DuplicateTagError struct {
	Component string
	Version   string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("duplicate release tag for component %q version %q", e.Component, e.Version)
}
