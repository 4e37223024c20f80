// Package catalog turns raw release tag names into per-component release
// chains. A chain starts with a synthetic root tag at the repository's first
// commit and then lists the component's releases in the order they were
// created.
package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/monorepo-release-notes/pkg/vcs"
)

// TagPrefix is the namespace all release tags live under.
const TagPrefix = "release/"

var versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// Tag is one version marker. The zero Name marks the synthetic root tag that
// anchors every chain at the repository's first commit.
type Tag struct {
	Name      string
	Component string
	Version   string
	CommitID  string
	CreatedAt time.Time
}

// IsRoot reports whether the tag is a chain's synthetic root.
func (t Tag) IsRoot() bool { return t.Name == "" }

// ReleaseChain is the ordered release history of one component: the root tag
// followed by its releases in creation order.
type ReleaseChain struct {
	Component string
	Tags      []Tag
}

// Catalog maps components to their release chains, remembering the order in
// which components were first seen.
type Catalog struct {
	chains map[string]*ReleaseChain
	order  []string
}

// Components returns component names in first-seen order.
func (c *Catalog) Components() []string { return c.order }

// Chain returns the release chain for a component.
func (c *Catalog) Chain(component string) (*ReleaseChain, bool) {
	chain, ok := c.chains[component]
	return chain, ok
}

// TagName formats the tag name for a component release.
func TagName(component, version string) string {
	return TagPrefix + component + "/" + version
}

// ParseTagName splits a release tag name into component and version,
// validating both the shape and the version format.
func ParseTagName(name string) (component, version string, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 3 || parts[0] != strings.TrimSuffix(TagPrefix, "/") || parts[1] == "" {
		return "", "", &MalformedTagError{Name: name, Reason: "want release/<component>/<version>"}
	}
	if !versionPattern.MatchString(parts[2]) {
		return "", "", &MalformedTagError{Name: name, Reason: "version must be dot-separated integers"}
	}
	return parts[1], parts[2], nil
}

// ValidVersion reports whether s is one or more dot-separated non-negative
// integers.
func ValidVersion(s string) bool { return versionPattern.MatchString(s) }

// FilterReleaseTags keeps only the names under the release tag namespace.
func FilterReleaseTags(names []string) []string {
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, TagPrefix) {
			out = append(out, n)
		}
	}
	return out
}

// Build parses rawTags in order, resolving each to its commit through repo,
// and groups them into per-component chains. Every chain is seeded with the
// synthetic root tag at the repository's first commit.
func Build(rawTags []string, repo vcs.Repository) (*Catalog, error) {
	if len(rawTags) == 0 {
		return nil, ErrNoTags
	}

	firstCommit, err := repo.FirstCommitID()
	if err != nil {
		return nil, err
	}
	rootDate, err := repo.CommitDate(firstCommit)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{chains: make(map[string]*ReleaseChain)}
	for _, raw := range rawTags {
		component, version, err := ParseTagName(raw)
		if err != nil {
			return nil, err
		}

		chain, ok := cat.chains[component]
		if !ok {
			chain = &ReleaseChain{
				Component: component,
				Tags: []Tag{{
					Component: component,
					CommitID:  firstCommit,
					CreatedAt: rootDate,
				}},
			}
			cat.chains[component] = chain
			cat.order = append(cat.order, component)
		}

		for _, t := range chain.Tags {
			if !t.IsRoot() && t.Version == version {
				return nil, &DuplicateTagError{Component: component, Version: version}
			}
		}

		commitID, err := repo.ResolveTag(raw)
		if err != nil {
			return nil, err
		}
		createdAt, err := repo.CommitDate(commitID)
		if err != nil {
			return nil, err
		}

		chain.Tags = append(chain.Tags, Tag{
			Name:      raw,
			Component: component,
			Version:   version,
			CommitID:  commitID,
			CreatedAt: createdAt,
		})
	}
	return cat, nil
}

// Append adds an already-built tag to its component's chain, creating the
// chain (with its root) when the component is new. Used when the operator
// declares a release that has not been tagged yet.
func (c *Catalog) Append(tag Tag, rootCommitID string, rootDate time.Time) error {
	chain, ok := c.chains[tag.Component]
	if !ok {
		chain = &ReleaseChain{
			Component: tag.Component,
			Tags: []Tag{{
				Component: tag.Component,
				CommitID:  rootCommitID,
				CreatedAt: rootDate,
			}},
		}
		c.chains[tag.Component] = chain
		c.order = append(c.order, tag.Component)
	}
	for _, t := range chain.Tags {
		if !t.IsRoot() && t.Version == tag.Version {
			return &DuplicateTagError{Component: tag.Component, Version: tag.Version}
		}
	}
	chain.Tags = append(chain.Tags, tag)
	return nil
}
