// Package ancestry assigns every release in a component's chain its nearest
// prior release, the baseline its release notes diff against.
//
// Releases do not always descend from the latest release: a patch may branch
// off an older one. The resolver therefore scans a tag's earlier chain
// entries newest first and asks the repository for the merge base of each
// pair. The first merge base that lands exactly on a commit already known to
// the chain identifies the lineage the new release grew from, and the tag on
// that commit is its predecessor. On histories with criss-crossing merges
// the first-match rule can pick a defensible but arguably-off predecessor;
// that trade-off is deliberate and kept stable across runs.
package ancestry

import (
	"fmt"

	"github.com/monorepo-release-notes/pkg/catalog"
	"github.com/monorepo-release-notes/pkg/vcs"
)

// Link is the resolved predecessor of one non-root tag.
type Link struct {
	Tag                 catalog.Tag
	PredecessorTag      catalog.Tag
	PredecessorCommitID string
}

// NoAncestorFoundError means a tag's commit shares no recognizable lineage
// with any earlier release of its component. That is a repository topology
// the model cannot interpret and must be surfaced, never defaulted.
type NoAncestorFoundError struct {
	Component string
	Tag       string
}

func (e *NoAncestorFoundError) Error() string {
	return fmt.Sprintf("no ancestor release found for tag %q of component %q", e.Tag, e.Component)
}

// Resolver computes predecessor links. It is the only writer of links; the
// chains themselves are never mutated.
type Resolver struct {
	repo vcs.Repository
}

func NewResolver(repo vcs.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveChain links every non-root tag of chain to its nearest prior
// release. The returned slice is parallel to chain.Tags[1:]. Repository
// faults propagate unretried; an exhausted scan is a NoAncestorFoundError.
func (r *Resolver) ResolveChain(chain *catalog.ReleaseChain) ([]Link, error) {
	tags := chain.Tags
	if len(tags) == 0 || !tags[0].IsRoot() {
		return nil, fmt.Errorf("chain for component %q is not rooted", chain.Component)
	}

	// commit -> tag over the chain processed so far. Seeded with the root so
	// a release branched straight off the first commit still resolves.
	index := map[string]catalog.Tag{tags[0].CommitID: tags[0]}

	links := make([]Link, 0, len(tags)-1)
	for i := 1; i < len(tags); i++ {
		var link *Link
		for j := i - 1; j >= 0 && link == nil; j-- {
			base, err := r.repo.MergeBase(tags[i].CommitID, tags[j].CommitID)
			if err != nil {
				return nil, fmt.Errorf("resolve ancestor of %s: %w", tags[i].Name, err)
			}
			if base == "" {
				continue
			}
			if prev, ok := index[base]; ok {
				link = &Link{Tag: tags[i], PredecessorTag: prev, PredecessorCommitID: base}
			}
		}
		if link == nil {
			return nil, &NoAncestorFoundError{Component: chain.Component, Tag: tags[i].Name}
		}
		links = append(links, *link)
		index[tags[i].CommitID] = tags[i]
	}
	return links, nil
}

// Resolve links every chain of the catalog, keyed by component.
func (r *Resolver) Resolve(cat *catalog.Catalog) (map[string][]Link, error) {
	resolved := make(map[string][]Link, len(cat.Components()))
	for _, component := range cat.Components() {
		chain, _ := cat.Chain(component)
		links, err := r.ResolveChain(chain)
		if err != nil {
			return nil, err
		}
		resolved[component] = links
	}
	return resolved, nil
}
