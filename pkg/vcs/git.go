package vcs

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepository answers repository queries against a local clone, in process,
// through go-git. Merge bases and range logs are computed over the object
// store directly instead of shelling out to a git binary.
type GitRepository struct {
	repo *git.Repository
}

// OpenGit opens the repository at path, walking up to find the .git
// directory the way the git CLI does.
func OpenGit(path string) (*GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, queryErr("open", path, err)
	}
	return &GitRepository{repo: repo}, nil
}

func (g *GitRepository) Tags(order TagSort) ([]string, error) {
	type taggedRef struct {
		name string
		when time.Time
	}

	var refs []taggedRef
	iter, err := g.repo.Tags()
	if err != nil {
		return nil, queryErr("list tags", "", err)
	}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		when, err := g.tagCreatedAt(ref)
		if err != nil {
			return fmt.Errorf("tag %s: %w", name, err)
		}
		refs = append(refs, taggedRef{name: name, when: when})
		return nil
	})
	if err != nil {
		return nil, queryErr("list tags", "", err)
	}

	switch order {
	case SortByVersion:
		sort.Slice(refs, func(i, j int) bool { return versionLess(refs[i].name, refs[j].name) })
	default:
		sort.SliceStable(refs, func(i, j int) bool { return refs[i].when.Before(refs[j].when) })
	}

	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.name
	}
	return names, nil
}

// tagCreatedAt returns the tagger date for annotated tags and the commit
// date for lightweight ones.
func (g *GitRepository) tagCreatedAt(ref *plumbing.Reference) (time.Time, error) {
	if tag, err := g.repo.TagObject(ref.Hash()); err == nil {
		return tag.Tagger.When, nil
	} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
		return time.Time{}, err
	}
	commit, err := g.repo.CommitObject(ref.Hash())
	if err != nil {
		return time.Time{}, err
	}
	return commit.Committer.When, nil
}

func (g *GitRepository) FirstCommitID() (string, error) {
	head, err := g.headCommit()
	if err != nil {
		return "", queryErr("first commit", "", err)
	}

	// A history can have several roots (e.g. merged-in subtrees); the
	// repository's first commit is the oldest of them.
	var first *object.Commit
	iter := object.NewCommitPreorderIter(head, nil, nil)
	err = iter.ForEach(func(c *object.Commit) error {
		if c.NumParents() != 0 {
			return nil
		}
		if first == nil || c.Committer.When.Before(first.Committer.When) {
			first = c
		}
		return nil
	})
	if err != nil {
		return "", queryErr("first commit", "", err)
	}
	if first == nil {
		return "", queryErr("first commit", "", errors.New("no root commit reachable from HEAD"))
	}
	return first.Hash.String(), nil
}

func (g *GitRepository) LatestCommitID() (string, error) {
	head, err := g.headCommit()
	if err != nil {
		return "", queryErr("latest commit", "", err)
	}
	return head.Hash.String(), nil
}

func (g *GitRepository) ResolveTag(name string) (string, error) {
	ref, err := g.repo.Tag(name)
	if err != nil {
		return "", queryErr("resolve tag", name, err)
	}
	if tag, err := g.repo.TagObject(ref.Hash()); err == nil {
		commit, err := tag.Commit()
		if err != nil {
			return "", queryErr("resolve tag", name, err)
		}
		return commit.Hash.String(), nil
	} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
		return "", queryErr("resolve tag", name, err)
	}
	return ref.Hash().String(), nil
}

func (g *GitRepository) MergeBase(a, b string) (string, error) {
	ca, err := g.commit(a)
	if err != nil {
		return "", queryErr("merge base", a, err)
	}
	cb, err := g.commit(b)
	if err != nil {
		return "", queryErr("merge base", b, err)
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return "", queryErr("merge base", a+".."+b, err)
	}
	if len(bases) == 0 {
		// Disjoint histories: not a fault, there simply is no common
		// ancestor. Callers decide what that means.
		return "", nil
	}
	return bases[0].Hash.String(), nil
}

func (g *GitRepository) LogBetween(fromExclusive, toInclusive string) ([]CommitRecord, error) {
	to, err := g.commit(toInclusive)
	if err != nil {
		return nil, queryErr("log", toInclusive, err)
	}

	exclude := map[plumbing.Hash]bool{}
	if fromExclusive != "" {
		from, err := g.commit(fromExclusive)
		if err != nil {
			return nil, queryErr("log", fromExclusive, err)
		}
		iter := object.NewCommitPreorderIter(from, nil, nil)
		if err := iter.ForEach(func(c *object.Commit) error {
			exclude[c.Hash] = true
			return nil
		}); err != nil {
			return nil, queryErr("log", fromExclusive, err)
		}
	}

	var records []CommitRecord
	iter := object.NewCommitPreorderIter(to, exclude, nil)
	if err := iter.ForEach(func(c *object.Commit) error {
		records = append(records, CommitRecord{
			ID:      c.Hash.String(),
			Date:    c.Author.When,
			Message: c.Message,
		})
		return nil
	}); err != nil {
		return nil, queryErr("log", toInclusive, err)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	return records, nil
}

func (g *GitRepository) ChangedPaths(commitID string) ([]string, error) {
	c, err := g.commit(commitID)
	if err != nil {
		return nil, queryErr("changed paths", commitID, err)
	}
	stats, err := c.Stats()
	if err != nil {
		return nil, queryErr("changed paths", commitID, err)
	}
	paths := make([]string, len(stats))
	for i, s := range stats {
		paths[i] = s.Name
	}
	return paths, nil
}

func (g *GitRepository) CommitDate(commitID string) (time.Time, error) {
	c, err := g.commit(commitID)
	if err != nil {
		return time.Time{}, queryErr("commit date", commitID, err)
	}
	return c.Author.When, nil
}

func (g *GitRepository) commit(id string) (*object.Commit, error) {
	return g.repo.CommitObject(plumbing.NewHash(id))
}

func (g *GitRepository) headCommit() (*object.Commit, error) {
	head, err := g.repo.Head()
	if err != nil {
		return nil, err
	}
	return g.repo.CommitObject(head.Hash())
}

// RemoteURL returns the first fetch URL of the named remote.
func (g *GitRepository) RemoteURL(name string) (string, error) {
	remote, err := g.repo.Remote(name)
	if err != nil {
		return "", queryErr("remote", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", queryErr("remote", name, errors.New("remote has no URL"))
	}
	return urls[0], nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (g *GitRepository) CurrentBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", queryErr("current branch", "", err)
	}
	if !head.Name().IsBranch() {
		return "", queryErr("current branch", "", errors.New("HEAD is detached"))
	}
	return head.Name().Short(), nil
}

// IsClean reports whether the worktree has no staged, unstaged or untracked
// changes.
func (g *GitRepository) IsClean() (bool, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return false, queryErr("status", "", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, queryErr("status", "", err)
	}
	return status.IsClean(), nil
}

// CommitFiles stages the given paths and commits them with message.
func (g *GitRepository) CommitFiles(paths []string, message string) (string, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return "", queryErr("commit", "", err)
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return "", queryErr("add", p, err)
		}
	}
	hash, err := wt.Commit(message, &git.CommitOptions{})
	if err != nil {
		return "", queryErr("commit", "", err)
	}
	return hash.String(), nil
}

// CreateTag creates a lightweight tag pointing at the current head.
func (g *GitRepository) CreateTag(name string) error {
	head, err := g.repo.Head()
	if err != nil {
		return queryErr("tag", name, err)
	}
	if _, err := g.repo.CreateTag(name, head.Hash(), nil); err != nil {
		return queryErr("tag", name, err)
	}
	return nil
}

// Push pushes a branch and a tag to the named remote, using whatever
// credentials the ambient git configuration provides.
func (g *GitRepository) Push(remote, branch, tag string) error {
	specs := []gitconfig.RefSpec{
		gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)),
		gitconfig.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)),
	}
	err := g.repo.Push(&git.PushOptions{RemoteName: remote, RefSpecs: specs})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return queryErr("push", remote, err)
	}
	return nil
}
