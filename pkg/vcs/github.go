package vcs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
)

// GitHubRepository answers repository queries over the GitHub REST API, for
// running against a repository without a local clone. The compare endpoint
// supplies both merge bases and range logs; per-commit file lists come from
// the commits endpoint.
type GitHubRepository struct {
	client *github.Client
	owner  string
	repo   string
	ctx    context.Context
}

func NewGitHubRepository(client *github.Client, owner, repo string) *GitHubRepository {
	return &GitHubRepository{
		client: client,
		owner:  owner,
		repo:   repo,
		ctx:    context.Background(),
	}
}

// ParseGitHubRepo splits an "owner/repo" string or a github.com URL into its
// owner and repository parts.
func ParseGitHubRepo(repoURL string) (owner, repo string, err error) {
	repoURL = strings.TrimPrefix(repoURL, "https://")
	repoURL = strings.TrimPrefix(repoURL, "http://")
	repoURL = strings.TrimPrefix(repoURL, "github.com/")
	repoURL = strings.TrimSuffix(repoURL, ".git")
	repoURL = strings.TrimSuffix(repoURL, "/")

	parts := strings.SplitN(repoURL, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse GitHub repo from %q", repoURL)
	}
	return parts[0], parts[1], nil
}

func (g *GitHubRepository) Tags(order TagSort) ([]string, error) {
	type taggedRef struct {
		name   string
		commit string
		when   time.Time
	}

	var refs []taggedRef
	opts := &github.ListOptions{PerPage: 100}
	for {
		tags, resp, err := g.client.Repositories.ListTags(g.ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, queryErr("list tags", g.owner+"/"+g.repo, err)
		}
		for _, t := range tags {
			refs = append(refs, taggedRef{name: t.GetName(), commit: t.GetCommit().GetSHA()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	switch order {
	case SortByVersion:
		sort.Slice(refs, func(i, j int) bool { return versionLess(refs[i].name, refs[j].name) })
	default:
		// The tags endpoint carries no dates; creation order costs one
		// commit lookup per tag.
		for i := range refs {
			when, err := g.CommitDate(refs[i].commit)
			if err != nil {
				return nil, err
			}
			refs[i].when = when
		}
		sort.SliceStable(refs, func(i, j int) bool { return refs[i].when.Before(refs[j].when) })
	}

	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.name
	}
	return names, nil
}

func (g *GitHubRepository) FirstCommitID() (string, error) {
	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	commits, resp, err := g.client.Repositories.ListCommits(g.ctx, g.owner, g.repo, opts)
	if err != nil {
		return "", queryErr("first commit", g.owner+"/"+g.repo, err)
	}
	if resp.LastPage > 0 {
		opts.Page = resp.LastPage
		commits, _, err = g.client.Repositories.ListCommits(g.ctx, g.owner, g.repo, opts)
		if err != nil {
			return "", queryErr("first commit", g.owner+"/"+g.repo, err)
		}
	}
	if len(commits) == 0 {
		return "", queryErr("first commit", g.owner+"/"+g.repo, fmt.Errorf("repository has no commits"))
	}
	return commits[len(commits)-1].GetSHA(), nil
}

func (g *GitHubRepository) LatestCommitID() (string, error) {
	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: 1}}
	commits, _, err := g.client.Repositories.ListCommits(g.ctx, g.owner, g.repo, opts)
	if err != nil || len(commits) == 0 {
		return "", queryErr("latest commit", g.owner+"/"+g.repo, err)
	}
	return commits[0].GetSHA(), nil
}

func (g *GitHubRepository) ResolveTag(name string) (string, error) {
	commit, _, err := g.client.Repositories.GetCommit(g.ctx, g.owner, g.repo, name, nil)
	if err != nil {
		return "", queryErr("resolve tag", name, err)
	}
	return commit.GetSHA(), nil
}

func (g *GitHubRepository) MergeBase(a, b string) (string, error) {
	comparison, _, err := g.client.Repositories.CompareCommits(g.ctx, g.owner, g.repo, a, b, nil)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			// No common history between the two commits.
			return "", nil
		}
		return "", queryErr("merge base", a+".."+b, err)
	}
	return comparison.GetMergeBaseCommit().GetSHA(), nil
}

func (g *GitHubRepository) LogBetween(fromExclusive, toInclusive string) ([]CommitRecord, error) {
	if fromExclusive == "" {
		return nil, queryErr("log", toInclusive, fmt.Errorf("compare requires a base commit"))
	}

	var records []CommitRecord
	opts := &github.ListOptions{PerPage: 100}
	for {
		comparison, resp, err := g.client.Repositories.CompareCommits(
			g.ctx, g.owner, g.repo, fromExclusive, toInclusive, opts)
		if err != nil {
			return nil, queryErr("log", fromExclusive+".."+toInclusive, err)
		}
		for _, c := range comparison.Commits {
			records = append(records, CommitRecord{
				ID:      c.GetSHA(),
				Date:    c.GetCommit().GetAuthor().GetDate().Time,
				Message: c.GetCommit().GetMessage(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	// Compare returns oldest first; the Repository contract is newest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (g *GitHubRepository) ChangedPaths(commitID string) ([]string, error) {
	commit, _, err := g.client.Repositories.GetCommit(g.ctx, g.owner, g.repo, commitID, nil)
	if err != nil {
		return nil, queryErr("changed paths", commitID, err)
	}
	paths := make([]string, 0, len(commit.Files))
	for _, f := range commit.Files {
		paths = append(paths, f.GetFilename())
	}
	return paths, nil
}

func (g *GitHubRepository) CommitDate(commitID string) (time.Time, error) {
	commit, _, err := g.client.Repositories.GetCommit(g.ctx, g.owner, g.repo, commitID, nil)
	if err != nil {
		return time.Time{}, queryErr("commit date", commitID, err)
	}
	return commit.GetCommit().GetAuthor().GetDate().Time, nil
}
