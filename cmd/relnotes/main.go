package main

import (
	"fmt"
	"os"

	"github.com/google/go-github/v60/github"
	"github.com/spf13/cobra"

	"github.com/monorepo-release-notes/pkg/ancestry"
	"github.com/monorepo-release-notes/pkg/assemble"
	"github.com/monorepo-release-notes/pkg/catalog"
	"github.com/monorepo-release-notes/pkg/config"
	"github.com/monorepo-release-notes/pkg/reporter"
	"github.com/monorepo-release-notes/pkg/scope"
	"github.com/monorepo-release-notes/pkg/tracker"
	"github.com/monorepo-release-notes/pkg/vcs"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "relnotes",
		Short:   "Generate per-component release notes for a monorepo",
		Long:    `Correlates release tags with tracker issues and renders per-component release-notes documents, guiding the operator through tagging and publishing a release.`,
		Version: fmt.Sprintf("%s (%s)", version, commit),
		RunE:    run,
	}

	rootCmd.Flags().BoolP("all", "a", false, "Regenerate documents for all components")
	rootCmd.Flags().String("component", "", "Component to release (prompted if omitted)")
	rootCmd.Flags().String("version", "", "Version to release (prompted if omitted)")
	rootCmd.Flags().String("config", ".relnotes.yml", "Path to config file")
	rootCmd.Flags().Bool("dry-run", false, "Resolve lineage and report it without writing documents")
	rootCmd.Flags().String("output", "table", "Dry-run output format: json | table")
	rootCmd.Flags().String("path", ".", "Path to the local repository")
	rootCmd.Flags().String("repo", os.Getenv("GITHUB_REPOSITORY"), "GitHub repo (owner/repo) to query instead of a local clone (dry-run only)")
	rootCmd.Flags().String("github-token", os.Getenv("GITHUB_TOKEN"), "GitHub token for API access")
	rootCmd.Flags().String("tracker-url", "", "Issue tracker base URL")
	rootCmd.Flags().String("tracker-account", os.Getenv("JIRA_ACCOUNT"), "Issue tracker account")
	rootCmd.Flags().String("tracker-token", os.Getenv("JIRA_TOKEN"), "Issue tracker API token")
	rootCmd.Flags().String("remote", "", "Remote to push the release to")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load config file: %v (using defaults)\n", err)
		cfg = config.Default()
	}
	cfg = config.MergeFlags(cfg, cmd.Flags())

	repo, workspace, err := openRepository(cfg)
	if err != nil {
		return err
	}

	rawTags, err := repo.Tags(vcs.SortByCreation)
	if err != nil {
		return err
	}

	cat, err := catalog.Build(catalog.FilterReleaseTags(rawTags), repo)
	if err != nil {
		return err
	}

	resolver := ancestry.NewResolver(repo)
	links, err := resolver.Resolve(cat)
	if err != nil {
		return err
	}

	filter := scope.NewFilter(repo, cfg.ComponentRoot)

	if cfg.DryRun {
		fmt.Println("dry-run mode: no documents will be written")
		return report(cfg, cat, links, filter)
	}
	if workspace == nil {
		return fmt.Errorf("publishing needs a local repository; --repo is only valid with --dry-run")
	}

	trackerClient := tracker.NewJiraClient(
		cfg.Tracker.BaseURL, cfg.Tracker.Account, cfg.Tracker.Token,
		tracker.RetryPolicy{Attempts: cfg.Retry.Attempts, InitialBackoff: cfg.Retry.Backoff()},
	)
	assembler := assemble.New(trackerClient, assemble.Links{
		CommitURL: cfg.Github.CommitURL,
		PullURL:   cfg.Github.PullURL,
	})

	flow := &releaseFlow{
		cfg:       cfg,
		repo:      repo,
		workspace: workspace,
		resolver:  resolver,
		filter:    filter,
		assembler: assembler,
		catalog:   cat,
		links:     links,
	}
	return flow.Run()
}

// openRepository picks the backend: the GitHub API when --repo is given, a
// local clone otherwise. Only the local backend can publish.
func openRepository(cfg *config.Config) (vcs.Repository, *vcs.GitRepository, error) {
	if cfg.GithubRepo != "" {
		owner, name, err := vcs.ParseGitHubRepo(cfg.GithubRepo)
		if err != nil {
			return nil, nil, err
		}
		client := github.NewClient(nil)
		if cfg.Token != "" {
			client = client.WithAuthToken(cfg.Token)
		}
		cfg.Github.ApplyRepoDefaults(owner+"/"+name, cfg.ComponentRoot)
		return vcs.NewGitHubRepository(client, owner, name), nil, nil
	}

	path := cfg.RepoPath
	if path == "" {
		path = "."
	}
	workspace, err := vcs.OpenGit(path)
	if err != nil {
		return nil, nil, err
	}
	if url, err := workspace.RemoteURL(cfg.Remote); err == nil {
		if owner, name, err := vcs.ParseGitHubRepo(url); err == nil {
			cfg.Github.ApplyRepoDefaults(owner+"/"+name, cfg.ComponentRoot)
		}
	}
	return workspace, workspace, nil
}

// report prints the resolved lineage, one entry per release, newest first
// within each component.
func report(cfg *config.Config, cat *catalog.Catalog, links map[string][]ancestry.Link, filter *scope.Filter) error {
	var entries []reporter.Entry
	for _, component := range cat.Components() {
		chainLinks := links[component]
		for i := len(chainLinks) - 1; i >= 0; i-- {
			link := chainLinks[i]
			tickets, err := filter.Commits(link)
			if err != nil {
				return err
			}
			entries = append(entries, reporter.Entry{
				Component:         component,
				Tag:               link.Tag.Name,
				Version:           link.Tag.Version,
				Date:              link.Tag.CreatedAt,
				CommitID:          link.Tag.CommitID,
				Predecessor:       link.PredecessorTag.Name,
				PredecessorCommit: link.PredecessorCommitID,
				Tickets:           len(tickets),
			})
		}
	}
	return reporter.New(cfg.Output).Report(entries)
}
