package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/monorepo-release-notes/pkg/ancestry"
	"github.com/monorepo-release-notes/pkg/assemble"
	"github.com/monorepo-release-notes/pkg/catalog"
	"github.com/monorepo-release-notes/pkg/config"
	"github.com/monorepo-release-notes/pkg/notes"
	"github.com/monorepo-release-notes/pkg/scope"
	"github.com/monorepo-release-notes/pkg/vcs"
)

// releaseFlow walks the operator through a release: pick a component and
// version, regenerate the documents, then commit, tag and push.
type releaseFlow struct {
	cfg       *config.Config
	repo      vcs.Repository
	workspace *vcs.GitRepository
	resolver  *ancestry.Resolver
	filter    *scope.Filter
	assembler *assemble.Assembler
	catalog   *catalog.Catalog
	links     map[string][]ancestry.Link

	in      *bufio.Reader
	written []string
}

func (f *releaseFlow) Run() error {
	if f.in == nil {
		f.in = bufio.NewReader(os.Stdin)
	}

	pending, err := f.selectRelease()
	if err != nil {
		return err
	}
	if err := f.generateDocuments(pending); err != nil {
		return err
	}
	return f.commitAndPush(pending)
}

// selectRelease determines what is being released, from flags or by
// prompting, and appends the not-yet-tagged release to its chain so its
// ancestor resolves like any other tag.
func (f *releaseFlow) selectRelease() (catalog.Tag, error) {
	component := f.cfg.Component
	version := f.cfg.Version

	if component == "" || version == "" {
		var err error
		component, version, err = f.promptRelease()
		if err != nil {
			return catalog.Tag{}, err
		}
	}
	return f.declareRelease(component, version)
}

func (f *releaseFlow) promptRelease() (component, version string, err error) {
	fmt.Println("1. Which component are you going to release?")
	fmt.Println()
	fmt.Println("    [0] Release a new component")
	components := f.catalog.Components()
	for i, c := range components {
		fmt.Printf("    [%d] %s\n", i+1, c)
	}
	fmt.Println()

	choice, err := f.promptLine(fmt.Sprintf("Input the number of the component [0~%d]: ", len(components)))
	if err != nil {
		return "", "", err
	}
	n, err := strconv.Atoi(choice)
	if err != nil {
		return "", "", fmt.Errorf("%q is not an integer", choice)
	}
	if n < 0 || n > len(components) {
		return "", "", fmt.Errorf("the component number must be between 0 and %d", len(components))
	}

	if n == 0 {
		component, err = f.promptLine("Input the name of the new component: ")
		if err != nil {
			return "", "", err
		}
	} else {
		component = components[n-1]
		fmt.Println()
		if err := f.printExistingVersions(component); err != nil {
			return "", "", err
		}
		fmt.Println()
	}

	version, err = f.promptLine("Input the new release version: ")
	if err != nil {
		return "", "", err
	}
	fmt.Println()
	return component, version, nil
}

func (f *releaseFlow) printExistingVersions(component string) error {
	names, err := f.repo.Tags(vcs.SortByVersion)
	if err != nil {
		return err
	}
	prefix := catalog.TagPrefix + component + "/"
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			fmt.Printf("    %s\n", name)
		}
	}
	return nil
}

// declareRelease validates the pair, records the pending tag at the current
// head and re-resolves the component's chain around it.
func (f *releaseFlow) declareRelease(component, version string) (catalog.Tag, error) {
	if !catalog.ValidVersion(version) {
		return catalog.Tag{}, fmt.Errorf("%q is not a valid version format", version)
	}
	if _, ok := f.catalog.Chain(component); !ok {
		dir := filepath.Join(f.cfg.ComponentRoot, component)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return catalog.Tag{}, fmt.Errorf("no %s directory found under %s", component, f.cfg.ComponentRoot)
		}
	}

	latest, err := f.repo.LatestCommitID()
	if err != nil {
		return catalog.Tag{}, err
	}
	first, err := f.repo.FirstCommitID()
	if err != nil {
		return catalog.Tag{}, err
	}
	rootDate, err := f.repo.CommitDate(first)
	if err != nil {
		return catalog.Tag{}, err
	}

	pending := catalog.Tag{
		Name:      catalog.TagName(component, version),
		Component: component,
		Version:   version,
		CommitID:  latest,
		CreatedAt: time.Now(),
	}
	if err := f.catalog.Append(pending, first, rootDate); err != nil {
		return catalog.Tag{}, err
	}

	chain, _ := f.catalog.Chain(component)
	links, err := f.resolver.ResolveChain(chain)
	if err != nil {
		return catalog.Tag{}, err
	}
	f.links[component] = links
	return pending, nil
}

// generateDocuments writes the release-notes document for the selected
// component (or all of them with --all), re-injecting preserved summary
// blocks, and optionally opens the editor on the result.
func (f *releaseFlow) generateDocuments(pending catalog.Tag) error {
	openEditor, err := f.promptYesNo("2. Would you like to add summaries to this release? [Y/N]: ")
	if err != nil {
		return err
	}

	clean, err := f.workspace.IsClean()
	if err != nil {
		return err
	}
	if !clean {
		return errors.New("the worktree has uncommitted or untracked files; commit them first")
	}

	summaries, err := notes.LoadSummaries(f.cfg.ComponentRoot)
	if err != nil {
		return err
	}
	renderer := &notes.Renderer{
		TreeURL:       f.cfg.Github.TreeURL,
		CompareURL:    f.cfg.Github.CompareURL,
		ComponentRoot: f.cfg.ComponentRoot,
	}

	components := []string{pending.Component}
	if f.cfg.All {
		components = f.catalog.Components()
	}

	fmt.Println()
	for _, component := range components {
		doc, err := f.renderComponent(component, pending, summaries, renderer)
		if err != nil {
			return err
		}
		path := notes.DocumentPath(f.cfg.ComponentRoot, component)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			return err
		}
		f.written = append(f.written, path)
		fmt.Printf("    %q file is generated\n", path)
	}
	fmt.Println()

	if openEditor {
		return f.editDocument(notes.DocumentPath(f.cfg.ComponentRoot, pending.Component))
	}
	return nil
}

func (f *releaseFlow) renderComponent(component string, pending catalog.Tag, summaries map[string]string, renderer *notes.Renderer) (string, error) {
	chainLinks := f.links[component]

	releases := make([]notes.Release, 0, len(chainLinks))
	for i := len(chainLinks) - 1; i >= 0; i-- {
		link := chainLinks[i]
		fmt.Printf("    %q release notes generating...\n", link.Tag.Name)

		tickets, err := f.filter.Commits(link)
		if err != nil {
			return "", err
		}
		if link.Tag.Name == pending.Name {
			// The release commit does not exist yet: the documents are
			// committed first and the tag lands on that commit. Lead with a
			// placeholder row standing in for it.
			tickets = append([]scope.Ticket{{Title: "Release " + pending.Name}}, tickets...)
		}

		rows, err := f.assembler.Assemble(tickets)
		if err != nil {
			return "", err
		}

		releases = append(releases, notes.Release{
			TagName:             link.Tag.Name,
			Version:             link.Tag.Version,
			Date:                link.Tag.CreatedAt,
			CommitID:            link.Tag.CommitID,
			PredecessorName:     link.PredecessorTag.Name,
			PredecessorCommitID: link.PredecessorCommitID,
			Summary:             summaries[link.Tag.Name],
			Rows:                rows,
		})
	}
	return renderer.Component(component, releases)
}

func (f *releaseFlow) editDocument(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s exited: %w", editor, err)
	}
	return nil
}

// commitAndPush runs (or prints) the commit/tag and push commands that
// publish the release.
func (f *releaseFlow) commitAndPush(pending catalog.Tag) error {
	branch, err := f.workspace.CurrentBranch()
	if err != nil {
		return err
	}

	fmt.Println("3. The release script is going to run the following commit and tag commands.")
	fmt.Println()
	fmt.Printf("    >> git add %s\n", strings.Join(f.written, " "))
	fmt.Printf("    >> git commit -m \"Release %s\"\n", pending.Name)
	fmt.Printf("    >> git tag %s\n", pending.Name)
	fmt.Println()

	runCommit, err := f.promptYesNo("Do you want the release script to run the commit/tag commands for you? [Y/N]: ")
	if err != nil {
		return err
	}
	fmt.Println()
	if !runCommit {
		fmt.Println("4. Please run the following commands to commit, tag and push yourself.")
		fmt.Println()
		fmt.Printf("    >> git add %s\n", strings.Join(f.written, " "))
		fmt.Printf("    >> git commit -m \"Release %s\"\n", pending.Name)
		fmt.Printf("    >> git tag %s\n", pending.Name)
		fmt.Printf("    >> git push %s %s\n", f.cfg.Remote, branch)
		fmt.Printf("    >> git push %s %s\n", f.cfg.Remote, pending.Name)
		fmt.Println()
		return nil
	}

	if _, err := f.workspace.CommitFiles(f.written, "Release "+pending.Name); err != nil {
		return err
	}
	if err := f.workspace.CreateTag(pending.Name); err != nil {
		return err
	}

	fmt.Println("4. The release script is going to run the following push commands.")
	fmt.Println()
	fmt.Printf("    >> git push %s %s\n", f.cfg.Remote, branch)
	fmt.Printf("    >> git push %s %s\n", f.cfg.Remote, pending.Name)
	fmt.Println()

	runPush, err := f.promptYesNo("Do you want the script to run the push commands for you? [Y/N]: ")
	if err != nil {
		return err
	}
	fmt.Println()
	if !runPush {
		fmt.Println("5. Please run the following commands to push yourself.")
		fmt.Println()
		fmt.Printf("    >> git push %s %s\n", f.cfg.Remote, branch)
		fmt.Printf("    >> git push %s %s\n", f.cfg.Remote, pending.Name)
		fmt.Println()
		return nil
	}
	return f.workspace.Push(f.cfg.Remote, branch, pending.Name)
}

func (f *releaseFlow) promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := f.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (f *releaseFlow) promptYesNo(label string) (bool, error) {
	answer, err := f.promptLine(label)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf(`only "Y", "N", "Yes" and "No" are allowed`)
	}
}
