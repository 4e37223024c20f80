package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ComponentRoot != "components" {
		t.Errorf("ComponentRoot = %q", cfg.ComponentRoot)
	}
	if cfg.Remote != "upstream" {
		t.Errorf("Remote = %q", cfg.Remote)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Backoff() != 2*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".relnotes.yml")
	data := `component_root: modules
remote: origin
tracker:
  base_url: https://acme.atlassian.net
  account: release-bot@acme.com
github:
  compare_url: https://github.com/acme/monorepo/compare/
retry:
  attempts: 5
  backoff_seconds: 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ComponentRoot != "modules" {
		t.Errorf("ComponentRoot = %q", cfg.ComponentRoot)
	}
	if cfg.Remote != "origin" {
		t.Errorf("Remote = %q", cfg.Remote)
	}
	if cfg.Tracker.BaseURL != "https://acme.atlassian.net" {
		t.Errorf("Tracker.BaseURL = %q", cfg.Tracker.BaseURL)
	}
	if cfg.Retry.Attempts != 5 || cfg.Retry.Backoff() != time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
}

func TestMergeFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("all", false, "")
	flags.Bool("dry-run", false, "")
	flags.String("output", "", "")
	flags.String("component", "", "")
	flags.String("version", "", "")
	flags.String("tracker-token", "", "")
	if err := flags.Parse([]string{"--all", "--component=app", "--version=1.2.0", "--tracker-token=secret"}); err != nil {
		t.Fatal(err)
	}

	cfg := MergeFlags(Default(), flags)
	if !cfg.All {
		t.Error("All not merged")
	}
	if cfg.Component != "app" || cfg.Version != "1.2.0" {
		t.Errorf("Component/Version = %q/%q", cfg.Component, cfg.Version)
	}
	if cfg.Tracker.Token != "secret" {
		t.Errorf("Tracker.Token = %q", cfg.Tracker.Token)
	}
	if cfg.Remote != "upstream" {
		t.Errorf("Remote = %q, want default kept", cfg.Remote)
	}
}

func TestApplyRepoDefaults(t *testing.T) {
	g := Github{CompareURL: "https://example/compare/"}
	g.ApplyRepoDefaults("acme/monorepo", "components")

	if g.CompareURL != "https://example/compare/" {
		t.Error("explicit URL overwritten")
	}
	if g.CommitURL != "https://github.com/acme/monorepo/commit/" {
		t.Errorf("CommitURL = %q", g.CommitURL)
	}
	if g.TreeURL != "https://github.com/acme/monorepo/tree/master/components/" {
		t.Errorf("TreeURL = %q", g.TreeURL)
	}
}
