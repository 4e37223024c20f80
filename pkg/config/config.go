package config

import (
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ComponentRoot string  `yaml:"component_root"`
	Remote        string  `yaml:"remote"`
	Tracker       Tracker `yaml:"tracker"`
	Github        Github  `yaml:"github"`
	Retry         Retry   `yaml:"retry"`

	All        bool   `yaml:"-"`
	DryRun     bool   `yaml:"-"`
	Output     string `yaml:"-"`
	Component  string `yaml:"-"`
	Version    string `yaml:"-"`
	RepoPath   string `yaml:"-"`
	GithubRepo string `yaml:"-"`
	Token      string `yaml:"-"`
}

// Tracker holds the issue-tracker endpoint and credentials. Credentials come
// from flags or the environment, never from the config file.
type Tracker struct {
	BaseURL string `yaml:"base_url"`
	Account string `yaml:"account"`
	Token   string `yaml:"-"`
}

// Github holds the web URL bases rendered into documents.
type Github struct {
	CommitURL  string `yaml:"commit_url"`
	PullURL    string `yaml:"pull_url"`
	CompareURL string `yaml:"compare_url"`
	TreeURL    string `yaml:"tree_url"`
}

// ApplyRepoDefaults fills any unset URL base from the repository's
// github.com web address.
func (g *Github) ApplyRepoDefaults(ownerRepo, componentRoot string) {
	base := "https://github.com/" + ownerRepo
	if g.CommitURL == "" {
		g.CommitURL = base + "/commit/"
	}
	if g.PullURL == "" {
		g.PullURL = base + "/pull/"
	}
	if g.CompareURL == "" {
		g.CompareURL = base + "/compare/"
	}
	if g.TreeURL == "" {
		g.TreeURL = base + "/tree/master/" + componentRoot + "/"
	}
}

type Retry struct {
	Attempts       int `yaml:"attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

func (r Retry) Backoff() time.Duration {
	return time.Duration(r.BackoffSeconds) * time.Second
}

func Default() *Config {
	return &Config{
		ComponentRoot: "components",
		Remote:        "upstream",
		Retry: Retry{
			Attempts:       3,
			BackoffSeconds: 2,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MergeFlags(cfg *Config, flags *pflag.FlagSet) *Config {
	if v, err := flags.GetBool("all"); err == nil {
		cfg.All = v
	}
	if v, err := flags.GetBool("dry-run"); err == nil {
		cfg.DryRun = v
	}
	if v, err := flags.GetString("output"); err == nil && v != "" {
		cfg.Output = v
	}
	if v, err := flags.GetString("component"); err == nil && v != "" {
		cfg.Component = v
	}
	if v, err := flags.GetString("version"); err == nil && v != "" {
		cfg.Version = v
	}
	if v, err := flags.GetString("path"); err == nil && v != "" {
		cfg.RepoPath = v
	}
	if v, err := flags.GetString("repo"); err == nil && v != "" {
		cfg.GithubRepo = v
	}
	if v, err := flags.GetString("github-token"); err == nil && v != "" {
		cfg.Token = v
	}
	if v, err := flags.GetString("tracker-url"); err == nil && v != "" {
		cfg.Tracker.BaseURL = v
	}
	if v, err := flags.GetString("tracker-account"); err == nil && v != "" {
		cfg.Tracker.Account = v
	}
	if v, err := flags.GetString("tracker-token"); err == nil && v != "" {
		cfg.Tracker.Token = v
	}
	if v, err := flags.GetString("remote"); err == nil && v != "" {
		cfg.Remote = v
	}
	return cfg
}
