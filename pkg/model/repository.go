package model

import (
	"strings"
)

const (
	MainRepositoryName   = "source"
	DefaultGithubHost    = "github.com"
	outputResourceSuffix = "-output"
)

// Repository is a logical source-control reference of a variant.
type Repository struct {
	LogicalName   string   `yaml:"name"`
	Path          string   `yaml:"path"`
	Branch        string   `yaml:"branch"`
	Hostname      string   `yaml:"hostname"`
	CfgName       string   `yaml:"cfg_name"`
	Trigger       *bool    `yaml:"trigger"`
	DisableCISkip bool     `yaml:"disable_ci_skip"`
	Recipients    []string `yaml:"notify"`
	Main          bool     `yaml:"-"`
	PullRequest   bool     `yaml:"-"`
}

// ResourceName is the name of the CI resource representing the repository.
func (r *Repository) ResourceName() string {
	name := strings.ToLower(strings.ReplaceAll(r.Path, "/", "_") + "-" + r.Branch)
	if r.PullRequest {
		return "pr-" + name
	}
	return name
}

// OutputResourceName is the writable copy of the checkout used when a step publishes.
func (r *Repository) OutputResourceName() string {
	return r.ResourceName() + outputResourceSuffix
}

// ShouldTrigger defaults to true for the main repository and false otherwise.
func (r *Repository) ShouldTrigger() bool {
	if r.Trigger != nil {
		return *r.Trigger
	}
	return r.Main
}

func (r *Repository) Host() string {
	if r.Hostname == "" {
		return DefaultGithubHost
	}
	return r.Hostname
}

func (r *Repository) Owner() string {
	owner, _, _ := strings.Cut(r.Path, "/")
	return owner
}

func (r *Repository) Name() string {
	_, name, _ := strings.Cut(r.Path, "/")
	return name
}

// EnvVarPrefix derives the environment variable prefix from the logical name.
func (r *Repository) EnvVarPrefix() string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(r.LogicalName))
}

// EnvVars returns the bindings exported to steps, with path being the checkout
// location the step should use.
func (r *Repository) EnvVars(path string) [][2]string {
	prefix := r.EnvVarPrefix()
	return [][2]string{
		{prefix + "_PATH", path},
		{prefix + "_BRANCH", r.Branch},
		{prefix + "_GITHUB_REPO_OWNER_AND_NAME", r.Path},
	}
}
