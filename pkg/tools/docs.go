package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"
)

const (
	DocsCommitMessage = "update documentation"
	noJekyllFile      = ".nojekyll"
)

// DocsConfig is read from SOURCE_PATH and GH_PAGES_PATH.
type DocsConfig struct {
	SourcePath  string `envconfig:"SOURCE_PATH"`
	GhPagesPath string `envconfig:"GH_PAGES_PATH"`
}

func LoadDocsConfig() (DocsConfig, error) {
	var cfg DocsConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c DocsConfig) Validate() error {
	for _, v := range []struct {
		name  string
		value string
	}{
		{"SOURCE_PATH", c.SourcePath},
		{"GH_PAGES_PATH", c.GhPagesPath},
	} {
		if v.value == "" {
			return fmt.Errorf("%s must be set", v.name)
		}
		if info, err := os.Stat(v.value); err != nil || !info.IsDir() {
			return fmt.Errorf("%s must point to an existing directory: %s", v.name, v.value)
		}
	}
	return nil
}

// DocsBuilder renders the documentation sources into the output directory.
type DocsBuilder func(ctx context.Context, sourcePath, outputPath string) error

// SphinxBuilder builds <source>/doc with sphinx-build.
func SphinxBuilder(ctx context.Context, sourcePath, outputPath string) error {
	cmd := exec.CommandContext(ctx, "sphinx-build", "-E", "-b", "html", filepath.Join(sourcePath, "doc"), outputPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// GenerateDocumentation builds the documentation into the gh-pages worktree and
// commits it if anything changed. It reports whether a commit was created.
func GenerateDocumentation(ctx context.Context, cfg DocsConfig, build DocsBuilder) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	log := logger.WithField("func", "GenerateDocumentation")
	if err := build(ctx, cfg.SourcePath, cfg.GhPagesPath); err != nil {
		return false, fmt.Errorf("documentation build failed: %w", err)
	}
	// disables the default jekyll processing of github pages
	if err := os.WriteFile(filepath.Join(cfg.GhPagesPath, noJekyllFile), nil, 0o644); err != nil {
		return false, err
	}

	repo, err := git.PlainOpen(cfg.GhPagesPath)
	if err != nil {
		return false, fmt.Errorf("could not open %s: %w", cfg.GhPagesPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := worktree.Status()
	if err != nil {
		return false, err
	}
	if status.IsClean() {
		log.Info("no changes in documentation")
		return false, nil
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, err
	}
	hash, err := worktree.Commit(DocsCommitMessage, &git.CommitOptions{
		Author: &object.Signature{Name: "ci-bot", Email: "ci-bot@localhost", When: time.Now()},
	})
	if err != nil {
		return false, err
	}
	log.Infof("committed documentation as %s", hash)
	return true, nil
}
