package tools

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name    string
		command []string
		wantErr bool
		want    string
	}{
		{name: "clean tree", command: []string{"sh", "-c", "test -f marker"}, want: lintSucceeded},
		{name: "lint violation", command: []string{"sh", "-c", "echo 'a.py:1:1: E101'; exit 1"}, wantErr: true, want: lintBanner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := Lint(context.Background(), dir, &out, tt.command...)
			if (err != nil) != tt.wantErr {
				t.Errorf("Lint() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Contains(t, out.String(), tt.want)
			after, err := os.Getwd()
			require.NoError(t, err)
			assert.Equal(t, wd, after)
		})
	}
}

func TestDocsConfigValidate(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     DocsConfig
		wantErr string
	}{
		{name: "source missing", cfg: DocsConfig{GhPagesPath: dir}, wantErr: "SOURCE_PATH must be set"},
		{name: "gh pages missing", cfg: DocsConfig{SourcePath: dir}, wantErr: "GH_PAGES_PATH must be set"},
		{name: "not a directory", cfg: DocsConfig{SourcePath: dir, GhPagesPath: filepath.Join(dir, "missing")}, wantErr: "GH_PAGES_PATH must point to an existing directory"},
		{name: "valid", cfg: DocsConfig{SourcePath: dir, GhPagesPath: dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDocsConfig(t *testing.T) {
	t.Setenv("SOURCE_PATH", "")
	t.Setenv("GH_PAGES_PATH", t.TempDir())
	_, err := LoadDocsConfig()
	require.Error(t, err)
	assert.Equal(t, "SOURCE_PATH must be set", err.Error())
}

func commitCount(t *testing.T, repo *git.Repository) int {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	require.NoError(t, err)
	count := 0
	require.NoError(t, iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	}))
	return count
}

func TestGenerateDocumentation(t *testing.T) {
	source := t.TempDir()
	pages := t.TempDir()
	repo, err := git.PlainInit(pages, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(pages, noJekyllFile), nil, 0o644))
	_, err = worktree.Add(noJekyllFile)
	require.NoError(t, err)
	_, err = worktree.Commit("init", &git.CommitOptions{Author: &object.Signature{Name: "test", Email: "test@localhost", When: time.Now()}})
	require.NoError(t, err)

	cfg := DocsConfig{SourcePath: source, GhPagesPath: pages}
	noop := func(context.Context, string, string) error { return nil }
	committed, err := GenerateDocumentation(context.Background(), cfg, noop)
	require.NoError(t, err)
	assert.False(t, committed)
	assert.Equal(t, 1, commitCount(t, repo))

	writeIndex := func(_ context.Context, _ string, out string) error {
		return os.WriteFile(filepath.Join(out, "index.html"), []byte("<html></html>"), 0o644)
	}
	committed, err = GenerateDocumentation(context.Background(), cfg, writeIndex)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, 2, commitCount(t, repo))

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, DocsCommitMessage, strings.TrimSpace(commit.Message))
}
