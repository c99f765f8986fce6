package enumerator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concourse/pipeline-renderer/pkg/definition"
	"concourse/pipeline-renderer/pkg/repoaccess"
)

const testDefinitions = `
repo:
  template: default
  jobs:
    head-update: ~
other:
  jobs:
    head-update: ~
`

const testBranchCfg = `
cfgs:
  releases:
    branches: ['rel-.*']
    inherit:
      repo:
        template: release
`

type fakeReader struct {
	files         map[string]string
	branches      []string
	defaultBranch string
	listErr       error
	refErr        error
}

func (f *fakeReader) Path() string { return "org/repo" }

func (f *fakeReader) RefExists(ref string) (bool, error) {
	if f.refErr != nil {
		return false, f.refErr
	}
	for key := range f.files {
		if strings.HasPrefix(key, ref+":") {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReader) GetFile(ref, path string) (*repoaccess.RepositoryFile, error) {
	content, ok := f.files[ref+":"+path]
	if !ok {
		return nil, nil
	}
	return &repoaccess.RepositoryFile{Content: content, Path: path}, nil
}

func (f *fakeReader) ListBranches() ([]string, error) {
	return f.branches, f.listErr
}

func (f *fakeReader) DefaultBranch() string { return f.defaultBranch }

var testTarget = Target{ConfigSetName: "default", Team: "main"}

func names(descriptors []*definition.Descriptor) []string {
	var result []string
	for _, d := range descriptors {
		result = append(result, d.Name+"@"+d.MainRepo.Branch)
	}
	return result
}

func TestFileEnumerator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline_definitions")
	require.NoError(t, os.WriteFile(path, []byte(testDefinitions), 0o644))

	e := NewFileEnumerator(path, definition.MainRepo{Path: "org/repo", Branch: "master"}, testTarget)
	descriptors, err := e.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"other@master", "repo@master"}, names(descriptors))
	assert.Equal(t, "github.com", descriptors[0].MainRepo.Hostname)
	assert.Equal(t, "default:main", descriptors[0].TargetKey())
}

func TestFileEnumeratorInvalid(t *testing.T) {
	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid")
	require.NoError(t, os.WriteFile(invalid, []byte("repo: [unclosed"), 0o644))

	for _, path := range []string{invalid, filepath.Join(dir, "missing")} {
		descriptors, err := NewFileEnumerator(path, definition.MainRepo{Path: "org/repo", Branch: "master"}, testTarget).Enumerate()
		require.NoError(t, err)
		require.Len(t, descriptors, 1)
		assert.Equal(t, definition.InvalidYAMLName, descriptors[0].Name)
		assert.Error(t, descriptors[0].Err)
	}
}

func TestGithubEnumeratorDefaultBranch(t *testing.T) {
	reader := &fakeReader{
		defaultBranch: "main",
		files:         map[string]string{"main:" + definition.DefinitionsPath: testDefinitions},
		listErr:       errors.New("must not list branches without branch cfg"),
	}
	descriptors, err := NewGithubRepositoryEnumerator(reader, "github.example.com", testTarget).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"other@main", "repo@main"}, names(descriptors))
	assert.Equal(t, definition.MainRepo{Path: "org/repo", Branch: "main", Hostname: "github.example.com"}, descriptors[0].MainRepo)
}

func TestGithubEnumeratorBranchCfg(t *testing.T) {
	reader := &fakeReader{
		branches: []string{"main", "rel-1.0", "rel-2.0"},
		files: map[string]string{
			definition.BranchCfgRef + ":" + definition.BranchCfgPath: testBranchCfg,
			"main:" + definition.DefinitionsPath:                      testDefinitions,
			"rel-1.0:" + definition.DefinitionsPath:                   testDefinitions,
			"rel-2.0:" + definition.DefinitionsPath:                   "repo: [unclosed",
		},
	}
	descriptors, err := NewGithubRepositoryEnumerator(reader, "github.com", testTarget).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"other@rel-1.0", "repo@rel-1.0", definition.InvalidYAMLName + "@rel-2.0"}, names(descriptors))

	assert.Equal(t, "default", descriptors[0].TemplateName())
	assert.Equal(t, "release", descriptors[1].TemplateName())
	assert.Error(t, descriptors[2].Err)
}

func TestGithubEnumeratorSkipsBranchesWithoutDefinitions(t *testing.T) {
	reader := &fakeReader{defaultBranch: "main"}
	descriptors, err := NewGithubRepositoryEnumerator(reader, "github.com", testTarget).Enumerate()
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestGithubRepositoryEnumeratorRefError(t *testing.T) {
	reader := &fakeReader{
		defaultBranch: "main",
		files:         map[string]string{"main:" + definition.DefinitionsPath: testDefinitions},
		refErr:        errors.New("rate limited"),
	}
	_, err := NewGithubRepositoryEnumerator(reader, "github.com", testTarget).Enumerate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read branch cfg of org/repo")
}
