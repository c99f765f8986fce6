// Package enumerator finds the pipeline definitions to render, either in a single
// file or in the branches of a GitHub repository.
package enumerator

import (
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/definition"
	"concourse/pipeline-renderer/pkg/repoaccess"
)

type Enumerator interface {
	Enumerate() ([]*definition.Descriptor, error)
}

// Target is the CI target every enumerated descriptor is deployed to.
type Target struct {
	ConfigSetName string
	Team          string
}

// FileEnumerator reads the definitions of one repository branch from a local file.
type FileEnumerator struct {
	Path     string
	MainRepo definition.MainRepo
	Target   Target
}

func NewFileEnumerator(path string, main definition.MainRepo, target Target) *FileEnumerator {
	if main.Hostname == "" {
		main.Hostname = "github.com"
	}
	return &FileEnumerator{Path: path, MainRepo: main, Target: target}
}

// Enumerate never fails: an unreadable or invalid file yields a single descriptor
// carrying the error.
func (e *FileEnumerator) Enumerate() ([]*definition.Descriptor, error) {
	logger.WithField("func", "Enumerate").Infof("enumerating explicitly specified definition file %s", e.Path)
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return []*definition.Descriptor{e.invalid(err)}, nil
	}
	return wrap(data, e.MainRepo, e.Target, nil, e.invalid), nil
}

func (e *FileEnumerator) invalid(err error) *definition.Descriptor {
	return definition.InvalidDescriptor(e.MainRepo, e.Target.ConfigSetName, e.Target.Team, err)
}

func wrap(data []byte, main definition.MainRepo, target Target, overrides map[string]any, invalid func(error) *definition.Descriptor) []*definition.Descriptor {
	raw, err := definition.ParseDefinitions(data)
	if err != nil {
		return []*definition.Descriptor{invalid(err)}
	}
	descriptors, err := definition.Descriptors(raw, main, target.ConfigSetName, target.Team, overrides)
	if err != nil {
		return []*definition.Descriptor{invalid(err)}
	}
	return descriptors
}

// RepositoryReader is the read access to a GitHub repository the enumerator needs.
type RepositoryReader interface {
	Path() string
	RefExists(ref string) (bool, error)
	GetFile(ref, path string) (*repoaccess.RepositoryFile, error)
	ListBranches() ([]string, error)
	DefaultBranch() string
}

// GithubRepositoryEnumerator scans the branches of a repository for definition files.
// Branches are selected by the branch cfg on refs/meta/ci; without one only the
// default branch is scanned.
type GithubRepositoryEnumerator struct {
	reader   RepositoryReader
	hostname string
	target   Target
}

func NewGithubRepositoryEnumerator(reader RepositoryReader, hostname string, target Target) *GithubRepositoryEnumerator {
	return &GithubRepositoryEnumerator{reader: reader, hostname: hostname, target: target}
}

type branchSelection struct {
	name  string
	entry *definition.BranchCfgEntry
}

func (e *GithubRepositoryEnumerator) branchCfg() (*definition.BranchCfg, error) {
	exists, err := e.reader.RefExists(definition.BranchCfgRef)
	if err != nil || !exists {
		return nil, err
	}
	file, err := e.reader.GetFile(definition.BranchCfgRef, definition.BranchCfgPath)
	if err != nil || file == nil {
		return nil, err
	}
	return definition.ParseBranchCfg([]byte(file.Content))
}

func (e *GithubRepositoryEnumerator) branches() ([]branchSelection, error) {
	cfg, err := e.branchCfg()
	if err != nil {
		return nil, fmt.Errorf("could not read branch cfg of %s: %w", e.reader.Path(), err)
	}
	if cfg == nil {
		return []branchSelection{{name: e.reader.DefaultBranch()}}, nil
	}
	names, err := e.reader.ListBranches()
	if err != nil {
		return nil, fmt.Errorf("could not list branches of %s: %w", e.reader.Path(), err)
	}
	var selected []branchSelection
	for _, name := range names {
		entry, err := cfg.EntryForBranch(name)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			selected = append(selected, branchSelection{name: name, entry: entry})
		}
	}
	return selected, nil
}

func (e *GithubRepositoryEnumerator) Enumerate() ([]*definition.Descriptor, error) {
	branches, err := e.branches()
	if err != nil {
		return nil, err
	}
	var descriptors []*definition.Descriptor
	for _, branch := range branches {
		file, err := e.reader.GetFile(branch.name, definition.DefinitionsPath)
		if err != nil {
			return nil, fmt.Errorf("could not read definitions of %s:%s: %w", e.reader.Path(), branch.name, err)
		}
		if file == nil {
			logger.WithField("func", "Enumerate").Debugf("no pipeline definitions in %s:%s", e.reader.Path(), branch.name)
			continue
		}
		logger.WithField("func", "Enumerate").Infof("from repo: %s:%s", e.reader.Path(), branch.name)

		main := definition.MainRepo{Path: e.reader.Path(), Branch: branch.name, Hostname: e.hostname}
		var overrides map[string]any
		if branch.entry != nil {
			overrides = branch.entry.Inherit
		}
		invalid := func(err error) *definition.Descriptor {
			return definition.InvalidDescriptor(main, e.target.ConfigSetName, e.target.Team, err)
		}
		descriptors = append(descriptors, wrap([]byte(file.Content), main, e.target, overrides, invalid)...)
	}
	return descriptors, nil
}
