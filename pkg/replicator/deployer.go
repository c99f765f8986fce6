package replicator

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/definition"
)

var ErrInvalidPipelineName = errors.New("invalid pipeline name")

type Deployer interface {
	Deploy(descriptor *definition.Descriptor) DeployResult
}

// FilesystemDeployer writes every rendered pipeline to <base dir>/<pipeline name>.
type FilesystemDeployer struct {
	baseDir string
}

func NewFilesystemDeployer(baseDir string) (*FilesystemDeployer, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", baseDir, err)
	}
	return &FilesystemDeployer{baseDir: baseDir}, nil
}

// Deploy leaves files with identical content untouched and reports them as skipped.
func (d *FilesystemDeployer) Deploy(descriptor *definition.Descriptor) DeployResult {
	name := descriptor.PipelineName
	if !filepath.IsLocal(name) || filepath.Base(name) != name {
		return d.failed(descriptor, fmt.Errorf("%w: %q", ErrInvalidPipelineName, name))
	}
	path := filepath.Join(d.baseDir, name)
	status := DeploySucceeded
	current, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		status |= DeployCreated
	case err != nil:
		return d.failed(descriptor, err)
	case bytes.Equal(current, descriptor.Pipeline):
		logger.WithField("func", "Deploy").Debugf("pipeline %s is unchanged", descriptor.PipelineName)
		return DeployResult{Descriptor: descriptor, Status: status | DeploySkipped}
	}
	if err := os.WriteFile(path, descriptor.Pipeline, 0o644); err != nil {
		return d.failed(descriptor, err)
	}
	logger.WithField("func", "Deploy").Infof("deployed pipeline %s to %s", descriptor.PipelineName, path)
	return DeployResult{Descriptor: descriptor, Status: status}
}

func (d *FilesystemDeployer) failed(descriptor *definition.Descriptor, err error) DeployResult {
	logger.WithField("func", "Deploy").WithError(err).Warnf("could not deploy pipeline %s", descriptor.PipelineName)
	return DeployResult{Descriptor: descriptor, Status: DeployFailed, Err: err}
}
