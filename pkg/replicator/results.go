package replicator

import (
	"strings"

	"concourse/pipeline-renderer/pkg/definition"
)

type RenderStatus string

const (
	RenderSucceeded RenderStatus = "SUCCEEDED"
	RenderFailed    RenderStatus = "FAILED"
)

type RenderResult struct {
	Descriptor *definition.Descriptor
	Status     RenderStatus
	Err        error
}

// DeployStatus is a set of flags. A deployment counts as successful if the
// DeploySucceeded flag is set.
type DeployStatus int

const (
	DeploySucceeded DeployStatus = 1 << iota
	DeployFailed
	DeploySkipped
	DeployCreated
)

func (s DeployStatus) Has(flag DeployStatus) bool {
	return s&flag != 0
}

func (s DeployStatus) String() string {
	var names []string
	for _, f := range []struct {
		flag DeployStatus
		name string
	}{
		{DeploySucceeded, "SUCCEEDED"},
		{DeployFailed, "FAILED"},
		{DeploySkipped, "SKIPPED"},
		{DeployCreated, "CREATED"},
	} {
		if s.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}

type DeployResult struct {
	Descriptor *definition.Descriptor
	Status     DeployStatus
	Err        error
}

func (r DeployResult) Succeeded() bool {
	return r.Status.Has(DeploySucceeded)
}
