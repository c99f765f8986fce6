package model

import (
	"errors"
	"fmt"
)

var ErrDependencyCycle = errors.New("step dependencies contain a cycle")

const defaultBuildLogsToRetain = 1000

// Variant is one job flavor of a pipeline definition (e.g. head-update, pull-request).
type Variant struct {
	Name         string
	Traits       Traits
	Steps        []*Step
	Repositories []*Repository
}

func (v *Variant) HasTrait(kind TraitKind) bool {
	return v.Traits.Has(kind)
}

func (v *Variant) MainRepository() *Repository {
	for _, r := range v.Repositories {
		if r.Main {
			return r
		}
	}
	return nil
}

func (v *Variant) Repository(logicalName string) *Repository {
	for _, r := range v.Repositories {
		if r.LogicalName == logicalName {
			return r
		}
	}
	return nil
}

func (v *Variant) Step(name string) *Step {
	for _, s := range v.Steps {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// PublishTargets returns the repositories any step of the variant publishes to,
// in repository declaration order.
func (v *Variant) PublishTargets() []*Repository {
	targets := make(map[string]bool)
	for _, s := range v.Steps {
		for _, p := range s.PublishTo {
			targets[p.Repository] = true
		}
	}
	var repos []*Repository
	for _, r := range v.Repositories {
		if targets[r.LogicalName] {
			repos = append(repos, r)
		}
	}
	return repos
}

// SuppressParallelExecution is the explicit scheduling override if present, else true
// for cronjob and release variants.
func (v *Variant) SuppressParallelExecution() bool {
	if v.Traits.Scheduling != nil && v.Traits.Scheduling.SuppressParallelExecution != nil {
		return *v.Traits.Scheduling.SuppressParallelExecution
	}
	return v.HasTrait(TraitCronjob) || v.HasTrait(TraitRelease)
}

func (v *Variant) BuildLogsToRetain() int {
	if v.Traits.Options == nil || v.Traits.Options.BuildLogsToRetain == 0 {
		return defaultBuildLogsToRetain
	}
	return v.Traits.Options.BuildLogsToRetain
}

func (v *Variant) PublicBuildLogs() bool {
	return v.Traits.Options != nil && v.Traits.Options.PublicBuildLogs
}

// OrderedSteps partitions the steps into sequential stages. All steps of a stage only
// depend on steps of earlier stages. Within a stage the declaration order is kept.
func (v *Variant) OrderedSteps() ([][]*Step, error) {
	remaining := make(map[string]*Step, len(v.Steps))
	for _, s := range v.Steps {
		remaining[s.Name] = s
	}
	for _, s := range v.Steps {
		for _, d := range s.DependsOn {
			if v.Step(d) == nil {
				return nil, fmt.Errorf("step %s of variant %s depends on unknown step %s", s.Name, v.Name, d)
			}
		}
	}
	done := make(map[string]bool, len(v.Steps))
	var stages [][]*Step
	for len(remaining) > 0 {
		var stage []*Step
		for _, s := range v.Steps {
			if _, ok := remaining[s.Name]; !ok {
				continue
			}
			ready := true
			for _, d := range s.DependsOn {
				if !done[d] {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, s)
			}
		}
		if len(stage) == 0 {
			return nil, fmt.Errorf("variant %s: %w", v.Name, ErrDependencyCycle)
		}
		for _, s := range stage {
			delete(remaining, s.Name)
			done[s.Name] = true
		}
		stages = append(stages, stage)
	}
	return stages, nil
}
