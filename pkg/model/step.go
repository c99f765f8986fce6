package model

import "path"

type ScriptType string

const (
	ScriptTypeShell   ScriptType = "sh"
	ScriptTypePython3 ScriptType = "python3"
)

// Mapping is an ordered name to path (or expression) pair.
type Mapping struct {
	Name  string
	Value string
}

type PublishTarget struct {
	Repository string
	ForcePush  bool
}

// Step is one executable unit of a variant.
type Step struct {
	Name       string
	ScriptType ScriptType
	Image      string
	Registry   string
	Timeout    string
	Retries    int
	Inputs     []Mapping
	Outputs    []Mapping
	Variables  []Mapping
	PublishTo  []PublishTarget
	DependsOn  []string
	Execute    []string
	Synthetic  bool
}

// Argv defaults to the step name.
func (s *Step) Argv() []string {
	if len(s.Execute) == 0 {
		return []string{s.Name}
	}
	return s.Execute
}

// Executable joins the prefix parts with the first argv element.
func (s *Step) Executable(prefix ...string) string {
	return path.Join(append(prefix, s.Argv()[0])...)
}

func (s *Step) PublishesTo(logicalName string) (PublishTarget, bool) {
	for _, p := range s.PublishTo {
		if p.Repository == logicalName {
			return p, true
		}
	}
	return PublishTarget{}, false
}

func (s *Step) DependsOnStep(name string) bool {
	for _, d := range s.DependsOn {
		if d == name {
			return true
		}
	}
	return false
}

func (s *Step) AddDependency(name string) {
	if name == s.Name || s.DependsOnStep(name) {
		return
	}
	s.DependsOn = append(s.DependsOn, name)
}

func (s *Step) HasInput(name string) bool {
	for _, i := range s.Inputs {
		if i.Name == name {
			return true
		}
	}
	return false
}
