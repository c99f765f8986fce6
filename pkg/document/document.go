// Package document holds the intermediate tree a pipeline is built into before it
// is serialized. Builders decide what to emit, Marshal decides how it looks.
package document

// Field is one ordered key/value pair of a mapping. Values may be strings, bools,
// ints, []string, Fields, []Fields, Alias, or nil (omitted).
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered mapping.
type Fields []Field

// Alias refers to a named anchor of the inherit block. Used as the value of a
// Merge field it renders as `<<: *name`.
type Alias string

// MergeKey is the YAML merge key.
const MergeKey = "<<"

func (f Fields) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// Anchor is a named block of the inherit section other nodes merge from.
type Anchor struct {
	Name   string
	Fields Fields
}

type ResourceType struct {
	Name   string
	Type   string
	Source Fields
}

type Resource struct {
	Name   string
	Type   string
	Source Fields
}

// Document is the complete pipeline.
type Document struct {
	Inherit       []Anchor
	ResourceTypes []ResourceType
	Resources     []Resource
	Jobs          []Job
}

type Job struct {
	Name              string
	Serial            bool
	BuildLogsToRetain int
	Public            bool
	Plan              []PlanStep
}

// PlanStep is one entry of a job plan.
type PlanStep interface {
	planStep()
}

// Hooks are the step hooks supported by the CI engine.
type Hooks struct {
	OnSuccess PlanStep
	OnFailure PlanStep
	Ensure    PlanStep
}

type Get struct {
	Name    string
	Trigger bool
	Params  Fields
}

type Put struct {
	Name   string
	Params Fields
}

type Task struct {
	Name     string
	Timeout  string
	Attempts int
	Image    Fields
	Inputs   []string
	Outputs  []string
	Params   Fields
	RunPath  string
	RunArgs  []string
	Hooks
}

type InParallel struct {
	Steps []PlanStep
}

type Do struct {
	Steps []PlanStep
	Hooks
}

func (Get) planStep()        {}
func (Put) planStep()        {}
func (Task) planStep()       {}
func (InParallel) planStep() {}
func (Do) planStep()         {}
