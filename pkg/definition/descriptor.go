// Package definition turns raw .ci/pipeline_definitions documents into typed
// pipeline definitions.
package definition

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefinitionsPath = ".ci/pipeline_definitions"
	defaultTemplate = "default"
	// InvalidYAMLName names descriptors of definition files that could not be parsed.
	InvalidYAMLName = "<invalid YAML>"
)

// MainRepo identifies the repository and branch a definition was read from.
type MainRepo struct {
	Path     string `yaml:"path"`
	Branch   string `yaml:"branch"`
	Hostname string `yaml:"hostname"`
}

func (m MainRepo) asMap() map[string]any {
	return map[string]any{"path": m.Path, "branch": m.Branch, "hostname": m.Hostname}
}

// Descriptor is one raw pipeline definition together with where it came from.
type Descriptor struct {
	// Name is the key of the definition inside the definitions file.
	Name string
	// PipelineName is the name the pipeline is deployed under.
	PipelineName  string
	Definition    map[string]any
	MainRepo      MainRepo
	ConfigSetName string
	TargetTeam    string
	Overrides     []map[string]any
	// Err is set when the definitions file could not be loaded.
	Err error
	// Pipeline holds the rendered pipeline once rendering succeeded.
	Pipeline []byte
}

func (d *Descriptor) TemplateName() string {
	if t, ok := d.Definition["template"].(string); ok && t != "" {
		return t
	}
	return defaultTemplate
}

// TargetKey groups descriptors deployed to the same CI team.
func (d *Descriptor) TargetKey() string {
	return fmt.Sprintf("%s:%s", d.ConfigSetName, d.TargetTeam)
}

// ParseDefinitions decodes a definitions file: a mapping of definition name to definition.
func ParseDefinitions(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse pipeline definitions: %w", err)
	}
	return raw, nil
}

// Descriptors wraps every definition of a parsed definitions file, with the override
// of the same name (from a branch cfg) merged in. Definitions are returned in name order.
func Descriptors(raw map[string]any, main MainRepo, configSetName, team string, overrides map[string]any) ([]*Descriptor, error) {
	var descriptors []*Descriptor
	for _, name := range sortedKeys(raw) {
		definition, ok := raw[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("definition %s is not a mapping", name)
		}
		definition = deepCopyMap(definition)
		if override, ok := overrides[name].(map[string]any); ok {
			merged, err := Merge(definition, override)
			if err != nil {
				return nil, fmt.Errorf("definition %s: %w", name, err)
			}
			definition = merged
		}
		descriptors = append(descriptors, &Descriptor{
			Name:          name,
			PipelineName:  name,
			Definition:    definition,
			MainRepo:      main,
			ConfigSetName: configSetName,
			TargetTeam:    team,
		})
	}
	return descriptors, nil
}

// InvalidDescriptor carries a load error for the given repository.
func InvalidDescriptor(main MainRepo, configSetName, team string, err error) *Descriptor {
	return &Descriptor{
		Name:          InvalidYAMLName,
		PipelineName:  InvalidYAMLName,
		Definition:    map[string]any{},
		MainRepo:      main,
		ConfigSetName: configSetName,
		TargetTeam:    team,
		Err:           err,
	}
}

// Preprocess appends the branch to the pipeline name and injects the main repository
// into the base definition. The descriptor is modified in place and returned.
func Preprocess(d *Descriptor) *Descriptor {
	d.PipelineName = PipelineName(d.PipelineName, d.MainRepo.Branch)
	d.Overrides = append(d.Overrides, map[string]any{
		"base_definition": map[string]any{
			"repo": d.MainRepo.asMap(),
		},
	})
	return d
}

var pipelineNameReplacer = strings.NewReplacer("/", "-", "\\", "-")

// PipelineName joins definition and branch. Path separators are not allowed in
// pipeline names and are replaced by dashes.
func PipelineName(definition, branch string) string {
	return pipelineNameReplacer.Replace(definition + "-" + branch)
}
