package definition

import (
	"errors"
	"fmt"

	"github.com/kballard/go-shellquote"
	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/model"
)

var ErrJobsAndVariants = errors.New("both 'jobs' and 'variants' are defined")

type rawStep struct {
	ScriptType string            `yaml:"script_type"`
	Image      string            `yaml:"image"`
	Registry   string            `yaml:"registry"`
	Timeout    string            `yaml:"timeout"`
	Retries    int               `yaml:"retries"`
	Execute    any               `yaml:"execute"`
	Depends    []string          `yaml:"depends"`
	Inputs     map[string]string `yaml:"inputs"`
	Outputs    map[string]string `yaml:"outputs"`
	Vars       map[string]string `yaml:"vars"`
	PublishTo  any               `yaml:"publish_to"`
}

type rawVariant struct {
	Repo   *model.Repository   `yaml:"repo"`
	Repos  []*model.Repository `yaml:"repos"`
	Traits map[string]any      `yaml:"traits"`
	Steps  map[string]*rawStep `yaml:"steps"`
}

func asMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
	return m, nil
}

// EffectiveDefinition applies the override definitions of the descriptor in order.
func EffectiveDefinition(d *Descriptor) (map[string]any, error) {
	effective := d.Definition
	for _, override := range d.Overrides {
		var err error
		if effective, err = Merge(effective, override); err != nil {
			return nil, err
		}
	}
	return effective, nil
}

// Create builds the typed pipeline definition: overrides are applied, the base
// definition is merged into every variant and the traits add their steps.
// Variants are ordered by name.
func Create(d *Descriptor) (*model.PipelineDefinition, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	effective, err := EffectiveDefinition(d)
	if err != nil {
		return nil, err
	}
	jobs, err := asMap(effective["jobs"])
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}
	variants, err := asMap(effective["variants"])
	if err != nil {
		return nil, fmt.Errorf("variants: %w", err)
	}
	if len(jobs) > 0 && len(variants) > 0 {
		return nil, fmt.Errorf("pipeline %s: %w", d.PipelineName, ErrJobsAndVariants)
	}
	if len(jobs) > 0 {
		variants = jobs
	}
	base, err := asMap(effective["base_definition"])
	if err != nil {
		return nil, fmt.Errorf("base_definition: %w", err)
	}

	definition := &model.PipelineDefinition{Name: d.Name, Template: d.TemplateName()}
	for _, name := range sortedKeys(variants) {
		raw, err := asMap(variants[name])
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", name, err)
		}
		merged, err := Merge(base, raw)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", name, err)
		}
		variant, err := buildVariant(name, merged)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", name, err)
		}
		definition.Variants = append(definition.Variants, variant)
	}
	logger.WithField("func", "Create").Debugf("created definition %s with %d variants", d.PipelineName, len(definition.Variants))
	return definition, nil
}

func buildVariant(name string, merged map[string]any) (*model.Variant, error) {
	var raw rawVariant
	if err := recode(merged, &raw); err != nil {
		return nil, err
	}
	traits, err := decodeTraits(raw.Traits)
	if err != nil {
		return nil, err
	}
	variant := &model.Variant{Name: name, Traits: traits}

	if raw.Repo != nil {
		main := raw.Repo
		if main.LogicalName == "" {
			main.LogicalName = model.MainRepositoryName
		}
		main.Main = true
		main.PullRequest = traits.PullRequest != nil
		variant.Repositories = append(variant.Repositories, main)
	}
	for _, repo := range raw.Repos {
		if repo.LogicalName == "" {
			return nil, fmt.Errorf("repository %s has no name", repo.Path)
		}
		if existing := variant.Repository(repo.LogicalName); existing != nil {
			*existing = *repo
			continue
		}
		variant.Repositories = append(variant.Repositories, repo)
	}

	for _, stepName := range sortedKeys(raw.Steps) {
		step, err := buildStep(stepName, raw.Steps[stepName])
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", stepName, err)
		}
		variant.Steps = append(variant.Steps, step)
	}
	if err := applyTraits(variant); err != nil {
		return nil, err
	}
	return variant, nil
}

func mappings(m map[string]string) []model.Mapping {
	var out []model.Mapping
	for _, k := range sortedKeys(m) {
		out = append(out, model.Mapping{Name: k, Value: m[k]})
	}
	return out
}

func buildStep(name string, raw *rawStep) (*model.Step, error) {
	if raw == nil {
		raw = &rawStep{}
	}
	step := &model.Step{
		Name:       name,
		ScriptType: model.ScriptType(raw.ScriptType),
		Image:      raw.Image,
		Registry:   raw.Registry,
		Timeout:    raw.Timeout,
		Retries:    raw.Retries,
		Inputs:     mappings(raw.Inputs),
		Outputs:    mappings(raw.Outputs),
		Variables:  mappings(raw.Vars),
		DependsOn:  raw.Depends,
	}
	if step.ScriptType == "" {
		step.ScriptType = model.ScriptTypePython3
	}
	switch execute := raw.Execute.(type) {
	case nil:
	case string:
		argv, err := shellquote.Split(execute)
		if err != nil {
			return nil, fmt.Errorf("execute: %w", err)
		}
		step.Execute = argv
	case []any:
		for _, a := range execute {
			step.Execute = append(step.Execute, fmt.Sprint(a))
		}
	default:
		return nil, fmt.Errorf("execute must be a string or a list, got %T", raw.Execute)
	}
	switch publish := raw.PublishTo.(type) {
	case nil:
	case []any:
		for _, p := range publish {
			step.PublishTo = append(step.PublishTo, model.PublishTarget{Repository: fmt.Sprint(p)})
		}
	case map[string]any:
		for _, repo := range sortedKeys(publish) {
			target := model.PublishTarget{Repository: repo}
			if opts, ok := publish[repo].(map[string]any); ok {
				target.ForcePush, _ = opts["force_push"].(bool)
			}
			step.PublishTo = append(step.PublishTo, target)
		}
	default:
		return nil, fmt.Errorf("publish_to must be a list or a mapping, got %T", raw.PublishTo)
	}
	return step, nil
}
