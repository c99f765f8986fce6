package render

import (
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/document"
	"concourse/pipeline-renderer/pkg/expression"
	"concourse/pipeline-renderer/pkg/model"
)

// bindings are the environment variables and task inputs/outputs derived from the
// repositories of a variant.
type bindings struct {
	params  document.Fields
	inputs  []string
	outputs []string
	clones  []clone
	mainDir string
}

func (p *pass) repositoryBindings(v *model.Variant, step *model.Step) bindings {
	var b bindings
	for _, repo := range v.Repositories {
		location := repo.ResourceName()
		b.inputs = append(b.inputs, repo.ResourceName())
		if _, ok := step.PublishesTo(repo.LogicalName); ok {
			location = repo.OutputResourceName()
			b.outputs = append(b.outputs, location)
			b.clones = append(b.clones, clone{Source: repo.ResourceName(), Destination: location})
		}
		if repo.Main {
			b.mainDir = location
		}
		for _, kv := range repo.EnvVars(location) {
			b.params = append(b.params, document.Field{Key: kv[0], Value: kv[1]})
		}
	}
	return b
}

// mappingVariable is the environment variable that receives the path of a declared
// input or output.
func mappingVariable(m model.Mapping) string {
	if m.Value != "" {
		return m.Value
	}
	return strings.ToUpper(strings.ReplaceAll(m.Name, "-", "_"))
}

func (p *pass) fixedParams(v *model.Variant) document.Fields {
	cfg := p.opts.ConfigSet
	params := document.Fields{
		{Key: "META", Value: metaResourceName},
		{Key: "SECRETS_SERVER_ENDPOINT", Value: cfg.SecretsServer.Endpoint},
		{Key: "SECRETS_SERVER_CONCOURSE_CFG_NAME", Value: cfg.SecretsServer.SecretPath()},
		{Key: "CONCOURSE_CURRENT_CFG", Value: cfg.Name},
		{Key: "CONCOURSE_CURRENT_TEAM", Value: p.opts.TargetTeam},
		{Key: "PIPELINE_NAME", Value: p.pipelineName},
	}
	if trait := v.Traits.ComponentDescriptor; trait != nil {
		params = append(params, document.Field{Key: "COMPONENT_NAME", Value: p.componentName(v, trait)})
	}
	return params
}

func (p *pass) componentName(v *model.Variant, trait *model.ComponentDescriptorTrait) string {
	if trait.ComponentName != "" {
		return trait.ComponentName
	}
	if main := v.MainRepository(); main != nil {
		return main.Host() + "/" + main.Path
	}
	return p.definition.Name
}

func (p *pass) variableParams(step *model.Step) (document.Fields, error) {
	var params document.Fields
	for _, m := range step.Variables {
		value, err := expression.Evaluate(m.Value, p.expressions)
		if err != nil {
			return nil, fmt.Errorf("step %s: variable %s: %w", step.Name, m.Name, err)
		}
		params = append(params, document.Field{Key: m.Name, Value: value})
	}
	return params, nil
}

func (p *pass) readsVersion(v *model.Variant, step *model.Step) bool {
	return v.HasTrait(model.TraitVersion) && step.Name != string(model.TraitVersion)
}

// task renders the task of a step without notification hooks.
func (p *pass) task(v *model.Variant, step *model.Step) (document.Task, error) {
	log := logger.WithField("func", "task")
	image, err := p.stepImage(step)
	if err != nil {
		return document.Task{}, err
	}
	repos := p.repositoryBindings(v, step)
	inputs := repos.inputs
	outputs := repos.outputs
	params := repos.params

	readVersion := p.readsVersion(v, step)
	if readVersion && !step.HasInput(versionPathName) {
		inputs = append(inputs, versionPathName)
	}
	for _, m := range step.Inputs {
		inputs = append(inputs, m.Name)
		params = append(params, document.Field{Key: mappingVariable(m), Value: m.Name})
	}
	for _, m := range step.Outputs {
		outputs = append(outputs, m.Name)
		params = append(params, document.Field{Key: mappingVariable(m), Value: m.Name})
	}
	inputs = append(inputs, metaResourceName)
	params = append(params, p.fixedParams(v)...)
	variables, err := p.variableParams(step)
	if err != nil {
		return document.Task{}, err
	}
	params = append(params, variables...)

	s := script{
		Executable:  step.Executable(repos.mainDir, executableDir),
		Args:        step.Argv()[1:],
		MainDir:     repos.mainDir,
		Clones:      repos.clones,
		ReadVersion: readVersion,
		Synthetic:   step.Synthetic,
	}
	if readVersion && v.Traits.Version.InjectEffectiveVersion {
		s.VersionFile = v.Traits.Version.VersionFile
		if s.VersionFile == "" {
			s.VersionFile = defaultVersion
		}
	}
	if main := v.MainRepository(); main != nil && len(repos.clones) > 0 {
		if cfg, err := p.githubConfig(main); err == nil {
			s.GitUser = cfg.TechnicalUser.Username
			s.GitEmail = cfg.TechnicalUser.EmailAddress
		}
	}

	task := document.Task{
		Name:    step.Name,
		Timeout: step.Timeout,
		Image:   image.fields(),
		Inputs:  inputs,
		Outputs: outputs,
		Params:  params,
	}
	if step.Retries > 0 {
		task.Attempts = step.Retries + 1
	}

	scriptType := step.ScriptType
	if body, ok := p.libraryBody(v, step); ok {
		log.Debugf("using step library body for %s", step.Name)
		s.Library = body
		scriptType = model.ScriptTypePython3
	}
	switch scriptType {
	case model.ScriptTypeShell:
		task.RunPath = "/bin/sh"
		task.RunArgs = []string{"-c", s.shell()}
	case model.ScriptTypePython3, "":
		task.RunPath = "/usr/bin/env"
		task.RunArgs = []string{"python3", "-c", s.python()}
	default:
		return document.Task{}, fmt.Errorf("step %s: %q: %w", step.Name, step.ScriptType, ErrUnsupportedScriptType)
	}
	return task, nil
}

func (p *pass) libraryBody(v *model.Variant, step *model.Step) (string, bool) {
	if p.opts.StepLibrary == nil || !NamedSteps[step.Name] {
		return "", false
	}
	return p.opts.StepLibrary.StepBody(v, step)
}

// ensurePublish pushes the writable clones back. Force push and rebase exclude each other.
func ensurePublish(v *model.Variant, step *model.Step) document.PlanStep {
	var puts []document.PlanStep
	for _, target := range step.PublishTo {
		repo := v.Repository(target.Repository)
		if repo == nil {
			continue
		}
		params := document.Fields{{Key: "repository", Value: repo.OutputResourceName()}}
		if target.ForcePush {
			params = append(params, document.Field{Key: "force", Value: true})
		} else {
			params = append(params, document.Field{Key: "rebase", Value: true})
		}
		puts = append(puts, document.Put{Name: repo.ResourceName(), Params: params})
	}
	switch len(puts) {
	case 0:
		return nil
	case 1:
		return puts[0]
	default:
		return document.Do{Steps: puts}
	}
}

// step renders a step including its notification and publish hooks.
func (p *pass) step(v *model.Variant, step *model.Step) (document.PlanStep, error) {
	task, err := p.task(v, step)
	if err != nil {
		return nil, err
	}
	if v.HasTrait(model.TraitPullRequest) {
		return p.pullRequestStatus(v, step, task), nil
	}
	if notification := p.failureEmail(v, step); notification != nil {
		task.OnFailure = notification
	}
	if ensure := ensurePublish(v, step); ensure != nil {
		task.Ensure = ensure
	}
	return task, nil
}
