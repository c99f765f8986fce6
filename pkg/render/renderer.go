// Package render turns a pipeline definition into a Concourse pipeline document.
//
// A render pass is synchronous and only reads the definition and the config set;
// rendering the same inputs twice yields identical bytes.
package render

import (
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/document"
	"concourse/pipeline-renderer/pkg/expression"
	"concourse/pipeline-renderer/pkg/model"
)

var (
	ErrUnsupportedScriptType = errors.New("unsupported script type")
	ErrRegistryNotFound      = errors.New("container registry config not found")
	ErrGithubConfigNotFound  = errors.New("github config not found")
)

const defaultStepImage = "python:3-alpine"

// StepLibrary supplies the bodies of the well-known steps (prepare, release, ...).
type StepLibrary interface {
	StepBody(variant *model.Variant, step *model.Step) (body string, ok bool)
}

// NamedSteps are the steps whose body may come from a StepLibrary.
var NamedSteps = map[string]bool{
	"prepare":                       true,
	"version":                       true,
	"release":                       true,
	"rm_pr_label":                   true,
	"component_descriptor":          true,
	"update_component_dependencies": true,
	"publish":                       true,
	"create_draft_release_notes":    true,
	"scan_container_images":         true,
}

type Options struct {
	ConfigSet *model.ConfigSet
	// PipelineName overrides the default <definition name>-<main repo branch>.
	PipelineName string
	TargetTeam   string
	DefaultImage string
	StepLibrary  StepLibrary
}

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.ConfigSet == nil {
		opts.ConfigSet = &model.ConfigSet{}
	}
	if opts.DefaultImage == "" {
		opts.DefaultImage = defaultStepImage
	}
	return &Renderer{opts: opts}
}

// pass carries the per-definition values every builder needs.
type pass struct {
	*Renderer
	definition   *model.PipelineDefinition
	pipelineName string
	expressions  expression.Context
}

// PipelineName is the name the rendered pipeline is deployed under.
func PipelineName(definition *model.PipelineDefinition) string {
	if main := definition.MainRepository(); main != nil && main.Branch != "" {
		return definition.Name + "-" + main.Branch
	}
	return definition.Name
}

func (r *Renderer) newPass(definition *model.PipelineDefinition) *pass {
	p := &pass{Renderer: r, definition: definition, pipelineName: r.opts.PipelineName}
	if p.pipelineName == "" {
		p.pipelineName = PipelineName(definition)
	}
	p.expressions = p.expressionContext()
	return p
}

// Build assembles the document tree: inherit anchors, resource types, resources and
// one job per variant in declaration order.
func (r *Renderer) Build(definition *model.PipelineDefinition) (document.Document, error) {
	p := r.newPass(definition)
	resources, err := p.resources()
	if err != nil {
		return document.Document{}, err
	}
	doc := document.Document{
		Inherit:       p.inheritAnchors(),
		ResourceTypes: resourceTypes(resources),
		Resources:     resources,
	}
	for _, v := range definition.Variants {
		job, err := p.job(v)
		if err != nil {
			return document.Document{}, fmt.Errorf("variant %s: %w", v.Name, err)
		}
		doc.Jobs = append(doc.Jobs, job)
	}
	return doc, nil
}

// Render builds and serializes the pipeline.
func (r *Renderer) Render(definition *model.PipelineDefinition) ([]byte, error) {
	doc, err := r.Build(definition)
	if err != nil {
		logger.WithField("func", "Render").WithError(err).Errorf("could not render pipeline %s", definition.Name)
		return nil, err
	}
	out, err := document.Marshal(doc)
	if err != nil {
		return nil, err
	}
	logger.WithField("func", "Render").Infof("rendered pipeline %s with %d jobs and %d resources", definition.Name, len(doc.Jobs), len(doc.Resources))
	return out, nil
}

func (p *pass) expressionContext() expression.Context {
	pipeline := map[string]any{
		"name":          p.definition.Name,
		"pipeline_name": p.pipelineName,
		"target_team":   p.opts.TargetTeam,
		"template":      p.definition.Template,
	}
	descriptor := map[string]any{
		"pipeline_name":         p.pipelineName,
		"concourse_target_team": p.opts.TargetTeam,
		"config_set":            p.opts.ConfigSet.Name,
	}
	if main := p.definition.MainRepository(); main != nil {
		descriptor["main_repo"] = map[string]any{
			"path":     main.Path,
			"branch":   main.Branch,
			"hostname": main.Host(),
		}
	}
	return expression.Context{
		"pipeline":            pipeline,
		"pipeline_descriptor": descriptor,
	}
}
