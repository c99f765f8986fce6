package replicator

import (
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/config"
	"concourse/pipeline-renderer/pkg/definition"
	"concourse/pipeline-renderer/pkg/model"
	"concourse/pipeline-renderer/pkg/render"
)

// DefinitionRenderer loads, validates and renders one descriptor.
type DefinitionRenderer struct {
	configSet   *model.ConfigSet
	stepLibrary render.StepLibrary
	validator   model.DefinitionValidator
}

func NewDefinitionRenderer(configSet *model.ConfigSet, stepLibrary render.StepLibrary) *DefinitionRenderer {
	return &DefinitionRenderer{configSet: configSet, stepLibrary: stepLibrary, validator: config.NewValidator()}
}

// Render stores the rendered pipeline in the descriptor on success.
func (r *DefinitionRenderer) Render(descriptor *definition.Descriptor) RenderResult {
	pipeline, err := r.render(descriptor)
	if err != nil {
		logger.WithField("func", "Render").WithError(err).Warnf("erroneous pipeline definition '%s' in repository '%s'", descriptor.PipelineName, descriptor.MainRepo.Path)
		return RenderResult{Descriptor: descriptor, Status: RenderFailed, Err: err}
	}
	descriptor.Pipeline = pipeline
	logger.WithField("func", "Render").Infof("rendered pipeline %s", descriptor.PipelineName)
	return RenderResult{Descriptor: descriptor, Status: RenderSucceeded}
}

func (r *DefinitionRenderer) render(descriptor *definition.Descriptor) ([]byte, error) {
	pipelineDefinition, err := definition.Create(descriptor)
	if err != nil {
		return nil, err
	}
	if vs := r.validator.Validate(*pipelineDefinition); len(vs) > 0 {
		return nil, fmt.Errorf("validation error: %s", strings.Join(vs, ","))
	}
	renderer := render.NewRenderer(render.Options{
		ConfigSet:    r.configSet,
		PipelineName: descriptor.PipelineName,
		TargetTeam:   descriptor.TargetTeam,
		StepLibrary:  r.stepLibrary,
	})
	return renderer.Render(pipelineDefinition)
}
