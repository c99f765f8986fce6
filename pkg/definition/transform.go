package definition

import (
	"errors"
	"fmt"

	"concourse/pipeline-renderer/pkg/model"
)

var ErrReservedStepName = errors.New("step name is reserved by a trait")

const (
	stepRemovePRLabel       = "rm_pr_label"
	stepPrepare             = "prepare"
	stepPublish             = "publish"
	stepComponentDescriptor = "component_descriptor"
	stepRelease             = "release"
	stepVersion             = "version"

	imagePathOutput       = "image_path"
	descriptorDirOutput   = "component_descriptor_dir"
	versionPathOutput     = "version_path"
	versionPathVariable   = "VERSION_PATH"
	imagePathVariable     = "IMAGE_PATH"
	descriptorDirVariable = "COMPONENT_DESCRIPTOR_DIR"
)

// transformer adds the steps a trait contributes to a variant.
type transformer struct {
	variant   *model.Variant
	userSteps []*model.Step
}

func (t *transformer) add(kind model.TraitKind, step *model.Step) error {
	if t.variant.Step(step.Name) != nil {
		return fmt.Errorf("%w: %s (trait %s)", ErrReservedStepName, step.Name, kind)
	}
	step.Synthetic = true
	if step.ScriptType == "" {
		step.ScriptType = model.ScriptTypePython3
	}
	t.variant.Steps = append(t.variant.Steps, step)
	return nil
}

// applyTraits runs the trait transformers. The version step is added last so every
// other step, synthetic ones included, depends on it.
func applyTraits(v *model.Variant) error {
	t := &transformer{variant: v, userSteps: append([]*model.Step(nil), v.Steps...)}
	traits := v.Traits

	if pr := traits.PullRequest; pr != nil && pr.Policies.RequireLabel != "" {
		if err := t.add(model.TraitPullRequest, &model.Step{Name: stepRemovePRLabel}); err != nil {
			return err
		}
		for _, s := range t.userSteps {
			s.AddDependency(stepRemovePRLabel)
		}
	}

	if publish := traits.Publish; publish != nil && len(publish.DockerImages) > 0 {
		prepare := &model.Step{
			Name:    stepPrepare,
			Outputs: []model.Mapping{{Name: imagePathOutput, Value: imagePathVariable}},
		}
		publishStep := &model.Step{
			Name:      stepPublish,
			Inputs:    []model.Mapping{{Name: imagePathOutput, Value: imagePathVariable}},
			DependsOn: []string{stepPrepare},
		}
		for _, s := range t.userSteps {
			publishStep.AddDependency(s.Name)
		}
		if err := t.add(model.TraitPublish, prepare); err != nil {
			return err
		}
		if err := t.add(model.TraitPublish, publishStep); err != nil {
			return err
		}
	}

	if traits.ComponentDescriptor != nil {
		descriptor := &model.Step{
			Name:    stepComponentDescriptor,
			Outputs: []model.Mapping{{Name: descriptorDirOutput, Value: descriptorDirVariable}},
		}
		for _, s := range t.userSteps {
			descriptor.AddDependency(s.Name)
		}
		if v.Step(stepPublish) != nil {
			descriptor.AddDependency(stepPublish)
		}
		if err := t.add(model.TraitComponentDescriptor, descriptor); err != nil {
			return err
		}
	}

	if traits.Release != nil {
		release := &model.Step{Name: stepRelease}
		if main := v.MainRepository(); main != nil {
			release.PublishTo = []model.PublishTarget{{Repository: main.LogicalName}}
		}
		if traits.ComponentDescriptor != nil {
			release.Inputs = []model.Mapping{{Name: descriptorDirOutput, Value: descriptorDirVariable}}
		}
		for _, s := range v.Steps {
			release.AddDependency(s.Name)
		}
		if err := t.add(model.TraitRelease, release); err != nil {
			return err
		}
	}

	if traits.Version != nil {
		version := &model.Step{
			Name:    stepVersion,
			Outputs: []model.Mapping{{Name: versionPathOutput, Value: versionPathVariable}},
		}
		if err := t.add(model.TraitVersion, version); err != nil {
			return err
		}
		for _, s := range v.Steps {
			s.AddDependency(stepVersion)
		}
	}
	return nil
}
