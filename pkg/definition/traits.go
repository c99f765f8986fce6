package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"concourse/pipeline-renderer/pkg/model"
)

// recode converts a generic YAML value into the typed target.
func recode(value any, target any) error {
	if value == nil {
		return nil
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, target)
}

type rawPublishTrait struct {
	DockerImages map[string]model.ImageDescriptor `yaml:"dockerimages"`
}

// decodeTraits builds the trait set. A trait key with an empty payload attaches the
// trait with its defaults.
func decodeTraits(raw map[string]any) (model.Traits, error) {
	var traits model.Traits
	for _, key := range sortedKeys(raw) {
		value := raw[key]
		var err error
		switch model.TraitKind(key) {
		case model.TraitVersion:
			traits.Version = &model.VersionTrait{Preprocess: model.VersionPreprocessInjectCommitHash}
			err = recode(value, traits.Version)
		case model.TraitCronjob:
			traits.Cronjob = &model.CronjobTrait{}
			err = recode(value, traits.Cronjob)
		case model.TraitPublish:
			var publish rawPublishTrait
			err = recode(value, &publish)
			traits.Publish = &model.PublishTrait{}
			for _, name := range sortedKeys(publish.DockerImages) {
				descriptor := publish.DockerImages[name]
				descriptor.Name = name
				traits.Publish.DockerImages = append(traits.Publish.DockerImages, descriptor)
			}
		case model.TraitPullRequest:
			traits.PullRequest = &model.PullRequestTrait{}
			err = recode(value, traits.PullRequest)
		case model.TraitRelease:
			traits.Release = &model.ReleaseTrait{NextVersion: "bump_minor"}
			err = recode(value, traits.Release)
		case model.TraitComponentDescriptor:
			traits.ComponentDescriptor = &model.ComponentDescriptorTrait{}
			err = recode(value, traits.ComponentDescriptor)
		case model.TraitScheduling:
			traits.Scheduling = &model.SchedulingTrait{}
			err = recode(value, traits.Scheduling)
		case model.TraitOptions:
			traits.Options = &model.OptionsTrait{}
			err = recode(value, traits.Options)
		case model.TraitSlack:
			traits.Slack = &model.SlackTrait{}
			err = recode(value, traits.Slack)
		default:
			return model.Traits{}, fmt.Errorf("unknown trait %s", key)
		}
		if err != nil {
			return model.Traits{}, fmt.Errorf("trait %s: %w", key, err)
		}
	}
	return traits, nil
}
