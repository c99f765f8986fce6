package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/expression"
	"concourse/pipeline-renderer/pkg/model"
)

const githubPathRegexp = "^[a-zA-Z0-9-_.]+/[a-zA-Z0-9-_.]+$"

type validator struct {
}

func NewValidator() model.DefinitionValidator {
	return validator{}
}

func (v validator) Validate(definition model.PipelineDefinition) (validationErrors []string) {
	if definition.Name == "" {
		validationErrors = append(validationErrors, `"name" missing`)
	}
	if len(definition.Variants) == 0 {
		validationErrors = append(validationErrors, "at least one variant is necessary")
	}
	variantNames := make(map[string]bool)
	for _, variant := range definition.Variants {
		if variantNames[variant.Name] {
			validationErrors = append(validationErrors, fmt.Sprintf("variant %s is defined more than once", variant.Name))
			continue
		}
		variantNames[variant.Name] = true
		validationErrors = append(validationErrors, validateVariant(variant)...)
	}
	logger.WithField("func", "Validate").Infof("validation of %s finished with %d validation errors", definition.Name, len(validationErrors))
	return validationErrors
}

func validateVariant(variant *model.Variant) (validationErrors []string) {
	mainRepositories := 0
	for i, repo := range variant.Repositories {
		if repo.Main {
			mainRepositories++
		}
		if matched, err := regexp.MatchString(githubPathRegexp, repo.Path); err != nil || !matched {
			validationErrors = append(validationErrors, fmt.Sprintf(`"repositories[%d].path" of variant %s must be of the form <org>/<repo>`, i, variant.Name))
		}
		if repo.Branch == "" {
			validationErrors = append(validationErrors, fmt.Sprintf(`"repositories[%d].branch" of variant %s is missing`, i, variant.Name))
		}
	}
	if mainRepositories != 1 {
		validationErrors = append(validationErrors, fmt.Sprintf("variant %s must have exactly one main repository", variant.Name))
	}

	stepNames := make(map[string]bool)
	unknownDependency := false
	for _, step := range variant.Steps {
		if stepNames[step.Name] {
			validationErrors = append(validationErrors, fmt.Sprintf("step %s of variant %s is defined more than once", step.Name, variant.Name))
		}
		stepNames[step.Name] = true
		switch step.ScriptType {
		case "", model.ScriptTypeShell, model.ScriptTypePython3:
		default:
			validationErrors = append(validationErrors, fmt.Sprintf("step %s of variant %s has unsupported script type %s", step.Name, variant.Name, step.ScriptType))
		}
		for _, d := range step.DependsOn {
			if variant.Step(d) == nil {
				unknownDependency = true
				validationErrors = append(validationErrors, fmt.Sprintf("step %s of variant %s depends on unknown step %s", step.Name, variant.Name, d))
			}
		}
		for _, p := range step.PublishTo {
			if variant.Repository(p.Repository) == nil {
				validationErrors = append(validationErrors, fmt.Sprintf("step %s of variant %s publishes to unknown repository %s", step.Name, variant.Name, p.Repository))
			}
		}
		for _, m := range step.Variables {
			if err := expression.Check(m.Value); err != nil {
				validationErrors = append(validationErrors, fmt.Sprintf("variable %s of step %s is invalid: %s", m.Name, step.Name, err))
			}
		}
		if step.Timeout != "" {
			if _, err := time.ParseDuration(step.Timeout); err != nil {
				validationErrors = append(validationErrors, fmt.Sprintf("step %s of variant %s has invalid timeout %s", step.Name, variant.Name, step.Timeout))
			}
		}
	}
	if !unknownDependency {
		if _, err := variant.OrderedSteps(); errors.Is(err, model.ErrDependencyCycle) {
			validationErrors = append(validationErrors, fmt.Sprintf("steps of variant %s contain a dependency cycle", variant.Name))
		}
	}

	if cron := variant.Traits.Cronjob; cron != nil && cron.Interval != "" {
		if _, err := time.ParseDuration(cron.Interval); err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("cronjob interval %s of variant %s is invalid", cron.Interval, variant.Name))
		}
	}
	if slack := variant.Traits.Slack; slack != nil {
		if _, ok := slack.ChannelCfgs[slack.DefaultChannel]; !ok {
			validationErrors = append(validationErrors, fmt.Sprintf("slack default channel %s of variant %s is not configured", slack.DefaultChannel, variant.Name))
		}
	}
	if variant.HasTrait(model.TraitPullRequest) && variant.HasTrait(model.TraitRelease) {
		validationErrors = append(validationErrors, fmt.Sprintf("variant %s must not combine the pull-request and release traits", variant.Name))
	}
	return validationErrors
}
