package render

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/document"
	"concourse/pipeline-renderer/pkg/model"
)

const (
	statusPending = "pending"
	statusSuccess = "success"
	statusError   = "error"
)

func statusPut(repo *model.Repository, step *model.Step, status string) document.Put {
	return document.Put{
		Name: repo.ResourceName(),
		Params: document.Fields{
			{Key: "path", Value: repo.ResourceName()},
			{Key: "status", Value: status},
			{Key: "context", Value: step.Name},
		},
	}
}

// pullRequestStatus reports the step state as commit status of the pull request.
// Pull-request variants never send mails.
func (p *pass) pullRequestStatus(v *model.Variant, step *model.Step, task document.Task) document.PlanStep {
	repo := v.MainRepository()
	if repo == nil || !repo.PullRequest {
		logger.WithField("func", "pullRequestStatus").Warnf("variant %s has no pull request repository, status reporting is disabled", v.Name)
		return task
	}
	task.OnSuccess = statusPut(repo, step, statusSuccess)
	task.OnFailure = statusPut(repo, step, statusError)
	return document.Do{Steps: []document.PlanStep{statusPut(repo, step, statusPending), task}}
}

// recipients are those of the main repository and of the repositories the step
// publishes to. The config set defaults apply when none are declared.
func (p *pass) recipients(v *model.Variant, step *model.Step) []string {
	seen := make(map[string]bool)
	var recipients []string
	for _, repo := range v.Repositories {
		if _, publishes := step.PublishesTo(repo.LogicalName); !repo.Main && !publishes {
			continue
		}
		for _, r := range repo.Recipients {
			if seen[r] {
				continue
			}
			seen[r] = true
			recipients = append(recipients, r)
		}
	}
	if len(recipients) == 0 && p.opts.ConfigSet.Email != nil {
		recipients = append(recipients, p.opts.ConfigSet.Email.DefaultRecipients...)
	}
	return recipients
}

func (p *pass) failureEmail(v *model.Variant, step *model.Step) document.PlanStep {
	if p.opts.ConfigSet.Email == nil {
		return nil
	}
	branch := ""
	if main := v.MainRepository(); main != nil {
		branch = main.Branch
	}
	return document.Put{
		Name: emailResourceName,
		Params: document.Fields{
			{Key: "to", Value: p.recipients(v, step)},
			{Key: "subject_text", Value: fmt.Sprintf("Step %s for %s:%s failed!", step.Name, p.definition.Name, branch)},
			{Key: "body_text", Value: fmt.Sprintf("Step %s of job %s in pipeline %s failed. Check the build log for details.", step.Name, jobName(v), p.pipelineName)},
		},
	}
}
