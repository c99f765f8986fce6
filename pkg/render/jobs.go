package render

import (
	"concourse/pipeline-renderer/pkg/document"
	"concourse/pipeline-renderer/pkg/model"
)

func jobName(v *model.Variant) string {
	return v.Name + "-job"
}

// job renders a variant: parallel gets, the preparatory rebase of publish targets and
// one plan entry per dependency stage.
func (p *pass) job(v *model.Variant) (document.Job, error) {
	stages, err := v.OrderedSteps()
	if err != nil {
		return document.Job{}, err
	}
	job := document.Job{
		Name:              jobName(v),
		Serial:            v.SuppressParallelExecution(),
		BuildLogsToRetain: v.BuildLogsToRetain(),
		Public:            v.PublicBuildLogs(),
	}
	job.Plan = append(job.Plan, p.gets(v))
	if !v.HasTrait(model.TraitPullRequest) {
		for _, repo := range v.PublishTargets() {
			job.Plan = append(job.Plan, document.Put{
				Name: repo.ResourceName(),
				Params: document.Fields{
					{Key: "repository", Value: repo.ResourceName()},
					{Key: "rebase", Value: true},
				},
			})
		}
	}
	for _, stage := range stages {
		var rendered []document.PlanStep
		for _, s := range stage {
			ps, err := p.step(v, s)
			if err != nil {
				return document.Job{}, err
			}
			rendered = append(rendered, ps)
		}
		if len(rendered) == 1 {
			job.Plan = append(job.Plan, rendered[0])
		} else {
			job.Plan = append(job.Plan, document.InParallel{Steps: rendered})
		}
	}
	return job, nil
}

func (p *pass) gets(v *model.Variant) document.InParallel {
	gets := []document.PlanStep{document.Get{Name: metaResourceName}}
	for _, repo := range v.Repositories {
		gets = append(gets, document.Get{Name: repo.ResourceName(), Trigger: repo.ShouldTrigger()})
	}
	if v.Traits.Cronjob != nil {
		gets = append(gets, document.Get{Name: cronResourceName(v), Trigger: true})
	}
	return document.InParallel{Steps: gets}
}
