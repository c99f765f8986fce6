package render

import (
	"fmt"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/document"
	"concourse/pipeline-renderer/pkg/model"
)

const (
	metaResourceName  = "meta"
	emailResourceName = "send_email"
	timeResourceType  = "time"
	gitResourceType   = "git"
	imageResourceType = "docker-image"
	prResourceType    = "pull-request"
	metaResourceType  = "meta"
	emailResourceType = "email"

	webhookTokenAnchor = "webhook_token"
	prDefaultsAnchor   = "pr_defaults"

	defaultCheckEvery   = "12h"
	defaultCronInterval = "5m"
)

// resourceTypes declares the custom types. The email type is only declared if a
// resource uses it.
func resourceTypes(resources []document.Resource) []document.ResourceType {
	dockerImage := func(repository string) document.Fields {
		return document.Fields{{Key: "repository", Value: repository}}
	}
	types := []document.ResourceType{
		{Name: prResourceType, Type: imageResourceType, Source: dockerImage("jtarchie/pr")},
		{Name: metaResourceType, Type: imageResourceType, Source: dockerImage("swce/metadata-resource")},
	}
	for _, r := range resources {
		if r.Type == emailResourceType {
			types = append(types, document.ResourceType{Name: emailResourceType, Type: imageResourceType, Source: dockerImage("pcfseceng/email-resource")})
			break
		}
	}
	return types
}

func (p *pass) inheritAnchors() []document.Anchor {
	checkEvery := p.opts.ConfigSet.Concourse.CheckEvery
	if checkEvery == "" {
		checkEvery = defaultCheckEvery
	}
	return []document.Anchor{
		{Name: webhookTokenAnchor, Fields: document.Fields{
			{Key: "webhook_token", Value: p.opts.ConfigSet.Concourse.WebhookToken},
			{Key: "check_every", Value: checkEvery},
		}},
		{Name: prDefaultsAnchor, Fields: document.Fields{
			{Key: document.MergeKey, Value: document.Alias(webhookTokenAnchor)},
			{Key: "disable_forks", Value: true},
		}},
	}
}

func (p *pass) resources() ([]document.Resource, error) {
	var resources []document.Resource
	for _, repo := range p.definition.Repositories() {
		r, err := p.repositoryResource(repo)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	for _, descriptor := range p.definition.ImageDescriptors() {
		r, err := p.imageResource(descriptor)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	resources = append(resources, p.cronResources()...)
	resources = append(resources, document.Resource{Name: metaResourceName, Type: metaResourceType, Source: document.Fields{}})
	if r, ok := p.emailResource(); ok {
		resources = append(resources, r)
	}
	return resources, nil
}

func (p *pass) githubConfig(repo *model.Repository) (model.GithubConfig, error) {
	cfg, ok := p.opts.ConfigSet.GithubConfig(repo.CfgName, repo.Host())
	if !ok {
		return model.GithubConfig{}, fmt.Errorf("repository %s (cfg %q): %w", repo.Path, repo.CfgName, ErrGithubConfigNotFound)
	}
	return cfg, nil
}

func repositoryURI(cfg model.GithubConfig, repo *model.Repository) string {
	if cfg.SSHURL != "" {
		return strings.TrimSuffix(cfg.SSHURL, "/") + "/" + repo.Path + ".git"
	}
	return "git@" + repo.Host() + ":" + repo.Path + ".git"
}

func (p *pass) repositoryResource(repo *model.Repository) (document.Resource, error) {
	cfg, err := p.githubConfig(repo)
	if err != nil {
		return document.Resource{}, err
	}
	if !repo.PullRequest {
		return document.Resource{
			Name: repo.ResourceName(),
			Type: gitResourceType,
			Source: document.Fields{
				{Key: "uri", Value: repositoryURI(cfg, repo)},
				{Key: "branch", Value: repo.Branch},
				{Key: "disable_ci_skip", Value: repo.DisableCISkip},
				{Key: "private_key", Value: cfg.TechnicalUser.PrivateKey},
				{Key: document.MergeKey, Value: document.Alias(webhookTokenAnchor)},
			},
		}, nil
	}
	source := document.Fields{
		{Key: "repo", Value: repo.Path},
		{Key: "base", Value: repo.Branch},
		{Key: "uri", Value: repositoryURI(cfg, repo)},
		{Key: "api_endpoint", Value: cfg.APIURL},
		{Key: "access_token", Value: cfg.TechnicalUser.AuthToken},
		{Key: "private_key", Value: cfg.TechnicalUser.PrivateKey},
	}
	if policies := p.pullRequestPolicies(repo); policies != nil {
		if policies.RequireLabel != "" {
			source = append(source, document.Field{Key: "label", Value: policies.RequireLabel})
		}
		if policies.BuildForks {
			source = append(source, document.Field{Key: "disable_forks", Value: false})
		}
	}
	source = append(source, document.Field{Key: document.MergeKey, Value: document.Alias(prDefaultsAnchor)})
	return document.Resource{Name: repo.ResourceName(), Type: prResourceType, Source: source}, nil
}

// pullRequestPolicies returns the policies of the first pull-request variant using repo.
func (p *pass) pullRequestPolicies(repo *model.Repository) *model.PullRequestPolicies {
	for _, v := range p.definition.Variants {
		if v.Traits.PullRequest == nil {
			continue
		}
		for _, r := range v.Repositories {
			if r.ResourceName() == repo.ResourceName() {
				return &v.Traits.PullRequest.Policies
			}
		}
	}
	return nil
}

func (p *pass) imageResource(descriptor model.ImageDescriptor) (document.Resource, error) {
	source := document.Fields{{Key: "repository", Value: descriptor.Image}}
	registryName := descriptor.Registry
	if registryName == "" {
		registryName = p.opts.ConfigSet.DefaultRegistry
	}
	if registryName != "" {
		registry, ok := p.opts.ConfigSet.ContainerRegistry(registryName)
		if !ok {
			return document.Resource{}, fmt.Errorf("image %s: registry %s: %w", descriptor.Name, registryName, ErrRegistryNotFound)
		}
		source = append(source, credentials(&registry)...)
	}
	return document.Resource{Name: descriptor.Name, Type: imageResourceType, Source: source}, nil
}

func credentials(registry *model.ContainerRegistryConfig) document.Fields {
	if registry == nil || registry.Username == "" {
		return nil
	}
	return document.Fields{
		{Key: "username", Value: registry.Username},
		{Key: "password", Value: registry.Password},
	}
}

func cronResourceName(v *model.Variant) string {
	if v.Traits.Cronjob.ResourceName != "" {
		return v.Traits.Cronjob.ResourceName
	}
	return v.Name + "-cron"
}

func (p *pass) cronResources() []document.Resource {
	seen := make(map[string]bool)
	var resources []document.Resource
	for _, v := range p.definition.Variants {
		if v.Traits.Cronjob == nil {
			continue
		}
		name := cronResourceName(v)
		if seen[name] {
			continue
		}
		seen[name] = true
		interval := v.Traits.Cronjob.Interval
		if interval == "" {
			interval = defaultCronInterval
		}
		resources = append(resources, document.Resource{
			Name:   name,
			Type:   timeResourceType,
			Source: document.Fields{{Key: "interval", Value: interval}},
		})
	}
	return resources
}

func (p *pass) needsEmail() bool {
	for _, v := range p.definition.Variants {
		if !v.HasTrait(model.TraitPullRequest) {
			return true
		}
	}
	return false
}

func (p *pass) emailResource() (document.Resource, bool) {
	if !p.needsEmail() {
		return document.Resource{}, false
	}
	email := p.opts.ConfigSet.Email
	if email == nil {
		logger.WithField("func", "emailResource").Warnf("config set %s has no email config, failure notifications are disabled", p.opts.ConfigSet.Name)
		return document.Resource{}, false
	}
	return document.Resource{
		Name: emailResourceName,
		Type: emailResourceType,
		Source: document.Fields{
			{Key: "smtp", Value: document.Fields{
				{Key: "host", Value: email.SMTPHost},
				{Key: "port", Value: strconv.Itoa(email.SMTPPort)},
				{Key: "username", Value: email.Username},
				{Key: "password", Value: email.Password},
			}},
			{Key: "from", Value: email.Sender},
		},
	}, true
}
