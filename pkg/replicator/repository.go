package replicator

import (
	"context"
	"fmt"
	"net/url"

	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/enumerator"
	"concourse/pipeline-renderer/pkg/model"
	"concourse/pipeline-renderer/pkg/repoaccess"
)

// RepositoryReplicator replicates the pipelines of a single GitHub repository.
type RepositoryReplicator struct {
	configSet   *model.ConfigSet
	accessToken string
	team        string
	deployer    Deployer
	processor   *ResultProcessor
}

// NewRepositoryReplicator uses accessToken for GitHub; if it is empty the auth token of
// the technical user of the matching github config is used.
func NewRepositoryReplicator(configSet *model.ConfigSet, accessToken, team string, deployer Deployer, processor *ResultProcessor) *RepositoryReplicator {
	return &RepositoryReplicator{
		configSet:   configSet,
		accessToken: accessToken,
		team:        team,
		deployer:    deployer,
		processor:   processor,
	}
}

// Enumerator reads the definitions of the repository behind repositoryURL through the
// API of the github config matching its host.
func (r *RepositoryReplicator) Enumerator(repositoryURL string) (enumerator.Enumerator, error) {
	u, err := url.Parse(repositoryURL)
	if err != nil {
		return nil, err
	}
	githubCfg, ok := r.configSet.GithubConfig("", u.Hostname())
	if !ok {
		return nil, fmt.Errorf("no github config for host %s", u.Hostname())
	}
	token := r.accessToken
	if token == "" {
		token = githubCfg.TechnicalUser.AuthToken
	}
	client, err := repoaccess.NewClient(token, repositoryURL, githubCfg.APIURL)
	if err != nil {
		return nil, err
	}
	target := enumerator.Target{ConfigSetName: r.configSet.Name, Team: r.team}
	return enumerator.NewGithubRepositoryEnumerator(&client, u.Hostname(), target), nil
}

// UpdateRepository renders and deploys all pipelines of the repository.
func (r *RepositoryReplicator) UpdateRepository(ctx context.Context, repositoryURL string) error {
	e, err := r.Enumerator(repositoryURL)
	if err != nil {
		return err
	}
	logger.WithField("func", "UpdateRepository").Infof("updating pipelines of %s", repositoryURL)
	replicator := NewReplicator([]enumerator.Enumerator{e}, NewDefinitionRenderer(r.configSet, nil), r.deployer, r.processor)
	summary, err := replicator.Replicate(ctx)
	if err != nil {
		return err
	}
	return summary.Err()
}
