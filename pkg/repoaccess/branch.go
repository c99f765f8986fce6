package repoaccess

import (
	"net/http"

	"github.com/google/go-github/github"
	logger "github.com/sirupsen/logrus"
)

const fallbackDefaultBranch = "master"

// RefExists reports whether ref (e.g. refs/meta/ci or refs/heads/master) exists.
func (c *Client) RefExists(ref string) (bool, error) {
	reference, resp, err := c.githubInstance.client.Git.GetRef(c.githubInstance.context, c.githubInstance.owner, c.githubInstance.repository, ref)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return reference != nil, nil
}

// ListBranches returns the names of all branches of the repository.
func (c *Client) ListBranches() (branches []string, err error) {
	opt := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.githubInstance.client.Repositories.ListBranches(c.githubInstance.context, c.githubInstance.owner, c.githubInstance.repository, opt)
		if err != nil {
			return branches, err
		}
		for _, b := range page {
			branches = append(branches, b.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	logger.WithField("func", "ListBranches").Debugf("found %d branches in github repo %s", len(branches), c.Path())
	return branches, nil
}

// DefaultBranch falls back to master if the repository cannot be read.
func (c *Client) DefaultBranch() string {
	repo, _, err := c.githubInstance.client.Repositories.Get(c.githubInstance.context, c.githubInstance.owner, c.githubInstance.repository)
	if err != nil || repo.GetDefaultBranch() == "" {
		logger.WithField("func", "DefaultBranch").WithError(err).Warnf("could not determine default branch of %s, using %s", c.Path(), fallbackDefaultBranch)
		return fallbackDefaultBranch
	}
	return repo.GetDefaultBranch()
}
