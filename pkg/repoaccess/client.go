package repoaccess

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

type Client struct {
	githubInstance githubInstance
}

type githubInstance struct {
	owner      string
	repository string
	context    context.Context
	client     *github.Client
}

// NewClient creates a client for the repository behind url. An empty apiURL uses
// the public GitHub API.
func NewClient(accessToken string, url string, apiURL string) (client Client, err error) {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: accessToken},
	)
	tc := oauth2.NewClient(ctx, ts)

	client.githubInstance.client = github.NewClient(tc)
	client.githubInstance.context = ctx
	if apiURL != "" {
		if err := client.setBaseURL(apiURL); err != nil {
			return client, err
		}
	}
	if owner, repo, err := getGithubOwnerRepository(url); err != nil {
		return client, err
	} else {
		client.githubInstance.owner = owner
		client.githubInstance.repository = repo
		return client, nil
	}
}

func (c *Client) setBaseURL(apiURL string) error {
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return err
	}
	c.githubInstance.client.BaseURL = u
	return nil
}

// Path is the <owner>/<repository> path of the repository.
func (c *Client) Path() string {
	return c.githubInstance.owner + "/" + c.githubInstance.repository
}

func getGithubOwnerRepository(raw string) (owner, repository string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return owner, repository, err
	}
	splittedUrl := strings.Split(strings.TrimSuffix(u.Path, ".git"), "/")
	if len(splittedUrl) < 3 || splittedUrl[1] == "" || splittedUrl[2] == "" {
		return owner, repository, fmt.Errorf("%s is not a repository url", raw)
	}
	return splittedUrl[1], splittedUrl[2], nil
}
