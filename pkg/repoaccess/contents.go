package repoaccess

import (
	"net/http"

	"github.com/google/go-github/github"
	logger "github.com/sirupsen/logrus"
)

type RepositoryFile struct {
	Content string
	Path    string
	SHA     string
}

// GetFile reads a single file at ref. A missing file is returned as nil without error.
func (c *Client) GetFile(ref, path string) (file *RepositoryFile, err error) {
	logger.WithField("func", "GetFile").Debugf("reading %s at %s from %s", path, ref, c.Path())
	fileContent, _, resp, err := c.githubInstance.client.Repositories.GetContents(c.githubInstance.context, c.githubInstance.owner, c.githubInstance.repository, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if fileContent == nil {
		logger.WithField("func", "GetFile").Infof("%s at %s is a directory", path, ref)
		return nil, nil
	}
	content, err := fileContent.GetContent()
	if err != nil {
		return nil, err
	}
	return &RepositoryFile{
		Content: content,
		Path:    fileContent.GetPath(),
		SHA:     fileContent.GetSHA(),
	}, nil
}
