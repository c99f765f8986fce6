package repoaccess

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/org/repo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "repo", "default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/org/repo/branches", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "main"}, {"name": "rel-1.0"}]`)
	})
	mux.HandleFunc("/repos/org/repo/git/refs/meta/ci", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ref": "refs/meta/ci", "object": {"type": "commit", "sha": "abc"}}`)
	})
	mux.HandleFunc("/repos/org/repo/contents/.ci/pipeline_definitions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "main" {
			http.NotFound(w, r)
			return
		}
		content := base64.StdEncoding.EncodeToString([]byte("repo:\n  jobs: {}\n"))
		fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "path": ".ci/pipeline_definitions", "sha": "abc", "content": %q}`, content)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T) Client {
	t.Helper()
	server := newTestServer(t)
	client, err := NewClient("token", "https://github.com/org/repo", server.URL)
	require.NoError(t, err)
	return client
}

func TestGetFile(t *testing.T) {
	client := newTestClient(t)

	file, err := client.GetFile("main", ".ci/pipeline_definitions")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "repo:\n  jobs: {}\n", file.Content)
	assert.Equal(t, "abc", file.SHA)

	file, err = client.GetFile("other", ".ci/pipeline_definitions")
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestBranches(t *testing.T) {
	client := newTestClient(t)

	branches, err := client.ListBranches()
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "rel-1.0"}, branches)
	assert.Equal(t, "main", client.DefaultBranch())

}

func TestRefExists(t *testing.T) {
	client := newTestClient(t)

	tests := []struct {
		ref  string
		want bool
	}{
		{ref: "refs/meta/ci", want: true},
		{ref: "refs/heads/missing", want: false},
	}
	for _, tt := range tests {
		exists, err := client.RefExists(tt.ref)
		if err != nil {
			t.Errorf("RefExists(%s) error = %v", tt.ref, err)
		}
		if exists != tt.want {
			t.Errorf("RefExists(%s) = %v, want %v", tt.ref, exists, tt.want)
		}
	}
}

func TestGetGithubOwnerRepository(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{url: "https://github.com/org/repo", wantOwner: "org", wantRepo: "repo"},
		{url: "https://github.com/org/repo.git", wantOwner: "org", wantRepo: "repo"},
		{url: "https://github.com/org", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := getGithubOwnerRepository(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}
