package replicator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concourse/pipeline-renderer/pkg/definition"
	"concourse/pipeline-renderer/pkg/enumerator"
	"concourse/pipeline-renderer/pkg/model"
)

const testDefinitions = `
repo:
  jobs:
    head-update:
      steps:
        build:
          script_type: sh
broken:
  jobs:
    head-update:
      steps:
        build:
          script_type: perl
`

func testConfigSet() *model.ConfigSet {
	return &model.ConfigSet{
		Name:   "default",
		Github: []model.GithubConfig{{Name: "github_com", HTTPURL: "https://github.com", SSHURL: "ssh://git@github.com"}},
	}
}

func newTestReplicator(t *testing.T, definitions, outputDir string, sender EventSender) *Replicator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline_definitions")
	require.NoError(t, os.WriteFile(path, []byte(definitions), 0o644))
	e := enumerator.NewFileEnumerator(path, definition.MainRepo{Path: "org/repo", Branch: "master"}, enumerator.Target{ConfigSetName: "default", Team: "main"})
	deployer, err := NewFilesystemDeployer(outputDir)
	require.NoError(t, err)
	return NewReplicator([]enumerator.Enumerator{e}, NewDefinitionRenderer(testConfigSet(), nil), deployer, NewResultProcessor(sender))
}

func TestReplicate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pipelines")
	r := newTestReplicator(t, testDefinitions, out, nil)

	summary, err := r.Replicate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, []string{"repo-master"}, summary.Created)
	assert.Equal(t, map[string]int{"default:main": 2}, summary.Targets)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "broken-master", summary.Failed[0].Pipeline)
	assert.Equal(t, "SKIPPED", summary.Failed[0].Status)
	assert.Contains(t, summary.Failed[0].Error, "unsupported script type perl")
	assert.True(t, errors.Is(summary.Err(), ErrReplicationFailed))

	rendered, err := os.ReadFile(filepath.Join(out, "repo-master"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "head-update-job")
	assert.NoFileExists(t, filepath.Join(out, "broken-master"))

	summary, err = r.Replicate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, summary.Created)
}

func TestReplicateInvalidYAML(t *testing.T) {
	r := newTestReplicator(t, "repo: [unclosed", t.TempDir(), nil)
	summary, err := r.Replicate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Succeeded)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, definition.InvalidYAMLName+"-master", summary.Failed[0].Pipeline)
	assert.NotEmpty(t, summary.Failed[0].Error)
}

func TestReplicateCancelled(t *testing.T) {
	r := newTestReplicator(t, testDefinitions, t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Replicate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilesystemDeployer(t *testing.T) {
	dir := t.TempDir()
	deployer, err := NewFilesystemDeployer(dir)
	require.NoError(t, err)
	descriptor := &definition.Descriptor{PipelineName: "repo-master", Pipeline: []byte("jobs: []\n")}

	tests := []struct {
		name     string
		pipeline string
		want     DeployStatus
	}{
		{name: "new pipeline", pipeline: "jobs: []\n", want: DeploySucceeded | DeployCreated},
		{name: "unchanged pipeline", pipeline: "jobs: []\n", want: DeploySucceeded | DeploySkipped},
		{name: "changed pipeline", pipeline: "jobs: [{name: a}]\n", want: DeploySucceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptor.Pipeline = []byte(tt.pipeline)
			result := deployer.Deploy(descriptor)
			if result.Status != tt.want {
				t.Errorf("Deploy() status = %v, want %v", result.Status, tt.want)
			}
			content, err := os.ReadFile(filepath.Join(dir, "repo-master"))
			require.NoError(t, err)
			assert.Equal(t, tt.pipeline, string(content))
		})
	}
}

func TestFilesystemDeployerPipelineNames(t *testing.T) {
	dir := t.TempDir()
	deployer, err := NewFilesystemDeployer(filepath.Join(dir, "out"))
	require.NoError(t, err)

	slashed := definition.Preprocess(&definition.Descriptor{
		Name:         "repo",
		PipelineName: "repo",
		MainRepo:     definition.MainRepo{Path: "org/repo", Branch: "feature/x"},
		Pipeline:     []byte("jobs: []\n"),
	})
	result := deployer.Deploy(slashed)
	require.NoError(t, result.Err)
	assert.Equal(t, DeploySucceeded|DeployCreated, result.Status)
	_, err = os.Stat(filepath.Join(dir, "out", "repo-feature-x"))
	assert.NoError(t, err)

	for _, name := range []string{"../escape", "..", "/tmp/abs", "a/b", ""} {
		result := deployer.Deploy(&definition.Descriptor{PipelineName: name, Pipeline: []byte("jobs: []\n")})
		assert.Equal(t, DeployFailed, result.Status, name)
		assert.ErrorIs(t, result.Err, ErrInvalidPipelineName, name)
	}
	_, err = os.Stat(filepath.Join(dir, "escape"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeployStatusString(t *testing.T) {
	tests := []struct {
		status DeployStatus
		want   string
	}{
		{status: 0, want: "NONE"},
		{status: DeploySkipped, want: "SKIPPED"},
		{status: DeploySucceeded | DeployCreated, want: "SUCCEEDED|CREATED"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %v, want %v", got, tt.want)
		}
	}
}

func TestResultEventIsSent(t *testing.T) {
	type received struct {
		eventType string
		summary   Summary
	}
	events := make(chan received, 1)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var summary Summary
		_ = json.Unmarshal(body, &summary)
		events <- received{eventType: r.Header.Get("Ce-Type"), summary: summary}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	sender, err := NewHTTPEventSender(sink.URL)
	require.NoError(t, err)
	r := newTestReplicator(t, testDefinitions, t.TempDir(), sender)
	summary, err := r.Replicate(context.Background())
	require.NoError(t, err)

	event := <-events
	assert.Equal(t, EventType, event.eventType)
	assert.Equal(t, summary.RunID, event.summary.RunID)
	assert.Equal(t, 1, event.summary.Succeeded)
	require.Len(t, event.summary.Failed, 1)
}

func TestResultEventSendFailure(t *testing.T) {
	sender, err := NewHTTPEventSender("http://127.0.0.1:1")
	require.NoError(t, err)
	r := newTestReplicator(t, testDefinitions, t.TempDir(), sender)
	_, err = r.Replicate(context.Background())
	assert.Error(t, err)
}
