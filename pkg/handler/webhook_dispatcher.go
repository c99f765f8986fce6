// Package handler receives GitHub webhooks and keeps the pipelines of the sending
// repository up to date.
package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/go-github/github"
	logger "github.com/sirupsen/logrus"

	"concourse/pipeline-renderer/pkg/definition"
)

const (
	WebhookPath = "/github-webhook"

	eventTypePush        = "push"
	eventTypeCreate      = "create"
	eventTypePullRequest = "pull_request"
	eventTypePing        = "ping"

	refTypeBranch = "branch"
)

// handledPullRequestActions are the pull request actions that may change what a
// pull request resource sees.
var handledPullRequestActions = map[string]bool{
	"opened":      true,
	"reopened":    true,
	"labeled":     true,
	"synchronize": true,
}

// PipelineUpdater re-renders and deploys the pipelines of one repository.
type PipelineUpdater interface {
	UpdateRepository(ctx context.Context, repositoryURL string) error
}

type GithubWebhookDispatcher struct {
	secret  []byte
	updater PipelineUpdater
}

// NewGithubWebhookDispatcher returns a dispatcher. An empty secret disables the
// signature check.
func NewGithubWebhookDispatcher(secret string, updater PipelineUpdater) *GithubWebhookDispatcher {
	return &GithubWebhookDispatcher{secret: []byte(secret), updater: updater}
}

// IsTypeHandled godoc
func (d *GithubWebhookDispatcher) IsTypeHandled(eventType string) bool {
	switch eventType {
	case eventTypePush, eventTypeCreate, eventTypePullRequest, eventTypePing:
		return true
	}
	return false
}

// Router serves the webhook endpoint and a health check.
func (d *GithubWebhookDispatcher) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post(WebhookPath, d.ServeHTTP)
	return r
}

func (d *GithubWebhookDispatcher) payload(r *http.Request) ([]byte, error) {
	if len(d.secret) == 0 {
		return io.ReadAll(r.Body)
	}
	return github.ValidatePayload(r, d.secret)
}

func (d *GithubWebhookDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	eventType := github.WebHookType(r)
	log := logger.WithField("func", "ServeHTTP").WithField("event", eventType)
	if !d.IsTypeHandled(eventType) {
		log.Infof("ignoring event type %q", eventType)
		http.Error(w, fmt.Sprintf("event type %s is not supported", eventType), http.StatusBadRequest)
		return
	}
	payload, err := d.payload(r)
	if err != nil {
		log.WithError(err).Warn("rejected webhook payload")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		log.WithError(err).Warn("failed to parse webhook payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	message := d.Handle(r.Context(), event)
	log.Info(message)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, message)
}

// Handle dispatches a parsed webhook event and returns what was done.
func (d *GithubWebhookDispatcher) Handle(ctx context.Context, event interface{}) string {
	switch e := event.(type) {
	case *github.PushEvent:
		return d.handlePushEvent(ctx, e)
	case *github.CreateEvent:
		return d.handleCreateEvent(ctx, e)
	case *github.PullRequestEvent:
		return handlePullRequestEvent(e)
	case *github.PingEvent:
		return "pong"
	default:
		return fmt.Sprintf("ignored event %T", event)
	}
}

func (d *GithubWebhookDispatcher) handlePushEvent(ctx context.Context, e *github.PushEvent) string {
	if !pipelineDefinitionChanged(e) {
		return fmt.Sprintf("no pipeline definition changes in %s %s", e.GetRepo().GetFullName(), e.GetRef())
	}
	return d.updatePipelines(ctx, e.GetRepo().GetHTMLURL())
}

func (d *GithubWebhookDispatcher) handleCreateEvent(ctx context.Context, e *github.CreateEvent) string {
	if e.GetRefType() != refTypeBranch {
		return fmt.Sprintf("ignored create event with type %s", e.GetRefType())
	}
	return d.updatePipelines(ctx, e.GetRepo().GetHTMLURL())
}

func handlePullRequestEvent(e *github.PullRequestEvent) string {
	if !handledPullRequestActions[e.GetAction()] {
		return fmt.Sprintf("ignoring pull-request action %s", e.GetAction())
	}
	return fmt.Sprintf("pull request %s#%d %s", e.GetRepo().GetFullName(), e.GetNumber(), e.GetAction())
}

// updatePipelines never fails the webhook; update errors are logged.
func (d *GithubWebhookDispatcher) updatePipelines(ctx context.Context, repositoryURL string) string {
	if err := d.updater.UpdateRepository(ctx, repositoryURL); err != nil {
		logger.WithField("func", "updatePipelines").WithError(err).Warnf("failed to update pipelines of %s - ignored", repositoryURL)
		return fmt.Sprintf("failed to update pipelines of %s", repositoryURL)
	}
	return fmt.Sprintf("updated pipelines of %s", repositoryURL)
}

func pipelineDefinitionChanged(e *github.PushEvent) bool {
	for _, c := range e.Commits {
		for _, paths := range [][]string{c.Added, c.Modified, c.Removed} {
			for _, p := range paths {
				if strings.TrimPrefix(p, "/") == definition.DefinitionsPath {
					return true
				}
			}
		}
	}
	return false
}
