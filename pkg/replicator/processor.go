package replicator

import (
	"context"
	"fmt"
	"sort"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

const (
	EventType   = "sh.concourse.pipeline.replication.finished"
	EventSource = "pipeline-renderer/replicator"
)

// Failure describes a pipeline that could not be replicated.
type Failure struct {
	Pipeline   string `json:"pipeline"`
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type Summary struct {
	RunID     string         `json:"run_id"`
	Succeeded int            `json:"succeeded"`
	Created   []string       `json:"created,omitempty"`
	Targets   map[string]int `json:"targets"`
	Failed    []Failure      `json:"failed,omitempty"`
}

// Err is ErrReplicationFailed wrapped with the number of failed pipelines, or nil.
func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d pipeline(s)", ErrReplicationFailed, len(s.Failed))
}

type EventSender interface {
	Send(ctx context.Context, event cloudevents.Event) error
}

type httpEventSender struct {
	client cloudevents.Client
	sink   string
}

// NewHTTPEventSender sends events to sink in binary HTTP mode.
func NewHTTPEventSender(sink string) (EventSender, error) {
	client, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudevents client: %w", err)
	}
	return &httpEventSender{client: client, sink: sink}, nil
}

func (s *httpEventSender) Send(ctx context.Context, event cloudevents.Event) error {
	result := s.client.Send(cloudevents.ContextWithTarget(ctx, s.sink), event)
	if !cloudevents.IsACK(result) {
		return fmt.Errorf("could not send event to %s: %w", s.sink, result)
	}
	return nil
}

// ResultProcessor summarizes a replication run and, if a sender is set, publishes
// the summary as a CloudEvent.
type ResultProcessor struct {
	sender EventSender
}

func NewResultProcessor(sender EventSender) *ResultProcessor {
	return &ResultProcessor{sender: sender}
}

func (p *ResultProcessor) Process(ctx context.Context, results []DeployResult) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Targets: map[string]int{}}
	for _, r := range results {
		summary.Targets[r.Descriptor.TargetKey()]++
		if r.Succeeded() {
			summary.Succeeded++
			if r.Status.Has(DeployCreated) {
				summary.Created = append(summary.Created, r.Descriptor.PipelineName)
			}
			continue
		}
		failure := Failure{
			Pipeline:   r.Descriptor.PipelineName,
			Repository: r.Descriptor.MainRepo.Path,
			Branch:     r.Descriptor.MainRepo.Branch,
			Status:     r.Status.String(),
		}
		if r.Err != nil {
			failure.Error = r.Err.Error()
		}
		summary.Failed = append(summary.Failed, failure)
	}
	sort.Strings(summary.Created)
	sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i].Pipeline < summary.Failed[j].Pipeline })

	log := logger.WithField("func", "Process").WithField("run", summary.RunID)
	for target, count := range summary.Targets {
		log.Debugf("%d pipeline(s) for target %s", count, target)
	}
	log.Infof("Successfully replicated %d pipeline(s)", summary.Succeeded)
	if len(summary.Failed) > 0 {
		log.Warnf("Errors occurred whilst replicating %d pipeline(s):", len(summary.Failed))
		for _, f := range summary.Failed {
			log.Warnf("%s (%s:%s): %s", f.Pipeline, f.Repository, f.Branch, f.Error)
		}
	}

	if p.sender == nil {
		return summary, nil
	}
	if err := p.sender.Send(ctx, summaryEvent(summary)); err != nil {
		log.WithError(err).Error("sending replication event failed")
		return summary, err
	}
	return summary, nil
}

func summaryEvent(summary Summary) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetType(EventType)
	event.SetSource(EventSource)
	event.SetTime(time.Now())
	event.SetExtension("runid", summary.RunID)
	_ = event.SetData(cloudevents.ApplicationJSON, summary)
	return event
}
