// Package replicator enumerates pipeline definitions, renders them and deploys the
// resulting pipelines.
package replicator

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"concourse/pipeline-renderer/pkg/definition"
	"concourse/pipeline-renderer/pkg/enumerator"
)

const defaultWorkers = 8

type Replicator struct {
	enumerators []enumerator.Enumerator
	renderer    *DefinitionRenderer
	deployer    Deployer
	processor   *ResultProcessor
	workers     int
}

func NewReplicator(enumerators []enumerator.Enumerator, renderer *DefinitionRenderer, deployer Deployer, processor *ResultProcessor) *Replicator {
	return &Replicator{
		enumerators: enumerators,
		renderer:    renderer,
		deployer:    deployer,
		processor:   processor,
		workers:     defaultWorkers,
	}
}

func (r *Replicator) enumerate() ([]*definition.Descriptor, error) {
	var descriptors []*definition.Descriptor
	for _, e := range r.enumerators {
		found, err := e.Enumerate()
		if err != nil {
			return nil, err
		}
		for _, d := range found {
			descriptors = append(descriptors, definition.Preprocess(d))
		}
	}
	return descriptors, nil
}

func (r *Replicator) replicateOne(descriptor *definition.Descriptor) DeployResult {
	result := r.renderer.Render(descriptor)
	if result.Status != RenderSucceeded {
		return DeployResult{Descriptor: descriptor, Status: DeploySkipped, Err: result.Err}
	}
	return r.deployer.Deploy(descriptor)
}

// Replicate renders and deploys all enumerated definitions. A failing definition does
// not stop the others; failures are reported in the returned summary.
func (r *Replicator) Replicate(ctx context.Context) (Summary, error) {
	descriptors, err := r.enumerate()
	if err != nil {
		return Summary{}, err
	}
	logger.WithField("func", "Replicate").Infof("replicating %d pipeline definition(s)", len(descriptors))

	results := make([]DeployResult, len(descriptors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, d := range descriptors {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.replicateOne(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return r.processor.Process(ctx, results)
}

var ErrReplicationFailed = errors.New("pipeline replication failed")
