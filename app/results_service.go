package app

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"gosplit/domain/stats"
	"gosplit/internal/errors"
	"gosplit/ports"
)

// ResultsService assembles derived experiment results from aggregated
// event counts via the statistical analyzer.
type ResultsService struct {
	source ports.ExperimentSource
	store  ports.EventStore
}

// NewResultsService creates a results service
func NewResultsService(source ports.ExperimentSource, store ports.EventStore) *ResultsService {
	return &ResultsService{source: source, store: store}
}

// Results computes the aggregated results view for one experiment.
func (s *ResultsService) Results(ctx context.Context, experimentID string) (*stats.ExperimentResults, error) {
	exp, err := s.source.GetExperiment(ctx, experimentID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading experiment %q", experimentID)
	}

	counts, err := s.store.VariantCounts(ctx, experimentID)
	if err != nil {
		return nil, errors.Wrapf(err, "aggregating counts for experiment %q", experimentID)
	}

	return stats.BuildResults(exp, counts)
}

// MetricSummaries returns descriptive statistics of recorded event values
// per variant for one named event of the experiment.
func (s *ResultsService) MetricSummaries(ctx context.Context, experimentID, eventName string) (map[string]stats.MetricSummary, error) {
	values, err := s.store.EventValues(ctx, experimentID, eventName)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s values for experiment %q", eventName, experimentID)
	}

	summaries := make(map[string]stats.MetricSummary, len(values))
	for variantID, vals := range values {
		summaries[variantID] = stats.SummarizeMetric(vals)
	}
	return summaries, nil
}

// ResultsForAll computes results for many experiments concurrently. The
// result map is keyed by experiment ID; one failing experiment fails the
// batch.
func (s *ResultsService) ResultsForAll(ctx context.Context, experimentIDs []string) (map[string]*stats.ExperimentResults, error) {
	results := make(map[string]*stats.ExperimentResults, len(experimentIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range experimentIDs {
		id := id
		g.Go(func() error {
			r, err := s.Results(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = r
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RequiredSampleSize answers the planning question for a new experiment:
// participants per arm to detect the effect at the given operating points.
func (s *ResultsService) RequiredSampleSize(baselineRate, minimumDetectableEffect float64, confidenceLevel, power int) (int, error) {
	n, err := stats.RequiredSampleSize(baselineRate, minimumDetectableEffect, confidenceLevel, power)
	if err != nil {
		return 0, errors.InvalidInput(err.Error())
	}
	return n, nil
}
