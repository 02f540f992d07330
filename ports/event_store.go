package ports

import (
	"context"

	"gosplit/domain/experiment"
	"gosplit/domain/stats"
)

// EventStore persists raw exposure/conversion events and serves the
// aggregated counts the statistical analyzer consumes.
type EventStore interface {
	// SaveEvent appends one event.
	SaveEvent(ctx context.Context, event experiment.Event) error

	// VariantCounts aggregates distinct-visitor participant and conversion
	// counts per variant for an experiment.
	VariantCounts(ctx context.Context, experimentID string) ([]stats.VariantCounts, error)

	// EventValues returns the raw event values recorded per variant for a
	// named event (e.g. conversion order totals), for metric summaries.
	EventValues(ctx context.Context, experimentID, eventName string) (map[string][]float64, error)
}
