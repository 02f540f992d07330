package ports

import (
	"context"

	"gosplit/domain/experiment"
)

// ExperimentSource gives the engine read-only access to experiment
// definitions. The core never mutates definitions through this port.
type ExperimentSource interface {
	// GetExperiment returns the current definition for an experiment ID.
	GetExperiment(ctx context.Context, id string) (*experiment.Experiment, error)
}

// ExperimentRepository extends the read-only source with the authoring
// operations used outside the assignment path (admin surface, migrations).
type ExperimentRepository interface {
	ExperimentSource

	// SaveExperiment inserts or updates an experiment definition.
	SaveExperiment(ctx context.Context, exp *experiment.Experiment) error

	// ListByStatus returns experiments in the given lifecycle status.
	ListByStatus(ctx context.Context, status experiment.Status) ([]*experiment.Experiment, error)

	// UpdateStatus transitions an experiment's lifecycle status. The
	// transition must be legal per the status state machine.
	UpdateStatus(ctx context.Context, id string, status experiment.Status) error

	// DeclareWinner records the winning variant on a completed experiment.
	DeclareWinner(ctx context.Context, id, variantID string) error
}
