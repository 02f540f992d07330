// Package memory provides in-memory implementations of the engine's ports,
// used by tests, the simulation CLI, and database-less dev mode.
package memory

import (
	"context"
	"sync"
	"time"

	"gosplit/domain/experiment"
	"gosplit/internal/errors"
	"gosplit/ports"
)

// ExperimentStore is a thread-safe in-memory ExperimentRepository.
type ExperimentStore struct {
	mu          sync.RWMutex
	experiments map[string]*experiment.Experiment
}

// NewExperimentStore creates an empty store.
func NewExperimentStore() *ExperimentStore {
	return &ExperimentStore{experiments: make(map[string]*experiment.Experiment)}
}

var _ ports.ExperimentRepository = (*ExperimentStore)(nil)

// GetExperiment returns a copy of the stored definition.
func (s *ExperimentStore) GetExperiment(ctx context.Context, id string) (*experiment.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.experiments[id]
	if !ok {
		return nil, errors.ExperimentNotFound(id)
	}
	cp := *exp
	cp.Variants = append([]experiment.Variant(nil), exp.Variants...)
	return &cp, nil
}

// SaveExperiment validates and stores a definition, keyed by ID.
func (s *ExperimentStore) SaveExperiment(ctx context.Context, exp *experiment.Experiment) error {
	if err := exp.Validate(); err != nil {
		return errors.ValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *exp
	cp.Variants = append([]experiment.Variant(nil), exp.Variants...)
	now := time.Now().UTC()
	if existing, ok := s.experiments[exp.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.experiments[exp.ID] = &cp
	return nil
}

// ListByStatus returns experiments in the given status.
func (s *ExperimentStore) ListByStatus(ctx context.Context, status experiment.Status) ([]*experiment.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*experiment.Experiment
	for _, exp := range s.experiments {
		if exp.Status == status {
			cp := *exp
			cp.Variants = append([]experiment.Variant(nil), exp.Variants...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateStatus transitions an experiment's lifecycle status, enforcing the
// state machine.
func (s *ExperimentStore) UpdateStatus(ctx context.Context, id string, status experiment.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[id]
	if !ok {
		return errors.ExperimentNotFound(id)
	}
	if !exp.Status.CanTransitionTo(status) {
		return errors.InvalidTransition(string(exp.Status), string(status))
	}
	exp.Status = status
	exp.UpdatedAt = time.Now().UTC()
	return nil
}

// DeclareWinner records the winning variant on a completed experiment.
func (s *ExperimentStore) DeclareWinner(ctx context.Context, id, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[id]
	if !ok {
		return errors.ExperimentNotFound(id)
	}
	if exp.Variant(variantID) == nil {
		return errors.VariantNotFound(id, variantID)
	}
	if exp.Status != experiment.StatusCompleted {
		return errors.InvalidTransition(string(exp.Status), "winner declaration requires completed status")
	}
	exp.WinnerVariantID = variantID
	exp.UpdatedAt = time.Now().UTC()
	return nil
}
