package app

import (
	"context"
	"time"

	"gosplit/domain/bucket"
	"gosplit/domain/core"
	"gosplit/domain/experiment"
	"gosplit/domain/targeting"
	"gosplit/internal"
	"gosplit/internal/errors"
	"gosplit/ports"
)

// AssignmentService orchestrates sticky variant assignment: cache
// read-through, status re-validation, targeting, deterministic bucketing,
// and exposure reporting. The pure computation lives in domain/bucket and
// domain/targeting; this service owns the I/O boundary around it.
type AssignmentService struct {
	source   ports.ExperimentSource
	cache    ports.AssignmentCache
	reporter ports.EventReporter
	log      *internal.Logger
}

// NewAssignmentService creates an assignment service. reporter may be nil
// when exposure reporting is handled elsewhere.
func NewAssignmentService(source ports.ExperimentSource, cache ports.AssignmentCache, reporter ports.EventReporter, log *internal.Logger) *AssignmentService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &AssignmentService{source: source, cache: cache, reporter: reporter, log: log}
}

// Assign resolves the variant for a visitor in an experiment, or nil when
// the visitor is not enrolled. Cache and reporter failures are logged and
// never abort the decision: the assignment is deterministic and cheap to
// recompute from the same inputs.
//
// A cached assignment is honored even if weights or allocation changed
// since, but only while the experiment is still running: stale entries for
// paused/completed/archived experiments are dropped on read.
func (s *AssignmentService) Assign(ctx context.Context, experimentID string, visitor experiment.Visitor, tctx *targeting.Context) (*experiment.Variant, error) {
	exp, err := s.source.GetExperiment(ctx, experimentID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading experiment %q", experimentID)
	}

	if !exp.Status.Assignable() {
		// Invalidate whatever the visitor had cached for this experiment.
		if err := s.cache.Remove(ctx, visitor, exp.ID); err != nil {
			s.log.Warn("assignment cache remove failed for experiment %s: %v", exp.ID, err)
		}
		return nil, nil
	}

	if variantID, ok, err := s.cache.Get(ctx, visitor, exp.ID); err != nil {
		s.log.Warn("assignment cache read failed for experiment %s: %v", exp.ID, err)
	} else if ok {
		if v := exp.Variant(variantID); v != nil {
			return v, nil
		}
		// Cached variant no longer exists in the definition; recompute.
		if err := s.cache.Remove(ctx, visitor, exp.ID); err != nil {
			s.log.Warn("assignment cache remove failed for experiment %s: %v", exp.ID, err)
		}
	}

	if !targeting.Matches(exp.Targeting, tctx) {
		return nil, nil
	}

	v := bucket.Assign(exp, visitor)
	if v == nil {
		return nil, nil
	}

	if err := s.cache.Set(ctx, visitor, exp.ID, v.ID); err != nil {
		s.log.Warn("assignment cache write failed for experiment %s: %v", exp.ID, err)
	}
	s.reportExposure(ctx, exp.ID, v.ID, visitor)

	return v, nil
}

// ClearAssignments drops all cached assignments for a visitor, forcing
// fresh bucketing on the next call.
func (s *AssignmentService) ClearAssignments(ctx context.Context, visitor experiment.Visitor) error {
	return s.cache.ClearAll(ctx, visitor)
}

func (s *AssignmentService) reportExposure(ctx context.Context, experimentID, variantID string, visitor experiment.Visitor) {
	if s.reporter == nil {
		return
	}
	ev := experiment.Event{
		ID:           core.NewEventID(),
		ExperimentID: experimentID,
		VariantID:    variantID,
		Name:         experiment.EventExposure,
		UserID:       visitor.UserID,
		SessionID:    visitor.SessionID,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.reporter.Send(ctx, ev); err != nil {
		s.log.Warn("exposure report failed for experiment %s: %v", experimentID, err)
	}
}
