package app

import (
	"context"
	"time"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
	"gosplit/internal"
	"gosplit/internal/errors"
	"gosplit/ports"
)

// TrackingService records exposure and conversion events: durably into the
// event store (these feed the analyzer), and best-effort through the
// reporter. Reporter failures are logged, never returned.
type TrackingService struct {
	store    ports.EventStore
	reporter ports.EventReporter
	log      *internal.Logger
}

// NewTrackingService creates a tracking service. reporter may be nil.
func NewTrackingService(store ports.EventStore, reporter ports.EventReporter, log *internal.Logger) *TrackingService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &TrackingService{store: store, reporter: reporter, log: log}
}

// TrackExposure records that a visitor was shown a variant.
func (s *TrackingService) TrackExposure(ctx context.Context, experimentID, variantID string, visitor experiment.Visitor) error {
	return s.track(ctx, experiment.Event{
		ID:           core.NewEventID(),
		ExperimentID: experimentID,
		VariantID:    variantID,
		Name:         experiment.EventExposure,
		UserID:       visitor.UserID,
		SessionID:    visitor.SessionID,
		Timestamp:    time.Now().UTC(),
	})
}

// TrackConversion records that a visitor completed the experiment's goal
// action, with an optional value (e.g. order total) and metadata.
func (s *TrackingService) TrackConversion(ctx context.Context, experimentID, variantID string, visitor experiment.Visitor, value float64, metadata map[string]string) error {
	return s.track(ctx, experiment.Event{
		ID:           core.NewEventID(),
		ExperimentID: experimentID,
		VariantID:    variantID,
		Name:         experiment.EventConversion,
		Value:        value,
		UserID:       visitor.UserID,
		SessionID:    visitor.SessionID,
		Metadata:     metadata,
		Timestamp:    time.Now().UTC(),
	})
}

func (s *TrackingService) track(ctx context.Context, ev experiment.Event) error {
	if ev.ExperimentID == "" || ev.VariantID == "" {
		return errors.InvalidInput("experiment ID and variant ID are required")
	}
	if ev.SessionID == "" && ev.UserID == "" {
		return errors.InvalidInput("a visitor identity is required")
	}

	if err := s.store.SaveEvent(ctx, ev); err != nil {
		return errors.Wrapf(err, "saving %s event for experiment %q", ev.Name, ev.ExperimentID)
	}

	if s.reporter != nil {
		if err := s.reporter.Send(ctx, ev); err != nil {
			s.log.Warn("%s report failed for experiment %s: %v", ev.Name, ev.ExperimentID, err)
		}
	}
	return nil
}
