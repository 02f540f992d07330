package memory

import (
	"context"
	"sync"

	"gosplit/domain/experiment"
	"gosplit/domain/stats"
	"gosplit/ports"
)

// EventStore is a thread-safe in-memory event log with the aggregation
// queries the results service needs. Participants and conversions count
// distinct visitors, not raw events.
type EventStore struct {
	mu     sync.RWMutex
	events []experiment.Event
}

// NewEventStore creates an empty store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

var _ ports.EventStore = (*EventStore)(nil)

// SaveEvent appends one event.
func (s *EventStore) SaveEvent(ctx context.Context, ev experiment.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// VariantCounts aggregates distinct-visitor exposure and conversion counts
// per variant.
func (s *EventStore) VariantCounts(ctx context.Context, experimentID string) ([]stats.VariantCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type visitorSets struct {
		exposed   map[string]bool
		converted map[string]bool
	}
	byVariant := make(map[string]*visitorSets)
	var order []string

	for i := range s.events {
		ev := &s.events[i]
		if ev.ExperimentID != experimentID {
			continue
		}
		sets, ok := byVariant[ev.VariantID]
		if !ok {
			sets = &visitorSets{exposed: make(map[string]bool), converted: make(map[string]bool)}
			byVariant[ev.VariantID] = sets
			order = append(order, ev.VariantID)
		}
		key := visitorKey(ev)
		switch ev.Name {
		case experiment.EventExposure:
			sets.exposed[key] = true
		case experiment.EventConversion:
			sets.converted[key] = true
		}
	}

	counts := make([]stats.VariantCounts, 0, len(order))
	for _, variantID := range order {
		sets := byVariant[variantID]
		counts = append(counts, stats.VariantCounts{
			VariantID:    variantID,
			Participants: len(sets.exposed),
			Conversions:  len(sets.converted),
		})
	}
	return counts, nil
}

// EventValues returns raw recorded values per variant for a named event.
func (s *EventStore) EventValues(ctx context.Context, experimentID, eventName string) (map[string][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string][]float64)
	for i := range s.events {
		ev := &s.events[i]
		if ev.ExperimentID != experimentID || ev.Name != eventName {
			continue
		}
		values[ev.VariantID] = append(values[ev.VariantID], ev.Value)
	}
	return values, nil
}

func visitorKey(ev *experiment.Event) string {
	if ev.UserID != "" {
		return ev.UserID
	}
	return ev.SessionID
}
