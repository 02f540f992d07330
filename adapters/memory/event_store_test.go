package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
)

func saveEvent(t *testing.T, store *EventStore, expID, variantID, name, userID, sessionID string, value float64) {
	t.Helper()
	err := store.SaveEvent(context.Background(), experiment.Event{
		ID:           core.NewEventID(),
		ExperimentID: expID,
		VariantID:    variantID,
		Name:         name,
		Value:        value,
		UserID:       userID,
		SessionID:    sessionID,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEventStore_VariantCounts(t *testing.T) {
	store := NewEventStore()

	// Three distinct visitors exposed to A, one of them twice.
	for i := 0; i < 3; i++ {
		saveEvent(t, store, "exp1", "A", experiment.EventExposure, "", fmt.Sprintf("sess_%d", i), 0)
	}
	saveEvent(t, store, "exp1", "A", experiment.EventExposure, "", "sess_0", 0)
	saveEvent(t, store, "exp1", "A", experiment.EventConversion, "", "sess_1", 50)

	// One visitor on B, identified by user ID across two sessions.
	saveEvent(t, store, "exp1", "B", experiment.EventExposure, "user_1", "sess_x", 0)
	saveEvent(t, store, "exp1", "B", experiment.EventExposure, "user_1", "sess_y", 0)

	// Noise from another experiment.
	saveEvent(t, store, "exp2", "A", experiment.EventExposure, "", "sess_0", 0)

	counts, err := store.VariantCounts(context.Background(), "exp1")
	if err != nil {
		t.Fatal(err)
	}
	byVariant := make(map[string][2]int, len(counts))
	for _, c := range counts {
		byVariant[c.VariantID] = [2]int{c.Participants, c.Conversions}
	}
	if got := byVariant["A"]; got != [2]int{3, 1} {
		t.Errorf("A counts = %v, want [3 1]", got)
	}
	if got := byVariant["B"]; got != [2]int{1, 0} {
		t.Errorf("B counts = %v, want [1 0]", got)
	}
}

func TestEventStore_EventValues(t *testing.T) {
	store := NewEventStore()
	saveEvent(t, store, "exp1", "A", experiment.EventConversion, "", "sess_1", 100)
	saveEvent(t, store, "exp1", "A", experiment.EventConversion, "", "sess_2", 150)
	saveEvent(t, store, "exp1", "B", experiment.EventConversion, "", "sess_3", 80)
	saveEvent(t, store, "exp1", "A", experiment.EventExposure, "", "sess_1", 0)

	values, err := store.EventValues(context.Background(), "exp1", experiment.EventConversion)
	if err != nil {
		t.Fatal(err)
	}
	if got := values["A"]; len(got) != 2 || got[0] != 100 || got[1] != 150 {
		t.Errorf("A values = %v", got)
	}
	if got := values["B"]; len(got) != 1 || got[0] != 80 {
		t.Errorf("B values = %v", got)
	}
}
