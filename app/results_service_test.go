package app

import (
	"context"
	"testing"

	"gosplit/adapters/memory"
	"gosplit/domain/experiment"
	"gosplit/internal/errors"
)

func seedResultsFixture(t *testing.T, expStore *memory.ExperimentStore, events *memory.EventStore, id string, controlConv, variantConv int) {
	t.Helper()
	ctx := context.Background()

	exp := weightedExperiment(50, 50)
	exp.ID = id
	seedExperiment(t, expStore, exp)

	tracker := NewTrackingService(events, nil, nil)
	for i := 0; i < 100; i++ {
		vA := experiment.Visitor{UserID: id + "_a_user_" + string(rune('a'+i%26)) + string(rune('0'+i/26))}
		vB := experiment.Visitor{UserID: id + "_b_user_" + string(rune('a'+i%26)) + string(rune('0'+i/26))}
		if err := tracker.TrackExposure(ctx, id, "A", vA); err != nil {
			t.Fatal(err)
		}
		if err := tracker.TrackExposure(ctx, id, "B", vB); err != nil {
			t.Fatal(err)
		}
		if i < controlConv {
			if err := tracker.TrackConversion(ctx, id, "A", vA, 100, nil); err != nil {
				t.Fatal(err)
			}
		}
		if i < variantConv {
			if err := tracker.TrackConversion(ctx, id, "B", vB, 120, nil); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestResults(t *testing.T) {
	expStore := memory.NewExperimentStore()
	events := memory.NewEventStore()
	seedResultsFixture(t, expStore, events, "banner", 10, 20)

	svc := NewResultsService(expStore, events)
	res, err := svc.Results(context.Background(), "banner")
	if err != nil {
		t.Fatal(err)
	}

	if res.TotalParticipants != 200 {
		t.Errorf("total participants = %d, want 200", res.TotalParticipants)
	}
	if res.RecommendedWinner != "B" {
		t.Errorf("recommended winner = %q, want B", res.RecommendedWinner)
	}
	treatment := res.Variants[1]
	if treatment.ConversionRate != 20.0 || treatment.Uplift != 100.0 || !treatment.Significant {
		t.Errorf("unexpected treatment result: %+v", treatment)
	}
}

func TestResults_UnknownExperiment(t *testing.T) {
	svc := NewResultsService(memory.NewExperimentStore(), memory.NewEventStore())
	_, err := svc.Results(context.Background(), "nope")
	if !errors.HasCode(err, errors.CodeExperimentNotFound) {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeExperimentNotFound)
	}
}

func TestMetricSummaries(t *testing.T) {
	expStore := memory.NewExperimentStore()
	events := memory.NewEventStore()
	seedResultsFixture(t, expStore, events, "banner", 10, 20)

	svc := NewResultsService(expStore, events)
	summaries, err := svc.MetricSummaries(context.Background(), "banner", experiment.EventConversion)
	if err != nil {
		t.Fatal(err)
	}

	a, b := summaries["A"], summaries["B"]
	if a.Count != 10 || a.Mean != 100 {
		t.Errorf("control summary: %+v", a)
	}
	if b.Count != 20 || b.Mean != 120 {
		t.Errorf("treatment summary: %+v", b)
	}
}

func TestResultsForAll(t *testing.T) {
	expStore := memory.NewExperimentStore()
	events := memory.NewEventStore()
	ids := []string{"exp_a", "exp_b", "exp_c"}
	for _, id := range ids {
		seedResultsFixture(t, expStore, events, id, 10, 12)
	}

	svc := NewResultsService(expStore, events)
	all, err := svc.ResultsForAll(context.Background(), ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(ids) {
		t.Fatalf("expected %d result sets, got %d", len(ids), len(all))
	}
	for _, id := range ids {
		r, ok := all[id]
		if !ok || r.ExperimentID != id || r.TotalParticipants != 200 {
			t.Errorf("result set for %s: %+v", id, r)
		}
	}

	// One unknown experiment fails the whole batch.
	if _, err := svc.ResultsForAll(context.Background(), append(ids, "nope")); err == nil {
		t.Error("a failing experiment must fail the batch")
	}
}

func TestRequiredSampleSizeWrapper(t *testing.T) {
	svc := NewResultsService(memory.NewExperimentStore(), memory.NewEventStore())

	n, err := svc.RequiredSampleSize(10, 20, 95, 80)
	if err != nil || n != 3837 {
		t.Errorf("RequiredSampleSize = %d (%v), want 3837", n, err)
	}
	if _, err := svc.RequiredSampleSize(10, 0, 95, 80); !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Errorf("zero effect should map to %s, got %v", errors.CodeInvalidInput, err)
	}
}
