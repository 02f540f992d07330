package bucket_test

import (
	"fmt"
	"math"
	"testing"

	"gosplit/domain/bucket"
	"gosplit/domain/experiment"
	"gosplit/internal/testkit"
)

func twoVariantExperiment(allocation int) *experiment.Experiment {
	return &experiment.Experiment{
		ID:         "exp1",
		Name:       "Checkout banner",
		Status:     experiment.StatusRunning,
		Allocation: allocation,
		Variants: []experiment.Variant{
			{ID: "A", Name: "Control", Weight: 50, IsControl: true},
			{ID: "B", Name: "Treatment", Weight: 50},
		},
	}
}

func TestAssign_StableAcrossRepeatedCalls(t *testing.T) {
	exp := twoVariantExperiment(100)
	visitor := experiment.Visitor{UserID: "user_42", SessionID: "sess_1"}

	first := bucket.Assign(exp, visitor)
	if first == nil {
		t.Fatal("allocation=100 must always enroll")
	}
	if first.ID != "A" && first.ID != "B" {
		t.Fatalf("assigned unknown variant %q", first.ID)
	}
	for i := 0; i < 1000; i++ {
		if got := bucket.Assign(exp, visitor); got == nil || got.ID != first.ID {
			t.Fatalf("assignment drifted on call %d: %v -> %v", i, first.ID, got)
		}
	}
}

func TestAssign_UserIDTakesPrecedenceOverSession(t *testing.T) {
	exp := twoVariantExperiment(100)

	a := bucket.Assign(exp, experiment.Visitor{UserID: "user_7", SessionID: "sess_x"})
	b := bucket.Assign(exp, experiment.Visitor{UserID: "user_7", SessionID: "sess_y"})
	if a == nil || b == nil || a.ID != b.ID {
		t.Fatalf("known user must keep the same variant across sessions: %v vs %v", a, b)
	}
}

func TestAssign_StatusGating(t *testing.T) {
	for _, status := range []experiment.Status{
		experiment.StatusDraft,
		experiment.StatusPaused,
		experiment.StatusCompleted,
		experiment.StatusArchived,
	} {
		exp := twoVariantExperiment(100)
		exp.Status = status
		if got := bucket.Assign(exp, experiment.Visitor{SessionID: "sess_1"}); got != nil {
			t.Errorf("status %s: expected no assignment, got %v", status, got.ID)
		}
	}
}

func TestAssign_InvalidVariantSets(t *testing.T) {
	visitor := experiment.Visitor{SessionID: "sess_1"}

	empty := twoVariantExperiment(100)
	empty.Variants = nil
	if got := bucket.Assign(empty, visitor); got != nil {
		t.Errorf("zero variants: expected nil, got %v", got.ID)
	}

	zeroWeights := twoVariantExperiment(100)
	zeroWeights.Variants[0].Weight = 0
	zeroWeights.Variants[1].Weight = 0
	if got := bucket.Assign(zeroWeights, visitor); got != nil {
		t.Errorf("all-zero weights: expected nil, got %v", got.ID)
	}

	if got := bucket.Assign(nil, visitor); got != nil {
		t.Errorf("nil experiment: expected nil, got %v", got.ID)
	}

	if got := bucket.Assign(twoVariantExperiment(100), experiment.Visitor{}); got != nil {
		t.Errorf("empty identity: expected nil, got %v", got.ID)
	}
}

func TestAssign_ZeroAllocationEnrollsNobody(t *testing.T) {
	exp := twoVariantExperiment(0)
	for i := 0; i < 500; i++ {
		v := experiment.Visitor{SessionID: fmt.Sprintf("sess_%d", i)}
		if got := bucket.Assign(exp, v); got != nil {
			t.Fatalf("allocation=0 enrolled visitor %d into %s", i, got.ID)
		}
	}
}

func TestAssign_PartialWeightsFallBackToControl(t *testing.T) {
	// Total weight 40 < 100: any variant bucket >= 40 falls through the
	// walk and lands on the control.
	exp := &experiment.Experiment{
		ID:         "partial",
		Status:     experiment.StatusRunning,
		Allocation: 100,
		Variants: []experiment.Variant{
			{ID: "A", Weight: 30},
			{ID: "B", Weight: 10, IsControl: true},
		},
	}

	checkedFallback := false
	for i := 0; i < 2000; i++ {
		v := experiment.Visitor{SessionID: fmt.Sprintf("sess_%d", i)}
		got := bucket.Assign(exp, v)
		if got == nil {
			t.Fatalf("allocation=100 must always assign, visitor %d got nil", i)
		}
		vb := bucket.VariantBucket(exp.ID, v.HashKey())
		switch {
		case vb < 30 && got.ID != "A":
			t.Fatalf("bucket %d should select A, got %s", vb, got.ID)
		case vb >= 30 && vb < 40 && got.ID != "B":
			t.Fatalf("bucket %d should select B, got %s", vb, got.ID)
		case vb >= 40:
			if got.ID != "B" {
				t.Fatalf("bucket %d should fall back to control B, got %s", vb, got.ID)
			}
			checkedFallback = true
		}
	}
	if !checkedFallback {
		t.Fatal("no visitor exercised the fallback path")
	}
}

func TestAssign_PartialWeightsWithoutControlFallBackToFirst(t *testing.T) {
	exp := &experiment.Experiment{
		ID:         "partial2",
		Status:     experiment.StatusRunning,
		Allocation: 100,
		Variants: []experiment.Variant{
			{ID: "A", Weight: 20},
			{ID: "B", Weight: 20},
		},
	}
	for i := 0; i < 2000; i++ {
		v := experiment.Visitor{SessionID: fmt.Sprintf("sess_%d", i)}
		got := bucket.Assign(exp, v)
		if got == nil {
			t.Fatalf("visitor %d got nil", i)
		}
		if vb := bucket.VariantBucket(exp.ID, v.HashKey()); vb >= 40 && got.ID != "A" {
			t.Fatalf("bucket %d without control should fall back to first variant, got %s", vb, got.ID)
		}
	}
}

func TestAssign_AllocationBound(t *testing.T) {
	if testing.Short() {
		t.Skip("distribution test")
	}

	exp := twoVariantExperiment(30)
	gen := testkit.NewTrafficGenerator(42)
	visitors := gen.Visitors(100000)

	dist := testkit.AssignmentDistribution(exp, visitors)
	enrolled := dist["A"] + dist["B"]
	got := float64(enrolled) / float64(len(visitors)) * 100

	if math.Abs(got-30) > 2.5 {
		t.Errorf("allocation=30 enrolled %.2f%%, want 30%% within sampling error", got)
	}
}

func TestAssign_WeightProportionality(t *testing.T) {
	if testing.Short() {
		t.Skip("distribution test")
	}

	exp := &experiment.Experiment{
		ID:         "weights",
		Status:     experiment.StatusRunning,
		Allocation: 100,
		Variants: []experiment.Variant{
			{ID: "A", Weight: 50, IsControl: true},
			{ID: "B", Weight: 30},
			{ID: "C", Weight: 20},
		},
	}

	gen := testkit.NewTrafficGenerator(7)
	visitors := gen.Visitors(100000)
	dist := testkit.AssignmentDistribution(exp, visitors)

	if dist[""] != 0 {
		t.Fatalf("allocation=100 left %d visitors unenrolled", dist[""])
	}

	want := map[string]float64{"A": 50, "B": 30, "C": 20}
	for id, expected := range want {
		got := float64(dist[id]) / float64(len(visitors)) * 100
		if math.Abs(got-expected) > 2.5 {
			t.Errorf("variant %s: got %.2f%%, want %.0f%% within sampling error", id, got, expected)
		}
	}
}
