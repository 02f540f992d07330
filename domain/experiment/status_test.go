package experiment

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusRunning, true},
		{StatusDraft, StatusArchived, true},
		{StatusDraft, StatusPaused, false},
		{StatusDraft, StatusCompleted, false},
		{StatusRunning, StatusPaused, true},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusArchived, true},
		{StatusRunning, StatusDraft, false},
		{StatusPaused, StatusRunning, true},
		{StatusPaused, StatusCompleted, true},
		{StatusPaused, StatusDraft, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusArchived, false},
		{StatusArchived, StatusRunning, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusRunning, StatusPaused, StatusCompleted, StatusArchived} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
		if s.Assignable() != (s == StatusRunning) {
			t.Errorf("%s: only running is assignable", s)
		}
		if s.Terminal() != (s == StatusCompleted || s == StatusArchived) {
			t.Errorf("%s: terminal mismatch", s)
		}
	}
	if Status("launched").Valid() {
		t.Error("unknown status must not be valid")
	}
	if Status("launched").CanTransitionTo(StatusRunning) {
		t.Error("unknown status must not transition anywhere")
	}
}
