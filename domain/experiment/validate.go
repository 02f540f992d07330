package experiment

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of an experiment definition.
// Weights must be non-negative; a running experiment must have at least one
// variant with positive total weight. Draft experiments may be incomplete.
func (e *Experiment) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("experiment ID is required")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("unknown experiment status %q", e.Status)
	}
	if e.Allocation < 0 || e.Allocation > 100 {
		return fmt.Errorf("allocation must be in [0,100], got %d", e.Allocation)
	}

	seen := make(map[string]bool, len(e.Variants))
	for i := range e.Variants {
		v := &e.Variants[i]
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("variant %d: ID is required", i)
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate variant ID %q", v.ID)
		}
		seen[v.ID] = true
		if v.Weight < 0 {
			return fmt.Errorf("variant %q: weight must be non-negative, got %d", v.ID, v.Weight)
		}
	}

	if e.Status != StatusDraft && !e.HasAssignableVariants() {
		return fmt.Errorf("experiment %q has no assignable variants", e.ID)
	}

	if e.StartAt != nil && e.EndAt != nil && e.EndAt.Before(*e.StartAt) {
		return fmt.Errorf("end date precedes start date")
	}

	if e.WinnerVariantID != "" && e.Variant(e.WinnerVariantID) == nil {
		return fmt.Errorf("declared winner %q is not a variant of experiment %q", e.WinnerVariantID, e.ID)
	}

	return nil
}
