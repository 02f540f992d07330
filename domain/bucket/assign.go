package bucket

import (
	"gosplit/domain/experiment"
)

// Assign returns the variant deterministically selected for the visitor, or
// nil when the visitor is not enrolled. Repeated calls with the same
// experiment ID, identifier, and variant set always yield the same variant;
// this is the property that gives a visitor session-long consistency
// without server-side state.
//
// Not enrolled (nil) when: the experiment is not running, it has no
// assignable variants (zero variants or all-zero weights), or the
// visitor's allocation bucket falls outside the traffic allocation.
func Assign(exp *experiment.Experiment, visitor experiment.Visitor) *experiment.Variant {
	if exp == nil || !exp.Status.Assignable() {
		return nil
	}
	if !exp.HasAssignableVariants() {
		return nil
	}

	identifier := visitor.HashKey()
	if identifier == "" {
		return nil
	}

	if AllocationBucket(exp.ID, identifier) >= exp.Allocation {
		return nil
	}

	// Walk variants in defined order over raw weights. Weights need not sum
	// to 100: a variant bucket past the total weight falls through to the
	// control/first fallback.
	vb := VariantBucket(exp.ID, identifier)
	cumulative := 0
	for i := range exp.Variants {
		cumulative += exp.Variants[i].Weight
		if vb < cumulative {
			return &exp.Variants[i]
		}
	}

	if control := exp.Control(); control != nil {
		return control
	}
	return &exp.Variants[0]
}
