package ports

import (
	"context"

	"gosplit/domain/experiment"
)

// AssignmentCache is the durable per-visitor store of sticky assignments.
// Entries are scoped by the visitor explicitly, which is why the visitor
// appears in every call. The backing store is opaque to the core.
//
// Cache failures must never fail an assignment: callers log and fall back
// to recomputation, which is deterministic and cheap.
type AssignmentCache interface {
	// Get returns the cached variant ID for (visitor, experiment), with
	// ok=false when absent.
	Get(ctx context.Context, visitor experiment.Visitor, experimentID string) (variantID string, ok bool, err error)

	// Set records an assignment.
	Set(ctx context.Context, visitor experiment.Visitor, experimentID, variantID string) error

	// Remove drops the cached assignment for one experiment. Used when a
	// cached entry is observed stale (experiment no longer running).
	Remove(ctx context.Context, visitor experiment.Visitor, experimentID string) error

	// ClearAll drops every cached assignment for the visitor.
	ClearAll(ctx context.Context, visitor experiment.Visitor) error
}
