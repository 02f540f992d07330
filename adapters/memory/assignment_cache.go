package memory

import (
	"context"
	"sync"

	"gosplit/domain/experiment"
	"gosplit/ports"
)

// AssignmentCache is a thread-safe in-memory sticky-assignment store,
// keyed by visitor hash key and experiment ID.
type AssignmentCache struct {
	mu sync.RWMutex
	// visitor hash key -> experiment ID -> variant ID
	entries map[string]map[string]string
}

// NewAssignmentCache creates an empty cache.
func NewAssignmentCache() *AssignmentCache {
	return &AssignmentCache{entries: make(map[string]map[string]string)}
}

var _ ports.AssignmentCache = (*AssignmentCache)(nil)

// Get returns the cached variant for (visitor, experiment).
func (c *AssignmentCache) Get(ctx context.Context, visitor experiment.Visitor, experimentID string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byExp, ok := c.entries[visitor.HashKey()]
	if !ok {
		return "", false, nil
	}
	variantID, ok := byExp[experimentID]
	return variantID, ok, nil
}

// Set records an assignment.
func (c *AssignmentCache) Set(ctx context.Context, visitor experiment.Visitor, experimentID, variantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := visitor.HashKey()
	if c.entries[key] == nil {
		c.entries[key] = make(map[string]string)
	}
	c.entries[key][experimentID] = variantID
	return nil
}

// Remove drops the cached assignment for one experiment.
func (c *AssignmentCache) Remove(ctx context.Context, visitor experiment.Visitor, experimentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if byExp, ok := c.entries[visitor.HashKey()]; ok {
		delete(byExp, experimentID)
	}
	return nil
}

// ClearAll drops every cached assignment for the visitor.
func (c *AssignmentCache) ClearAll(ctx context.Context, visitor experiment.Visitor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, visitor.HashKey())
	return nil
}
