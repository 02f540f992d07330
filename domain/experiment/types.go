package experiment

import (
	"time"

	"gosplit/domain/core"
	"gosplit/domain/targeting"
)

// Status represents the lifecycle state of an experiment
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Experiment represents a configured A/B test. Experiment and variant IDs
// are caller-chosen strings (slugs) because they participate directly in
// bucket hashing and must be stable across systems.
type Experiment struct {
	ID          string               `json:"id" db:"id"`
	Name        string               `json:"name" db:"name"`
	Description string               `json:"description,omitempty" db:"description"`
	Status      Status               `json:"status" db:"status"`
	Variants    []Variant            `json:"variants"`
	Targeting   *targeting.Targeting `json:"targeting,omitempty"`
	// Allocation is the percentage (0-100) of targeting-matched visitors
	// enrolled in the experiment at all.
	Allocation int        `json:"allocation" db:"allocation"`
	Metrics    []Metric   `json:"metrics,omitempty"`
	StartAt    *time.Time `json:"start_at,omitempty" db:"start_at"`
	EndAt      *time.Time `json:"end_at,omitempty" db:"end_at"`
	// WinnerVariantID carries the declared winner once the experiment
	// completes; empty until then.
	WinnerVariantID string    `json:"winner_variant_id,omitempty" db:"winner_variant_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Variant represents one arm of an experiment. Weight is a relative traffic
// share over the enrolled population; weights need not sum to 100.
type Variant struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Weight    int            `json:"weight"`
	IsControl bool           `json:"is_control"`
	Config    map[string]any `json:"config,omitempty"`
}

// Metric names a measurable goal of the experiment. Exactly one metric is
// conventionally marked primary; the engine does not enforce it.
type Metric struct {
	Name      string `json:"name"`
	IsPrimary bool   `json:"is_primary"`
}

// Visitor is the durable identity an assignment is keyed on. UserID is
// empty for anonymous visitors; SessionID is always present.
type Visitor struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id"`
}

// HashKey returns the identifier used for bucketing. A known user keeps a
// consistent key across sessions and devices; anonymous visitors are keyed
// by session.
func (v Visitor) HashKey() string {
	if v.UserID != "" {
		return v.UserID
	}
	return v.SessionID
}

// Event kinds reported through the event pipeline.
const (
	EventExposure   = "exposure"
	EventConversion = "conversion"
)

// Event records that a visitor was exposed to a variant or completed the
// experiment's goal action.
type Event struct {
	ID           core.EventID      `json:"id" db:"id"`
	ExperimentID string            `json:"experiment_id" db:"experiment_id"`
	VariantID    string            `json:"variant_id" db:"variant_id"`
	Name         string            `json:"name" db:"name"`
	Value        float64           `json:"value,omitempty" db:"value"`
	UserID       string            `json:"user_id,omitempty" db:"user_id"`
	SessionID    string            `json:"session_id" db:"session_id"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Timestamp    time.Time         `json:"timestamp" db:"timestamp"`
}

// TotalWeight returns the sum of all variant weights.
func (e *Experiment) TotalWeight() int {
	total := 0
	for i := range e.Variants {
		total += e.Variants[i].Weight
	}
	return total
}

// Variant returns the variant with the given ID, or nil.
func (e *Experiment) Variant(id string) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i]
		}
	}
	return nil
}

// Control returns the variant flagged as control, or nil.
func (e *Experiment) Control() *Variant {
	for i := range e.Variants {
		if e.Variants[i].IsControl {
			return &e.Variants[i]
		}
	}
	return nil
}

// PrimaryMetric returns the metric marked primary, or the first metric, or nil.
func (e *Experiment) PrimaryMetric() *Metric {
	for i := range e.Metrics {
		if e.Metrics[i].IsPrimary {
			return &e.Metrics[i]
		}
	}
	if len(e.Metrics) > 0 {
		return &e.Metrics[0]
	}
	return nil
}

// HasAssignableVariants reports whether the variant set can produce an
// assignment at all. An experiment with zero variants or an all-zero total
// weight is invalid and must be treated as "no variant available".
func (e *Experiment) HasAssignableVariants() bool {
	return len(e.Variants) > 0 && e.TotalWeight() > 0
}
