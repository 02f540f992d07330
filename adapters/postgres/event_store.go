package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"gosplit/domain/experiment"
	"gosplit/domain/stats"
	apperrors "gosplit/internal/errors"
	"gosplit/ports"
)

// EventStore implements ports.EventStore for PostgreSQL.
type EventStore struct {
	db *sqlx.DB
}

// NewEventStore creates a PostgreSQL event store.
func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

var _ ports.EventStore = (*EventStore)(nil)

// SaveEvent appends one event.
func (s *EventStore) SaveEvent(ctx context.Context, ev experiment.Event) error {
	var metadata any
	if len(ev.Metadata) > 0 {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "marshaling event metadata")
		}
		metadata = b
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO experiment_events (id, experiment_id, variant_id, name, value, user_id, session_id, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ev.ID, ev.ExperimentID, ev.VariantID, ev.Name, ev.Value, ev.UserID, ev.SessionID, metadata, ev.Timestamp)
	if err != nil {
		return apperrors.DatabaseError("saving event", err)
	}
	return nil
}

// VariantCounts aggregates distinct-visitor exposure and conversion counts
// per variant. A visitor is keyed by user ID when known, session otherwise,
// mirroring the assignment hash key.
func (s *EventStore) VariantCounts(ctx context.Context, experimentID string) ([]stats.VariantCounts, error) {
	var counts []stats.VariantCounts
	err := s.db.SelectContext(ctx, &counts, `
		SELECT
			variant_id,
			COUNT(DISTINCT COALESCE(NULLIF(user_id, ''), session_id)) FILTER (WHERE name = $2) AS participants,
			COUNT(DISTINCT COALESCE(NULLIF(user_id, ''), session_id)) FILTER (WHERE name = $3) AS conversions
		FROM experiment_events
		WHERE experiment_id = $1
		GROUP BY variant_id
		ORDER BY variant_id
	`, experimentID, experiment.EventExposure, experiment.EventConversion)
	if err != nil {
		return nil, apperrors.DatabaseError("aggregating variant counts", err)
	}
	return counts, nil
}

// EventValues returns raw recorded values per variant for a named event.
func (s *EventStore) EventValues(ctx context.Context, experimentID, eventName string) (map[string][]float64, error) {
	var rows []struct {
		VariantID string  `db:"variant_id"`
		Value     float64 `db:"value"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT variant_id, value
		FROM experiment_events
		WHERE experiment_id = $1 AND name = $2
		ORDER BY timestamp
	`, experimentID, eventName)
	if err != nil {
		return nil, apperrors.DatabaseError("loading event values", err)
	}

	values := make(map[string][]float64)
	for _, row := range rows {
		values[row.VariantID] = append(values[row.VariantID], row.Value)
	}
	return values, nil
}
