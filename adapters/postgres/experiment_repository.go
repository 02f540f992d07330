// Package postgres implements the experiment repository and event store on
// PostgreSQL via sqlx. Variant, targeting, and metric substructures are
// stored as JSONB: they are immutable parts of the experiment definition
// and are never queried independently.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"gosplit/domain/experiment"
	"gosplit/domain/targeting"
	apperrors "gosplit/internal/errors"
	"gosplit/ports"
)

// ExperimentRepository implements ports.ExperimentRepository for PostgreSQL.
type ExperimentRepository struct {
	db *sqlx.DB
}

// NewExperimentRepository creates a PostgreSQL experiment repository.
func NewExperimentRepository(db *sqlx.DB) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

var _ ports.ExperimentRepository = (*ExperimentRepository)(nil)

type experimentRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	Variants    []byte         `db:"variants"`
	Targeting   []byte         `db:"targeting"`
	Allocation  int            `db:"allocation"`
	Metrics     []byte         `db:"metrics"`
	StartAt     *time.Time     `db:"start_at"`
	EndAt       *time.Time     `db:"end_at"`
	Winner      sql.NullString `db:"winner_variant_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

const experimentColumns = `id, name, description, status, variants, targeting, allocation, metrics, start_at, end_at, winner_variant_id, created_at, updated_at`

// GetExperiment returns the current definition for an experiment ID.
func (r *ExperimentRepository) GetExperiment(ctx context.Context, id string) (*experiment.Experiment, error) {
	var row experimentRow
	err := r.db.GetContext(ctx, &row, `
		SELECT `+experimentColumns+`
		FROM experiments
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ExperimentNotFound(id)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("loading experiment", err)
	}
	return rowToExperiment(&row)
}

// SaveExperiment validates and upserts an experiment definition.
func (r *ExperimentRepository) SaveExperiment(ctx context.Context, exp *experiment.Experiment) error {
	if err := exp.Validate(); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	variants, err := json.Marshal(exp.Variants)
	if err != nil {
		return apperrors.Wrap(err, "marshaling variants")
	}
	metrics, err := json.Marshal(exp.Metrics)
	if err != nil {
		return apperrors.Wrap(err, "marshaling metrics")
	}
	var targetingJSON any
	if exp.Targeting != nil {
		targetingJSON, err = json.Marshal(exp.Targeting)
		if err != nil {
			return apperrors.Wrap(err, "marshaling targeting")
		}
	}
	var winner any
	if exp.WinnerVariantID != "" {
		winner = exp.WinnerVariantID
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO experiments (id, name, description, status, variants, targeting, allocation, metrics, start_at, end_at, winner_variant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			variants = EXCLUDED.variants,
			targeting = EXCLUDED.targeting,
			allocation = EXCLUDED.allocation,
			metrics = EXCLUDED.metrics,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			winner_variant_id = EXCLUDED.winner_variant_id,
			updated_at = NOW()
	`, exp.ID, exp.Name, exp.Description, exp.Status, variants, targetingJSON, exp.Allocation, metrics, exp.StartAt, exp.EndAt, winner)
	if err != nil {
		return apperrors.DatabaseError("saving experiment", err)
	}
	return nil
}

// ListByStatus returns experiments in the given lifecycle status.
func (r *ExperimentRepository) ListByStatus(ctx context.Context, status experiment.Status) ([]*experiment.Experiment, error) {
	var rows []experimentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+experimentColumns+`
		FROM experiments
		WHERE status = $1
		ORDER BY created_at
	`, status)
	if err != nil {
		return nil, apperrors.DatabaseError("listing experiments", err)
	}

	out := make([]*experiment.Experiment, 0, len(rows))
	for i := range rows {
		exp, err := rowToExperiment(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, nil
}

// UpdateStatus transitions an experiment's lifecycle status, enforcing the
// state machine against the currently stored status.
func (r *ExperimentRepository) UpdateStatus(ctx context.Context, id string, status experiment.Status) error {
	exp, err := r.GetExperiment(ctx, id)
	if err != nil {
		return err
	}
	if !exp.Status.CanTransitionTo(status) {
		return apperrors.InvalidTransition(string(exp.Status), string(status))
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE experiments SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return apperrors.DatabaseError("updating experiment status", err)
	}
	return nil
}

// DeclareWinner records the winning variant on a completed experiment.
func (r *ExperimentRepository) DeclareWinner(ctx context.Context, id, variantID string) error {
	exp, err := r.GetExperiment(ctx, id)
	if err != nil {
		return err
	}
	if exp.Variant(variantID) == nil {
		return apperrors.VariantNotFound(id, variantID)
	}
	if exp.Status != experiment.StatusCompleted {
		return apperrors.InvalidTransition(string(exp.Status), "winner declaration requires completed status")
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE experiments SET winner_variant_id = $2, updated_at = NOW() WHERE id = $1
	`, id, variantID)
	if err != nil {
		return apperrors.DatabaseError("declaring winner", err)
	}
	return nil
}

func rowToExperiment(row *experimentRow) (*experiment.Experiment, error) {
	exp := &experiment.Experiment{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Status:      experiment.Status(row.Status),
		Allocation:  row.Allocation,
		StartAt:     row.StartAt,
		EndAt:       row.EndAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.Winner.Valid {
		exp.WinnerVariantID = row.Winner.String
	}
	if len(row.Variants) > 0 {
		if err := json.Unmarshal(row.Variants, &exp.Variants); err != nil {
			return nil, apperrors.Wrap(err, "unmarshaling variants")
		}
	}
	if len(row.Metrics) > 0 {
		if err := json.Unmarshal(row.Metrics, &exp.Metrics); err != nil {
			return nil, apperrors.Wrap(err, "unmarshaling metrics")
		}
	}
	if len(row.Targeting) > 0 {
		var t targeting.Targeting
		if err := json.Unmarshal(row.Targeting, &t); err != nil {
			return nil, apperrors.Wrap(err, "unmarshaling targeting")
		}
		exp.Targeting = &t
	}
	return exp, nil
}
