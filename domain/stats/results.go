package stats

import (
	"fmt"
	"time"

	"gosplit/domain/experiment"

	mstats "github.com/montanaflynn/stats"
)

// VariantCounts carries externally aggregated exposure/conversion counts
// for one variant.
type VariantCounts struct {
	VariantID    string `json:"variant_id" db:"variant_id"`
	Participants int    `json:"participants" db:"participants"`
	Conversions  int    `json:"conversions" db:"conversions"`
}

// VariantResult is the derived per-variant read of an experiment.
type VariantResult struct {
	VariantID      string  `json:"variant_id"`
	Name           string  `json:"name"`
	IsControl      bool    `json:"is_control"`
	Participants   int     `json:"participants"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	// Uplift is the relative rate change vs control, in percent. Zero for
	// the control itself.
	Uplift float64 `json:"uplift"`
	// Confidence is the two-tailed z-test confidence vs control, 0-100.
	Confidence  float64 `json:"confidence"`
	Significant bool    `json:"significant"`
}

// ExperimentResults is the aggregated, derived view fed to the results
// surface. It is produced from supplied counts, never mutated by the core.
type ExperimentResults struct {
	ExperimentID      string          `json:"experiment_id"`
	TotalParticipants int             `json:"total_participants"`
	Variants          []VariantResult `json:"variants"`
	// RecommendedWinner is the non-control variant with the highest
	// conversion rate among significant positive results; empty when no
	// variant clears the threshold.
	RecommendedWinner string    `json:"recommended_winner,omitempty"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// BuildResults assembles experiment results from per-variant counts.
// Variants without counts read as zero. Negative counts are a programmer
// error and fail loudly here, at the boundary, rather than being clamped.
func BuildResults(exp *experiment.Experiment, counts []VariantCounts) (*ExperimentResults, error) {
	if exp == nil {
		return nil, fmt.Errorf("experiment is required")
	}

	byVariant := make(map[string]VariantCounts, len(counts))
	for _, c := range counts {
		if c.Participants < 0 || c.Conversions < 0 {
			return nil, fmt.Errorf("variant %q: negative counts (participants=%d conversions=%d)", c.VariantID, c.Participants, c.Conversions)
		}
		byVariant[c.VariantID] = c
	}

	results := &ExperimentResults{
		ExperimentID: exp.ID,
		Variants:     make([]VariantResult, 0, len(exp.Variants)),
		GeneratedAt:  time.Now().UTC(),
	}

	var control *VariantCounts
	if cv := exp.Control(); cv != nil {
		c := byVariant[cv.ID]
		control = &c
	}

	controlRate := 0.0
	if control != nil {
		controlRate = ConversionRate(control.Conversions, control.Participants)
	}

	bestRate := 0.0
	for i := range exp.Variants {
		v := &exp.Variants[i]
		c := byVariant[v.ID]
		results.TotalParticipants += c.Participants

		vr := VariantResult{
			VariantID:      v.ID,
			Name:           v.Name,
			IsControl:      v.IsControl,
			Participants:   c.Participants,
			Conversions:    c.Conversions,
			ConversionRate: ConversionRate(c.Conversions, c.Participants),
		}

		if !v.IsControl && control != nil {
			vr.Uplift = Uplift(controlRate, vr.ConversionRate)
			vr.Confidence = Significance(control.Conversions, control.Participants, c.Conversions, c.Participants)
			vr.Significant = IsSignificant(vr.Confidence, DefaultSignificanceThreshold)

			if vr.Significant && vr.Uplift > 0 && vr.ConversionRate > bestRate {
				bestRate = vr.ConversionRate
				results.RecommendedWinner = v.ID
			}
		}

		results.Variants = append(results.Variants, vr)
	}

	return results, nil
}

// MetricSummary describes the distribution of observed metric values
// (e.g. order totals attached to conversion events) for one variant.
type MetricSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// SummarizeMetric computes descriptive statistics over raw metric values.
// An empty sample returns a zero summary.
func SummarizeMetric(values []float64) MetricSummary {
	if len(values) == 0 {
		return MetricSummary{}
	}

	mean, _ := mstats.Mean(values)
	median, _ := mstats.Median(values)
	stdDev, _ := mstats.StandardDeviation(values)
	min, _ := mstats.Min(values)
	max, _ := mstats.Max(values)
	q25, _ := mstats.Percentile(values, 25)
	q75, _ := mstats.Percentile(values, 75)

	return MetricSummary{
		Count:  len(values),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Q25:    q25,
		Q75:    q75,
	}
}
