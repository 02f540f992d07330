// Package stats holds the pure numeric analysis of experiment outcomes:
// conversion rates, uplift, two-proportion z-test significance, and
// required sample sizes. No I/O; counts are supplied by the caller.
package stats

import (
	"fmt"
	"math"
)

// DefaultSignificanceThreshold is the confidence level (percent) above
// which a result is conventionally called significant.
const DefaultSignificanceThreshold = 95

// ConversionRate returns conversions/participants as a percentage rounded
// to two decimal places. Zero participants yields 0. Negative counts are a
// programmer error; validation happens at the results-assembly boundary,
// not on this hot path.
func ConversionRate(conversions, participants int) float64 {
	if participants == 0 {
		return 0
	}
	return round2(float64(conversions) / float64(participants) * 100)
}

// Uplift returns the relative percentage change of a variant rate over the
// control rate, rounded to two decimal places. A zero control rate yields 0.
func Uplift(controlRate, variantRate float64) float64 {
	if controlRate == 0 {
		return 0
	}
	return round2((variantRate - controlRate) / controlRate * 100)
}

// Significance runs a two-proportion z-test over control and variant counts
// and returns the two-tailed confidence level as an integer-rounded
// percentage in [0,100]. Empty samples, or any configuration with a zero
// pooled standard error, return 0.
func Significance(controlConversions, controlParticipants, variantConversions, variantParticipants int) float64 {
	if controlParticipants <= 0 || variantParticipants <= 0 {
		return 0
	}

	n1 := float64(controlParticipants)
	n2 := float64(variantParticipants)
	p1 := float64(controlConversions) / n1
	p2 := float64(variantConversions) / n2

	pooled := (float64(controlConversions) + float64(variantConversions)) / (n1 + n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if se == 0 {
		return 0
	}

	z := (p2 - p1) / se
	confidence := (1 - 2*(1-normalCDF(math.Abs(z)))) * 100
	return math.Round(confidence)
}

// IsSignificant reports whether a confidence level clears the threshold.
func IsSignificant(confidenceLevel, threshold float64) bool {
	return confidenceLevel >= threshold
}

// RequiredSampleSize returns the minimum participants per arm needed to
// detect minimumDetectableEffect (relative percent change over
// baselineRate, itself a percentage) at the given confidence and power
// operating points. Only the two common operating points per axis are
// supported (95/99 confidence, 80/90 power) via fixed z-multipliers;
// anything else falls back to 95/80. This discrete lookup is deliberate:
// generalizing it to an inverse-normal computation would silently change
// recommended sample sizes.
//
// Undefined for zero effect: a minimumDetectableEffect that leaves the
// target rate equal to the baseline returns an error.
func RequiredSampleSize(baselineRate, minimumDetectableEffect float64, confidenceLevel, power int) (int, error) {
	p1 := baselineRate / 100
	p2 := p1 * (1 + minimumDetectableEffect/100)
	if p2 == p1 {
		return 0, fmt.Errorf("sample size is undefined for zero effect (baseline %.4f%%, mde %.4f%%)", baselineRate, minimumDetectableEffect)
	}

	zAlpha := 1.96 // 95% confidence
	if confidenceLevel == 99 {
		zAlpha = 2.58
	}
	zBeta := 0.84 // 80% power
	if power == 90 {
		zBeta = 1.28
	}

	pAvg := (p1 + p2) / 2
	numerator := zAlpha*math.Sqrt(2*pAvg*(1-pAvg)) + zBeta*math.Sqrt(p1*(1-p1)+p2*(1-p2))
	n := (numerator * numerator) / ((p2 - p1) * (p2 - p1))
	return int(math.Ceil(n)), nil
}

// normalCDF approximates the standard normal CDF via the Abramowitz-Stegun
// 7.1.26 rational erf approximation (absolute error < 1.5e-7). The exact
// coefficients are part of the engine's contract: results must reproduce
// reference confidence values bit-for-bit within rounding.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + erfAS(z/math.Sqrt2))
}

func erfAS(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	t := 1 / (1 + p*x)
	y := 1 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
