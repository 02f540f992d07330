package stats

import (
	"math"
	"testing"
)

func TestConversionRate(t *testing.T) {
	tests := []struct {
		conversions, participants int
		want                      float64
	}{
		{25, 100, 25.0},
		{1, 3, 33.33},
		{0, 100, 0},
		{0, 0, 0},
		{100, 100, 100.0},
	}
	for _, tt := range tests {
		if got := ConversionRate(tt.conversions, tt.participants); got != tt.want {
			t.Errorf("ConversionRate(%d, %d) = %v, want %v", tt.conversions, tt.participants, got, tt.want)
		}
	}
}

func TestUplift(t *testing.T) {
	tests := []struct {
		control, variant float64
		want             float64
	}{
		{10, 12, 20.0},
		{10, 8, -20.0},
		{10, 10, 0},
		{0, 5, 0},
	}
	for _, tt := range tests {
		if got := Uplift(tt.control, tt.variant); got != tt.want {
			t.Errorf("Uplift(%v, %v) = %v, want %v", tt.control, tt.variant, got, tt.want)
		}
	}
}

func TestSignificance_KnownValue(t *testing.T) {
	// 10% vs 20% over 100 participants each: z is approximately 1.98, which
	// rounds to 95% two-tailed confidence.
	if got := Significance(10, 100, 20, 100); got != 95 {
		t.Errorf("Significance(10,100,20,100) = %v, want 95", got)
	}
}

func TestSignificance_Guards(t *testing.T) {
	if got := Significance(10, 0, 20, 100); got != 0 {
		t.Errorf("empty control sample: got %v, want 0", got)
	}
	if got := Significance(10, 100, 20, 0); got != 0 {
		t.Errorf("empty variant sample: got %v, want 0", got)
	}
	if got := Significance(0, 100, 0, 100); got != 0 {
		t.Errorf("zero pooled rate: got %v, want 0", got)
	}
	if got := Significance(100, 100, 100, 100); got != 0 {
		t.Errorf("unit pooled rate: got %v, want 0", got)
	}
}

func TestSignificance_GrowsWithSampleSize(t *testing.T) {
	// The same observed rates become more convincing as samples grow.
	small := Significance(10, 100, 13, 100)
	large := Significance(1000, 10000, 1300, 10000)
	if large <= small {
		t.Errorf("confidence must grow with sample size: small=%v large=%v", small, large)
	}
	if large != 100 {
		t.Errorf("10k-per-arm sample at 10%% vs 13%% should saturate: got %v", large)
	}
}

func TestSignificance_SymmetricInDirection(t *testing.T) {
	up := Significance(10, 100, 20, 100)
	down := Significance(20, 100, 10, 100)
	if up != down {
		t.Errorf("two-tailed test must ignore direction: %v vs %v", up, down)
	}
}

func TestIsSignificant(t *testing.T) {
	if !IsSignificant(95, DefaultSignificanceThreshold) {
		t.Error("95 must clear the default threshold")
	}
	if IsSignificant(94, DefaultSignificanceThreshold) {
		t.Error("94 must not clear the default threshold")
	}
}

func TestRequiredSampleSize_KnownValue(t *testing.T) {
	// 10% baseline, +20% relative effect at 95/80.
	n, err := RequiredSampleSize(10, 20, 95, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3837 {
		t.Errorf("RequiredSampleSize(10, 20, 95, 80) = %d, want 3837", n)
	}
}

func TestRequiredSampleSize_StricterOperatingPointsNeedMore(t *testing.T) {
	base, err := RequiredSampleSize(10, 20, 95, 80)
	if err != nil {
		t.Fatal(err)
	}
	strict, err := RequiredSampleSize(10, 20, 99, 90)
	if err != nil {
		t.Fatal(err)
	}
	if strict <= base {
		t.Errorf("99/90 must require more than 95/80: %d vs %d", strict, base)
	}
}

func TestRequiredSampleSize_ZeroEffect(t *testing.T) {
	if _, err := RequiredSampleSize(10, 0, 95, 80); err == nil {
		t.Error("zero effect must be an error")
	}
	if _, err := RequiredSampleSize(0, 20, 95, 80); err == nil {
		t.Error("zero baseline leaves the target rate unchanged and must be an error")
	}
}

func TestNormalCDF_ReferencePoints(t *testing.T) {
	tests := []struct {
		z, want float64
	}{
		{0, 0.5},
		{1.96, 0.9750},
		{2.58, 0.9951},
		{-1.96, 0.0250},
	}
	for _, tt := range tests {
		if got := normalCDF(tt.z); math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("normalCDF(%v) = %v, want %v within 1e-4", tt.z, got, tt.want)
		}
	}
}
