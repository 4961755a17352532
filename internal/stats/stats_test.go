package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 100}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 2.25},
		{0.5, 3.5},
		{0.75, 4.75},
		{1, 100},
	}
	for _, tt := range tests {
		if got := Quantile(sorted, tt.q); !almostEqual(got, tt.want, 1e-12) {
			t.Fatalf("Quantile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if got := Quantile(nil, 0.5); got != 0 {
		t.Fatalf("Quantile(nil) = %v", got)
	}
}

func TestIQRFencesAndCount(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 100}
	lo, hi := IQRFences(Sorted(vals), 1.5)
	if !almostEqual(lo, -1.5, 1e-12) || !almostEqual(hi, 8.5, 1e-12) {
		t.Fatalf("fences = [%v, %v], want [-1.5, 8.5]", lo, hi)
	}
	if n := CountOutside(vals, lo, hi); n != 1 {
		t.Fatalf("outliers = %d, want 1", n)
	}
}

func TestSampleStd(t *testing.T) {
	if _, ok := SampleStd([]float64{3}); ok {
		t.Fatalf("expected undefined std for a single value")
	}
	std, ok := SampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !ok || !almostEqual(std, 2.138089935, 1e-8) {
		t.Fatalf("std = %v ok=%v", std, ok)
	}
}

func TestSkewnessKurtosis(t *testing.T) {
	if _, ok := Skewness([]float64{1, 2}); ok {
		t.Fatalf("skewness needs three values")
	}
	if _, ok := Kurtosis([]float64{1, 2, 3}); ok {
		t.Fatalf("kurtosis needs four values")
	}
	s, ok := Skewness([]float64{1, 2, 3, 4, 5})
	if !ok || !almostEqual(s, 0, 1e-12) {
		t.Fatalf("symmetric skewness = %v", s)
	}
	k, ok := Kurtosis([]float64{1, 2, 3, 4, 5})
	if !ok || !almostEqual(k, -1.2, 1e-9) {
		t.Fatalf("kurtosis = %v, want -1.2", k)
	}
	s, ok = Skewness([]float64{7, 7, 7})
	if !ok || s != 0 {
		t.Fatalf("constant skewness = %v", s)
	}
}

func TestMedianMAD(t *testing.T) {
	median, mad := MedianMAD([]float64{1, 1, 2, 2, 4, 6, 9})
	if median != 2 || mad != 1 {
		t.Fatalf("median=%v mad=%v, want 2 and 1", median, mad)
	}
}

func TestRound2AndPercent(t *testing.T) {
	if got := Round2(66.666666); got != 66.67 {
		t.Fatalf("Round2 = %v", got)
	}
	if got := Percent(1, 0); got != 0 {
		t.Fatalf("Percent with zero whole = %v", got)
	}
	if got := Percent(19, 20); got != 95 {
		t.Fatalf("Percent = %v", got)
	}
}
