package stats

import (
	"math"
	"sort"
)

// Sorted returns a sorted copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-th quantile of an ascending slice using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// SampleStd returns the sample standard deviation (n-1 denominator) computed
// with Welford's update. ok is false for fewer than two values.
func SampleStd(vals []float64) (std float64, ok bool) {
	if len(vals) < 2 {
		return 0, false
	}
	var n int
	var mean, m2 float64
	for _, x := range vals {
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	return math.Sqrt(m2 / float64(n-1)), true
}

// centralMoments returns the population central moments m2, m3, m4.
func centralMoments(vals []float64) (m2, m3, m4 float64) {
	mean := Mean(vals)
	n := float64(len(vals))
	for _, v := range vals {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	return m2 / n, m3 / n, m4 / n
}

// Skewness returns the bias-corrected sample skewness (G1). It needs at
// least three values; a constant series yields 0.
func Skewness(vals []float64) (float64, bool) {
	n := float64(len(vals))
	if len(vals) < 3 {
		return 0, false
	}
	m2, m3, _ := centralMoments(vals)
	if m2 == 0 {
		return 0, true
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return math.Sqrt(n*(n-1)) / (n - 2) * g1, true
}

// Kurtosis returns the bias-corrected excess kurtosis (G2). It needs at
// least four values; a constant series yields 0.
func Kurtosis(vals []float64) (float64, bool) {
	n := float64(len(vals))
	if len(vals) < 4 {
		return 0, false
	}
	m2, _, m4 := centralMoments(vals)
	if m2 == 0 {
		return 0, true
	}
	g2 := m4/(m2*m2) - 3
	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3)), true
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := Sorted(vals)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// IQRFences returns the Tukey fences [Q1 - k*IQR, Q3 + k*IQR] of an
// ascending slice.
func IQRFences(sorted []float64, k float64) (lo, hi float64) {
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// CountOutside counts values strictly outside [lo, hi].
func CountOutside(vals []float64, lo, hi float64) int {
	var n int
	for _, v := range vals {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100.0 / float64(whole)
}
