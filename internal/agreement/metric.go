package agreement

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Metric names a disagreement distance between category indices.
type Metric string

// Supported metrics.
const (
	Nominal  Metric = "nominal"
	Ordinal  Metric = "ordinal"
	Interval Metric = "interval"
	Ratio    Metric = "ratio"
	Circular Metric = "circular"
)

// Metrics lists every supported metric.
var Metrics = []Metric{Nominal, Ordinal, Interval, Ratio, Circular}

// ParseMetric resolves a metric name, case-insensitively.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	switch m {
	case Nominal, Ordinal, Interval, Ratio, Circular:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// NominalDistance counts any mismatch as 1.
func NominalDistance(a, b int) float64 {
	if a == b {
		return 0
	}
	return 1
}

// IntervalDistance is the squared index difference.
func IntervalDistance(a, b int) float64 {
	if a == b {
		return 0
	}
	d := float64(a - b)
	return d * d
}

// RatioDistance is ((a−b)/(a+b))².
func RatioDistance(a, b int) float64 {
	if a == b {
		return 0
	}
	d := float64(a-b) / float64(a+b)
	return d * d
}

// OrdinalDistance sums the marginals strictly between a and b plus the mean of the
// marginals at a and b, squared. It is symmetric in a and b.
func OrdinalDistance(a, b int, marginals []float64) float64 {
	if a == b {
		return 0
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	var between float64
	for g := lo + 1; g < hi; g++ {
		between += marginals[g]
	}
	d := between + (marginals[lo]+marginals[hi])/2
	return d * d
}

// CircularDistance is sin²(180°·(a−b)/cycle), the angle taken in degrees.
// The sine is squared, so the distance is never negative and is symmetric in a and b.
func CircularDistance(a, b int, cycle float64) float64 {
	if a == b {
		return 0
	}
	deg := 180 * float64(a-b) / cycle
	s := math.Sin(deg * math.Pi / 180)
	return s * s
}

// MetricTable applies metric to every pair of k category indices. marginals is
// required for Ordinal; cycle is used by Circular and defaults to k when not positive.
func MetricTable(k int, metric Metric, marginals []float64, cycle float64) (*mat.Dense, error) {
	var dist func(a, b int) float64
	switch metric {
	case Nominal:
		dist = NominalDistance
	case Interval:
		dist = IntervalDistance
	case Ratio:
		dist = RatioDistance
	case Ordinal:
		if len(marginals) != k {
			return nil, fmt.Errorf("ordinal metric needs %d marginals, got %d", k, len(marginals))
		}
		dist = func(a, b int) float64 { return OrdinalDistance(a, b, marginals) }
	case Circular:
		if cycle <= 0 {
			cycle = float64(k)
		}
		dist = func(a, b int) float64 { return CircularDistance(a, b, cycle) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, string(metric))
	}
	table := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			table.Set(i, j, dist(i, j))
		}
	}
	return table, nil
}

// ExpectedTable is the outer product of margins with itself.
func ExpectedTable(margins []float64) *mat.Dense {
	v := mat.NewVecDense(len(margins), append([]float64(nil), margins...))
	var e mat.Dense
	e.Outer(1, v, v)
	return &e
}
