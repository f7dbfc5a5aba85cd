package agreement

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"nominal", "Ordinal", " INTERVAL ", "ratio", "circular"} {
		_, err := ParseMetric(name)
		require.NoError(t, err, name)
	}
	_, err := ParseMetric("cosine")
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestDistancesZeroOnDiagonal(t *testing.T) {
	marginals := []float64{1, 2, 3, 4}
	for a := 0; a < 4; a++ {
		assert.Zero(t, NominalDistance(a, a))
		assert.Zero(t, IntervalDistance(a, a))
		assert.Zero(t, RatioDistance(a, a))
		assert.Zero(t, OrdinalDistance(a, a, marginals))
		assert.Zero(t, CircularDistance(a, a, 4))
	}
}

func TestDistances(t *testing.T) {
	assert.Equal(t, 1.0, NominalDistance(0, 3))
	assert.Equal(t, 9.0, IntervalDistance(0, 3))
	assert.Equal(t, 9.0, IntervalDistance(3, 0))
	assert.InDelta(t, 1.0/9.0, RatioDistance(1, 2), 1e-12)
	assert.Equal(t, 1.0, RatioDistance(0, 2))
}

// Ordinal worked example with marginals [1 2 3 4]:
// d(0,3) = (2 + 3 + (1+4)/2)² = 56.25, d(1,2) = (0 + (2+3)/2)² = 6.25, d(0,2) = (2 + (1+3)/2)² = 16.
func TestOrdinalDistanceWorkedExample(t *testing.T) {
	m := []float64{1, 2, 3, 4}
	assert.Equal(t, 56.25, OrdinalDistance(0, 3, m))
	assert.Equal(t, 56.25, OrdinalDistance(3, 0, m))
	assert.Equal(t, 6.25, OrdinalDistance(1, 2, m))
	assert.Equal(t, 16.0, OrdinalDistance(0, 2, m))
	assert.Equal(t, 2.25, OrdinalDistance(0, 1, m))
}

func TestCircularDistance(t *testing.T) {
	assert.InDelta(t, 0.5, CircularDistance(0, 1, 4), 1e-12)
	assert.InDelta(t, 1.0, CircularDistance(0, 2, 4), 1e-12)
	assert.InDelta(t, 0.5, CircularDistance(0, 3, 4), 1e-12)
	assert.InDelta(t, CircularDistance(1, 0, 4), CircularDistance(0, 1, 4), 1e-12)
	// sin(-67.5°) is negative; the squared distance is not
	assert.InDelta(t, math.Pow(math.Sin(67.5*math.Pi/180), 2), CircularDistance(0, 3, 8), 1e-12)
}

func TestMetricTable(t *testing.T) {
	table, err := MetricTable(3, Interval, nil, 0)
	require.NoError(t, err)
	want := [][]float64{{0, 1, 4}, {1, 0, 1}, {4, 1, 0}}
	if diff := cmp.Diff(want, rows(table)); diff != "" {
		t.Fatalf("interval table mismatch (-want +got):\n%s", diff)
	}

	table, err = MetricTable(4, Circular, nil, 0)
	require.NoError(t, err)
	wantCirc := [][]float64{{0, 0.5, 1, 0.5}, {0.5, 0, 0.5, 1}, {1, 0.5, 0, 0.5}, {0.5, 1, 0.5, 0}}
	if diff := cmp.Diff(wantCirc, rows(table), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("circular table mismatch (-want +got):\n%s", diff)
	}

	_, err = MetricTable(3, Ordinal, []float64{1}, 0)
	require.Error(t, err)

	_, err = MetricTable(3, Metric("manhattan"), nil, 0)
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestExpectedTable(t *testing.T) {
	e := ExpectedTable([]float64{1, 2, 3})
	want := [][]float64{{1, 2, 3}, {2, 4, 6}, {3, 6, 9}}
	if diff := cmp.Diff(want, rows(e)); diff != "" {
		t.Fatalf("expected table mismatch (-want +got):\n%s", diff)
	}
}
