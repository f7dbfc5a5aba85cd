package agreement

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// threeByFour is three annotators labelling four items with {A, B}.
var threeByFour = [][]string{
	{"A", "A", "B", "B"},
	{"A", "A", "B", "A"},
	{"A", "B", "B", "B"},
}

func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = append([]float64(nil), m.RawRowView(i)...)
	}
	return out
}

func TestRegistryOrdering(t *testing.T) {
	cats, err := Registry([][]string{{"b", "a", ""}, {"c", "a", "b"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cats.Labels())

	cats, err = Registry([][]string{{"10", "9"}, {"2", "", "10"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "9", "10"}, cats.Labels())

	i, ok := cats.Index("10")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = cats.Index("")
	assert.False(t, ok)
}

func TestRegistryCallerOrder(t *testing.T) {
	cats, err := Registry([][]string{{"low", "high"}, {"mid", "low"}}, []string{"low", "mid", "high", "extreme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "mid", "high", "extreme"}, cats.Labels())

	_, err = Registry([][]string{{"low", "other"}, {"low", "low"}}, []string{"low", "high"})
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRegistryAllMissing(t *testing.T) {
	_, err := Registry([][]string{{"", ""}, {"", ""}}, nil)
	require.ErrorIs(t, err, ErrNoCategories)
}

func TestBuildAgreementTable(t *testing.T) {
	cats, err := Registry(threeByFour, nil)
	require.NoError(t, err)
	table := BuildAgreementTable(threeByFour, cats)

	want := [][]float64{{3, 0}, {2, 1}, {0, 3}, {1, 2}}
	if diff := cmp.Diff(want, rows(table.Counts)); diff != "" {
		t.Fatalf("agreement table mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < table.Items(); i++ {
		assert.Equal(t, 3.0, table.Margin(i))
	}
}

func TestBuildAgreementTableSkipsMissing(t *testing.T) {
	labels := [][]string{{"A", ""}, {"A", "B"}, {"", "B"}}
	cats, err := Registry(labels, nil)
	require.NoError(t, err)
	table := BuildAgreementTable(labels, cats)
	if diff := cmp.Diff([][]float64{{2, 0}, {0, 2}}, rows(table.Counts)); diff != "" {
		t.Fatalf("agreement table mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2.0, table.Margin(0))
}

func TestBuildContingencyTable(t *testing.T) {
	cats, err := Registry(threeByFour, nil)
	require.NoError(t, err)
	ct, err := BuildContingencyTable(threeByFour[0], threeByFour[1], cats)
	require.NoError(t, err)
	assert.Equal(t, 4, ct.N)
	if diff := cmp.Diff([][]float64{{2, 0}, {1, 1}}, rows(ct.Counts)); diff != "" {
		t.Fatalf("contingency mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildContingencyTableUsesFullCategoryAxis(t *testing.T) {
	// annotator a never uses "C"; the diagonal must still line up by label
	a := []string{"A", "B", "B", ""}
	b := []string{"A", "C", "B", "A"}
	cats, err := Registry([][]string{a, b}, nil)
	require.NoError(t, err)
	ct, err := BuildContingencyTable(a, b, cats)
	require.NoError(t, err)
	assert.Equal(t, 3, ct.N)
	assert.Equal(t, 2.0, mat.Trace(ct.Counts))
	assert.Equal(t, 1.0, ct.Counts.At(1, 2))
}

func TestBuildContingencyTableRejectsUnequalLengths(t *testing.T) {
	cats, err := Registry(threeByFour, nil)
	require.NoError(t, err)
	_, err = BuildContingencyTable(threeByFour[0], threeByFour[1][:3], cats)
	require.ErrorIs(t, err, ErrMisalignedInput)
}

func TestBuildCombinationsTable(t *testing.T) {
	cats, err := Registry(threeByFour, nil)
	require.NoError(t, err)
	comb := BuildCombinationsTable(BuildAgreementTable(threeByFour, cats))

	assert.Equal(t, []Pair{{0, 0}, {0, 1}, {1, 1}}, comb.Pairs)
	want := [][]float64{
		{6, 0, 0},
		{2, 2, 0},
		{0, 0, 6},
		{0, 2, 2},
	}
	if diff := cmp.Diff(want, rows(comb.Counts)); diff != "" {
		t.Fatalf("combinations mismatch (-want +got):\n%s", diff)
	}
	col, ok := comb.PairIndex(1, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, col)
}

func TestBuildCoincidenceMatrix(t *testing.T) {
	cats, err := Registry(threeByFour, nil)
	require.NoError(t, err)
	agree := BuildAgreementTable(threeByFour, cats)
	coin := BuildCoincidenceMatrix(BuildCombinationsTable(agree), agree)

	if diff := cmp.Diff([][]float64{{4, 2}, {2, 4}}, rows(coin.Counts)); diff != "" {
		t.Fatalf("coincidence mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{6, 6}, coin.Margins())
	assert.Equal(t, 12.0, coin.Total())
}

func TestCoincidenceMatrixIdempotent(t *testing.T) {
	set, err := New(krippendorffReliability)
	require.NoError(t, err)
	first := set.CoincidenceMatrix()
	second := set.CoincidenceMatrix()
	assert.True(t, mat.Equal(first.Counts, second.Counts))
	assert.True(t, mat.Equal(first.Counts, first.Counts.T()), "coincidence matrix must be symmetric")
}

func TestCoincidenceTotalMatchesPairableValues(t *testing.T) {
	set, err := New(krippendorffReliability)
	require.NoError(t, err)
	agree := set.AgreementTable()
	var want float64
	for i := 0; i < agree.Items(); i++ {
		if m := agree.Margin(i); m > 1 {
			want += m
		}
	}
	assert.InDelta(t, want, set.CoincidenceMatrix().Total(), 1e-9)
	assert.InDelta(t, 40.0, want, 1e-9)
}

func TestAlign(t *testing.T) {
	items, aligned, err := Align(
		[][]string{{"u1", "u2", "u3"}, {"u3", "u1"}},
		[][]string{{"a", "b", "c"}, {"C", "A"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, items)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"A", Missing, "C"}}, aligned)
}

func TestAlignRejectsDuplicates(t *testing.T) {
	_, _, err := Align([][]string{{"u1", "u1"}, {"u1"}}, [][]string{{"a", "b"}, {"a"}})
	require.ErrorIs(t, err, ErrMisalignedInput)

	_, _, err = Align([][]string{{"u1"}, {"u1"}}, [][]string{{"a", "b"}, {"a"}})
	require.ErrorIs(t, err, ErrMisalignedInput)
}
