package agreement

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AgreementTable counts, per item, how many annotators chose each category.
type AgreementTable struct {
	Categories Categories
	// Counts is items × categories.
	Counts *mat.Dense
}

// Items returns the number of rows.
func (t AgreementTable) Items() int {
	r, _ := t.Counts.Dims()
	return r
}

// Margin returns how many annotators labelled item i.
func (t AgreementTable) Margin(i int) float64 {
	return floats.Sum(t.Counts.RawRowView(i))
}

// BuildAgreementTable tallies labels[annotator][item] into an item × category table.
// Missing labels are not counted.
func BuildAgreementTable(labels [][]string, cats Categories) AgreementTable {
	n := 0
	if len(labels) > 0 {
		n = len(labels[0])
	}
	counts := mat.NewDense(n, cats.Len(), nil)
	for i := 0; i < n; i++ {
		row := counts.RawRowView(i)
		for _, seq := range labels {
			if c, ok := cats.Index(seq[i]); ok {
				row[c]++
			}
		}
	}
	return AgreementTable{Categories: cats, Counts: counts}
}

// ContingencyTable cross-tabulates two annotators: rows are the first annotator's
// categories, columns the second's.
type ContingencyTable struct {
	Categories Categories
	Counts     *mat.Dense
	// N is the number of items both annotators labelled.
	N int
}

// BuildContingencyTable cross-tabulates two aligned label sequences over cats.
// Items where either label is missing are skipped.
func BuildContingencyTable(a, b []string, cats Categories) (ContingencyTable, error) {
	if len(a) != len(b) {
		return ContingencyTable{}, fmt.Errorf("%w: sequences of %d and %d items", ErrMisalignedInput, len(a), len(b))
	}
	k := cats.Len()
	counts := mat.NewDense(k, k, nil)
	used := 0
	for i := range a {
		r, ok := cats.Index(a[i])
		if !ok {
			continue
		}
		c, ok := cats.Index(b[i])
		if !ok {
			continue
		}
		counts.Set(r, c, counts.At(r, c)+1)
		used++
	}
	return ContingencyTable{Categories: cats, Counts: counts, N: used}, nil
}

// Pair is an unordered pair of category indices with I <= J.
type Pair struct {
	I, J int
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.I, p.J)
}

// CombinationsTable holds, per item, the number of annotator pairs that produced each
// unordered category pair, self-pairs included.
type CombinationsTable struct {
	Pairs []Pair
	// Counts is items × pairs.
	Counts *mat.Dense
}

// PairIndex returns the column of the pair (i, j) in either order.
func (t CombinationsTable) PairIndex(i, j int) (int, bool) {
	if i > j {
		i, j = j, i
	}
	for col, p := range t.Pairs {
		if p.I == i && p.J == j {
			return col, true
		}
	}
	return 0, false
}

// BuildCombinationsTable derives pair counts from an agreement table. A same-label pair
// with count c contributes c·(c−1); a pair of labels with counts c1 and c2 contributes c1·c2.
func BuildCombinationsTable(agreement AgreementTable) CombinationsTable {
	k := agreement.Categories.Len()
	pairs := make([]Pair, 0, k*(k+1)/2)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}
	n := agreement.Items()
	counts := mat.NewDense(n, len(pairs), nil)
	for item := 0; item < n; item++ {
		row := agreement.Counts.RawRowView(item)
		out := counts.RawRowView(item)
		for col, p := range pairs {
			c1, c2 := row[p.I], row[p.J]
			if c1 == 0 || c2 == 0 {
				continue
			}
			if p.I == p.J {
				out[col] = c1 * (c1 - 1)
			} else {
				out[col] = c1 * c2
			}
		}
	}
	return CombinationsTable{Pairs: pairs, Counts: counts}
}

// CoincidenceMatrix is the symmetric category × category matrix of pairable values.
type CoincidenceMatrix struct {
	Categories Categories
	Counts     *mat.Dense
}

// Margins returns the row sums of the matrix.
func (c CoincidenceMatrix) Margins() []float64 {
	k, _ := c.Counts.Dims()
	out := make([]float64, k)
	for i := range out {
		out[i] = floats.Sum(c.Counts.RawRowView(i))
	}
	return out
}

// Total returns the number of pairable values.
func (c CoincidenceMatrix) Total() float64 {
	return mat.Sum(c.Counts)
}

// BuildCoincidenceMatrix distributes each item's pair counts into a category matrix,
// dividing by the item's margin minus one. Items with fewer than two labels form no pair
// and are skipped.
func BuildCoincidenceMatrix(comb CombinationsTable, agreement AgreementTable) CoincidenceMatrix {
	k := agreement.Categories.Len()
	counts := mat.NewDense(k, k, nil)
	n, _ := comb.Counts.Dims()
	for item := 0; item < n; item++ {
		margin := agreement.Margin(item)
		if margin < 2 {
			continue
		}
		row := comb.Counts.RawRowView(item)
		for col, v := range row {
			if v == 0 {
				continue
			}
			p := comb.Pairs[col]
			w := v / (margin - 1)
			counts.Set(p.I, p.J, counts.At(p.I, p.J)+w)
			if p.I != p.J {
				counts.Set(p.J, p.I, counts.At(p.J, p.I)+w)
			}
		}
	}
	return CoincidenceMatrix{Categories: agreement.Categories, Counts: counts}
}
