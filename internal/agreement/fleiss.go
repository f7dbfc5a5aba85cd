package agreement

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// degenerateEps bounds denominators treated as zero.
const degenerateEps = 1e-12

// Result carries a coefficient with the observed and expected quantities it was built
// from: agreements for the kappas, disagreements for alpha.
type Result struct {
	Observed float64
	Expected float64
	Value    float64
}

// FleissObservedAgreement is Σ c·(c−1) over all cells divided by n·m·(m−1).
// Callers guarantee m >= 2 and n >= 1.
func FleissObservedAgreement(table AgreementTable, n, m int) float64 {
	var sum float64
	for _, c := range table.Counts.RawMatrix().Data {
		sum += c * (c - 1)
	}
	return sum / float64(n*m*(m-1))
}

// FleissExpectedAgreement is Σ P_j² where P_j is the share of category j among all n·m labels.
func FleissExpectedAgreement(table AgreementTable, n, m int) float64 {
	p := fleissMarginals(table, n, m)
	return floats.Dot(p, p)
}

func fleissMarginals(table AgreementTable, n, m int) []float64 {
	_, k := table.Counts.Dims()
	p := make([]float64, k)
	for j := range p {
		p[j] = mat.Sum(table.Counts.ColView(j))
	}
	floats.Scale(1/float64(m*n), p)
	return p
}

// completeItems keeps the rows labelled by all m annotators and returns their indices.
func completeItems(table AgreementTable, m int) (AgreementTable, []int) {
	var rows []int
	for i := 0; i < table.Items(); i++ {
		if table.Margin(i) == float64(m) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return AgreementTable{Categories: table.Categories}, nil
	}
	k := table.Categories.Len()
	counts := mat.NewDense(len(rows), k, nil)
	for r, i := range rows {
		counts.SetRow(r, table.Counts.RawRowView(i))
	}
	return AgreementTable{Categories: table.Categories, Counts: counts}, rows
}

// FleissKappa returns Fleiss' kappa over the items labelled by every annotator.
func (s *Set) FleissKappa() (float64, error) {
	res, err := s.FleissDetail()
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// FleissDetail returns Fleiss' kappa together with P_o and P_e.
func (s *Set) FleissDetail() (Result, error) {
	table, rows := completeItems(s.agreement, s.m)
	n := len(rows)
	if n == 0 {
		return Result{}, fmt.Errorf("%w: no item was labelled by all %d annotators", ErrNoItems, s.m)
	}
	s.show("Agreement table", itemLabels(rows), s.categories.Labels(), table.Counts)

	po := FleissObservedAgreement(table, n, s.m)
	marginals := fleissMarginals(table, n, s.m)
	pe := floats.Dot(marginals, marginals)
	s.debug("fleiss marginals", "categories", s.categories.Labels(), "p_j", marginals)
	s.debug("fleiss agreement", "p_o", po, "p_e", pe, "items", n)

	k, err := kappa(po, pe)
	if err != nil {
		return Result{}, fmt.Errorf("fleiss: %w", err)
	}
	s.debug("fleiss kappa", "k", k)
	return Result{Observed: po, Expected: pe, Value: k}, nil
}

func kappa(po, pe float64) (float64, error) {
	den := 1 - pe
	if math.Abs(den) < degenerateEps {
		return 0, fmt.Errorf("%w: expected agreement is 1", ErrDegenerateAgreement)
	}
	return (po - pe) / den, nil
}

func itemLabels(rows []int) []string {
	out := make([]string, len(rows))
	for r, i := range rows {
		out[r] = strconv.Itoa(i)
	}
	return out
}
