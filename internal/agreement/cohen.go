package agreement

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/combin"
)

// CohenObservedAgreement is the diagonal of the contingency table divided by N.
func CohenObservedAgreement(ct ContingencyTable) float64 {
	return mat.Trace(ct.Counts) / float64(ct.N)
}

// CohenExpectedAgreement is Σ over categories of the row marginal proportion times the
// matching column marginal proportion.
func CohenExpectedAgreement(ct ContingencyTable) float64 {
	k, _ := ct.Counts.Dims()
	rows := make([]float64, k)
	cols := make([]float64, k)
	for i := 0; i < k; i++ {
		rows[i] = floats.Sum(ct.Counts.RawRowView(i))
		cols[i] = mat.Sum(ct.Counts.ColView(i))
	}
	n := float64(ct.N)
	return floats.Dot(rows, cols) / (n * n)
}

// CohenKappa returns Cohen's kappa for the first two annotators.
func (s *Set) CohenKappa() (float64, error) {
	res, err := s.CohenDetail(0, 1)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// CohenKappaPair returns Cohen's kappa for annotators i and j.
func (s *Set) CohenKappaPair(i, j int) (float64, error) {
	res, err := s.CohenDetail(i, j)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// CohenDetail returns Cohen's kappa for annotators i and j together with P_o and P_e.
// Items where either annotator abstained are left out.
func (s *Set) CohenDetail(i, j int) (Result, error) {
	ct, err := s.ContingencyTable(i, j)
	if err != nil {
		return Result{}, err
	}
	if ct.N == 0 {
		return Result{}, fmt.Errorf("%w: %s and %s share no labelled item", ErrNoItems, s.annotators[i], s.annotators[j])
	}
	labels := s.categories.Labels()
	s.show(fmt.Sprintf("Contingency table (%s × %s)", s.annotators[i], s.annotators[j]), labels, labels, ct.Counts)

	po := CohenObservedAgreement(ct)
	pe := CohenExpectedAgreement(ct)
	s.debug("cohen agreement", "a", s.annotators[i], "b", s.annotators[j], "p_o", po, "p_e", pe, "items", ct.N)

	k, err := kappa(po, pe)
	if err != nil {
		return Result{}, fmt.Errorf("cohen (%s, %s): %w", s.annotators[i], s.annotators[j], err)
	}
	s.debug("cohen kappa", "k", k)
	return Result{Observed: po, Expected: pe, Value: k}, nil
}

// LightKappa returns the mean of Cohen's kappa over every unordered annotator pair.
func (s *Set) LightKappa() (float64, error) {
	pairs := combin.Combinations(s.m, 2)
	scores := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		k, err := s.CohenKappaPair(p[0], p[1])
		if err != nil {
			return 0, fmt.Errorf("light: %w", err)
		}
		scores = append(scores, k)
	}
	k := stat.Mean(scores, nil)
	s.debug("light kappa", "pairs", len(scores), "scores", scores, "k", k)
	return k, nil
}
