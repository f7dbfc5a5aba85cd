package agreement

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KrippendorffAlpha returns Krippendorff's alpha under the given metric.
func (s *Set) KrippendorffAlpha(metric Metric) (float64, error) {
	res, err := s.AlphaDetail(metric)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// AlphaDetail returns Krippendorff's alpha together with the observed (d_o) and
// expected (d_e) disagreement.
func (s *Set) AlphaDetail(metric Metric) (Result, error) {
	coin := s.CoincidenceMatrix()
	margins := coin.Margins()
	total := coin.Total()
	if total < 2 {
		return Result{}, fmt.Errorf("%w: no item carries two or more labels", ErrNoItems)
	}
	labels := s.categories.Labels()
	s.show("Coincidence matrix", labels, labels, coin.Counts)

	var marginals []float64
	if metric == Ordinal {
		marginals = margins
	}
	weights, err := MetricTable(len(margins), metric, marginals, s.cycle)
	if err != nil {
		return Result{}, err
	}

	var observed mat.Dense
	observed.MulElem(coin.Counts, weights)
	do := mat.Sum(&observed) / total

	var expected mat.Dense
	expected.MulElem(ExpectedTable(margins), weights)
	de := mat.Sum(&expected) / (total * (total - 1))
	s.debug("krippendorff disagreement", "metric", string(metric), "d_o", do, "d_e", de, "pairable", total)

	if math.Abs(de) < degenerateEps {
		return Result{}, fmt.Errorf("krippendorff: %w: no expected disagreement", ErrDegenerateAgreement)
	}
	alpha := 1 - do/de
	s.debug("krippendorff alpha", "metric", string(metric), "alpha", alpha)
	return Result{Observed: do, Expected: de, Value: alpha}, nil
}

// Coefficients holds the four agreement coefficients of a Set.
type Coefficients struct {
	Fleiss float64
	Cohen  float64
	Light  float64
	Alpha  float64
}

// Coefficients computes all four coefficients, alpha under metric.
func (s *Set) Coefficients(metric Metric) (Coefficients, error) {
	var out Coefficients
	var err error
	if out.Fleiss, err = s.FleissKappa(); err != nil {
		return Coefficients{}, err
	}
	if out.Cohen, err = s.CohenKappa(); err != nil {
		return Coefficients{}, err
	}
	if out.Light, err = s.LightKappa(); err != nil {
		return Coefficients{}, err
	}
	if out.Alpha, err = s.KrippendorffAlpha(metric); err != nil {
		return Coefficients{}, err
	}
	return out, nil
}
