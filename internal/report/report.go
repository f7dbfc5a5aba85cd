package report

import (
	"context"
	"fmt"
	"io"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/verte-zerg/iaa/internal/agreement"
)

// Coefficient names used in reports.
const (
	Fleiss       = "Fleiss' kappa"
	Cohen        = "Cohen's kappa"
	Light        = "Light's kappa"
	Krippendorff = "Krippendorff's alpha"
)

// Entry is one computed coefficient. Err is set when the coefficient is undefined
// for the input, e.g. degenerate agreement.
type Entry struct {
	Name   string
	Result agreement.Result
	// Detailed is false when only Value is meaningful (Light's kappa).
	Detailed bool
	Err      error
}

// Report holds every coefficient computed over one Set.
type Report struct {
	Items      int
	Annotators int
	Categories []string
	Metric     agreement.Metric
	Entries    []Entry
}

// Compute evaluates the four coefficients concurrently. Per-coefficient failures are
// recorded in the entries; only cancellation of ctx fails the whole report.
func Compute(ctx context.Context, set *agreement.Set, metric agreement.Metric) (Report, error) {
	entries := []Entry{
		{Name: Fleiss, Detailed: true},
		{Name: Cohen, Detailed: true},
		{Name: Light},
		{Name: Krippendorff, Detailed: true},
	}
	tasks := []func() (agreement.Result, error){
		set.FleissDetail,
		func() (agreement.Result, error) { return set.CohenDetail(0, 1) },
		func() (agreement.Result, error) {
			k, err := set.LightKappa()
			return agreement.Result{Value: k}, err
		},
		func() (agreement.Result, error) { return set.AlphaDetail(metric) },
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i].Result, entries[i].Err = task()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{
		Items:      set.Items(),
		Annotators: set.Annotators(),
		Categories: set.Categories().Labels(),
		Metric:     metric,
		Entries:    entries,
	}, nil
}

// RenderSummary prints the coefficient table of a report.
func RenderSummary(w io.Writer, r Report) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Items: %d  Annotators: %d  Categories: %d  Metric: %s\n", r.Items, r.Annotators, len(r.Categories), r.Metric); err != nil {
		return err
	}
	headers := []string{"Coefficient", "Observed", "Expected", "Value"}
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Err != nil {
			rows = append(rows, []string{e.Name, "-", "-", "n/a (" + e.Err.Error() + ")"})
			continue
		}
		observed, expected := "-", "-"
		if e.Detailed {
			observed = fmt.Sprintf("%.4f", e.Result.Observed)
			expected = fmt.Sprintf("%.4f", e.Result.Expected)
		}
		rows = append(rows, []string{e.Name, observed, expected, fmt.Sprintf("%.4f", e.Result.Value)})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PairwiseKappa returns the m × m matrix of Cohen's kappa between annotators, with a
// unit diagonal. Pairs whose kappa is undefined are NaN in the matrix; their errors
// are returned keyed by pair.
func PairwiseKappa(set *agreement.Set) (*mat.Dense, map[[2]int]error) {
	m := set.Annotators()
	out := mat.NewDense(m, m, nil)
	failed := map[[2]int]error{}
	for i := 0; i < m; i++ {
		out.Set(i, i, 1)
		for j := i + 1; j < m; j++ {
			k, err := set.CohenKappaPair(i, j)
			if err != nil {
				failed[[2]int{i, j}] = err
				k = math.NaN()
			}
			out.Set(i, j, k)
			out.Set(j, i, k)
		}
	}
	return out, failed
}

// RenderPairwise prints the pairwise Cohen's kappa matrix.
func RenderPairwise(w io.Writer, set *agreement.Set) error {
	kappas, _ := PairwiseKappa(set)
	names := set.AnnotatorNames()
	if _, err := fmt.Fprintln(w, "Pairwise Cohen's kappa"); err != nil {
		return err
	}
	rows := make([][]string, len(names))
	for i, name := range names {
		row := []string{name}
		for j := range names {
			v := kappas.At(i, j)
			if math.IsNaN(v) {
				row = append(row, "n/a")
				continue
			}
			row = append(row, fmt.Sprintf("%.4f", v))
		}
		rows[i] = row
	}
	headers := append([]string{""}, names...)
	for _, line := range formatTable(headers, rows, rightAlignFrom(1, len(headers))) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
