// Package agreement computes inter-annotator agreement coefficients.
package agreement

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// RenderFunc renders a two-dimensional count table for diagnostics.
type RenderFunc func(title string, rows, cols []string, cells *mat.Dense)

// Option configures a Set.
type Option func(*settings)

type settings struct {
	annotators []string
	verbose    bool
	logger     *slog.Logger
	render     RenderFunc
	order      []string
	cycle      float64
}

// WithAnnotators names the annotators for diagnostics.
func WithAnnotators(names ...string) Option {
	return func(s *settings) {
		s.annotators = append([]string(nil), names...)
	}
}

// WithVerbose enables diagnostic logging and table rendering.
func WithVerbose(verbose bool) Option {
	return func(s *settings) {
		s.verbose = verbose
	}
}

// WithLogger sets the logger used for verbose diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithRenderer sets the table renderer used in verbose mode.
func WithRenderer(render RenderFunc) Option {
	return func(s *settings) {
		s.render = render
	}
}

// WithCategoryOrder fixes the category order, e.g. an ordinal scale.
func WithCategoryOrder(order ...string) Option {
	return func(s *settings) {
		s.order = append([]string(nil), order...)
	}
}

// WithCycle sets the cycle length of the circular metric. Zero means the category count.
func WithCycle(cycle float64) Option {
	return func(s *settings) {
		s.cycle = cycle
	}
}

// Set is an immutable collection of aligned annotator label sequences.
// It is safe for concurrent use.
type Set struct {
	labels     [][]string
	annotators []string
	n          int
	m          int
	categories Categories
	agreement  AgreementTable
	// contingency of the first two annotators
	contingency ContingencyTable

	verbose bool
	logger  *slog.Logger
	// renderMu keeps one table's output together when coefficients run concurrently.
	renderMu sync.Mutex
	render   RenderFunc
	cycle    float64
}

// New builds a Set from labels[annotator][item]. Empty strings are abstentions.
func New(labels [][]string, opts ...Option) (*Set, error) {
	cfg := settings{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientAnnotators, len(labels))
	}
	n := len(labels[0])
	for a, seq := range labels[1:] {
		if len(seq) != n {
			return nil, fmt.Errorf("%w: annotator %d has %d items, annotator 0 has %d", ErrMisalignedInput, a+1, len(seq), n)
		}
	}
	if n == 0 {
		return nil, ErrNoItems
	}
	if len(cfg.annotators) > 0 && len(cfg.annotators) != len(labels) {
		return nil, fmt.Errorf("%w: %d annotator names for %d sequences", ErrMisalignedInput, len(cfg.annotators), len(labels))
	}

	owned := make([][]string, len(labels))
	for a, seq := range labels {
		owned[a] = append([]string(nil), seq...)
	}
	cats, err := Registry(owned, cfg.order)
	if err != nil {
		return nil, err
	}

	names := cfg.annotators
	if len(names) == 0 {
		names = make([]string, len(owned))
		for a := range owned {
			names[a] = fmt.Sprintf("annotator %d", a+1)
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Set{
		labels:     owned,
		annotators: names,
		n:          n,
		m:          len(owned),
		categories: cats,
		verbose:    cfg.verbose,
		logger:     logger,
		render:     cfg.render,
		cycle:      cfg.cycle,
	}
	s.agreement = BuildAgreementTable(owned, cats)
	if s.contingency, err = BuildContingencyTable(owned[0], owned[1], cats); err != nil {
		return nil, err
	}
	return s, nil
}

// Items returns the number of items n.
func (s *Set) Items() int {
	return s.n
}

// Annotators returns the number of annotators m.
func (s *Set) Annotators() int {
	return s.m
}

// AnnotatorNames returns the annotator names used in diagnostics.
func (s *Set) AnnotatorNames() []string {
	return append([]string(nil), s.annotators...)
}

// Categories returns the category registry of the set.
func (s *Set) Categories() Categories {
	return s.categories
}

// AgreementTable returns the item × category count table.
func (s *Set) AgreementTable() AgreementTable {
	return s.agreement
}

// ContingencyTable returns the contingency table of annotators i and j.
func (s *Set) ContingencyTable(i, j int) (ContingencyTable, error) {
	if err := s.checkPair(i, j); err != nil {
		return ContingencyTable{}, err
	}
	if i == 0 && j == 1 {
		return s.contingency, nil
	}
	return BuildContingencyTable(s.labels[i], s.labels[j], s.categories)
}

// CombinationsTable returns the per-item label pair counts.
func (s *Set) CombinationsTable() CombinationsTable {
	return BuildCombinationsTable(s.agreement)
}

// CoincidenceMatrix returns the category × category coincidence matrix.
func (s *Set) CoincidenceMatrix() CoincidenceMatrix {
	return BuildCoincidenceMatrix(s.CombinationsTable(), s.agreement)
}

func (s *Set) checkPair(i, j int) error {
	if i < 0 || j < 0 || i >= s.m || j >= s.m {
		return fmt.Errorf("annotator pair (%d, %d) out of range [0, %d)", i, j, s.m)
	}
	if i == j {
		return fmt.Errorf("annotator pair (%d, %d) must name two different annotators", i, j)
	}
	return nil
}

func (s *Set) debug(msg string, args ...any) {
	if !s.verbose {
		return
	}
	s.logger.Info(msg, args...)
}

func (s *Set) show(title string, rows, cols []string, cells *mat.Dense) {
	if !s.verbose || s.render == nil {
		return
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.render(title, rows, cols, cells)
}

// Align lays per-annotator sequences out on a shared item axis. Items follow first-seen
// order across annotators; an item an annotator did not label becomes Missing. An item
// labelled twice by the same annotator cannot be aligned.
func Align(itemIDs [][]string, labels [][]string) ([]string, [][]string, error) {
	if len(itemIDs) != len(labels) {
		return nil, nil, fmt.Errorf("%w: %d id sequences for %d label sequences", ErrMisalignedInput, len(itemIDs), len(labels))
	}
	var items []string
	position := map[string]int{}
	for a := range labels {
		if len(itemIDs[a]) != len(labels[a]) {
			return nil, nil, fmt.Errorf("%w: annotator %d has %d ids and %d labels", ErrMisalignedInput, a, len(itemIDs[a]), len(labels[a]))
		}
		for _, id := range itemIDs[a] {
			if _, ok := position[id]; !ok {
				position[id] = len(items)
				items = append(items, id)
			}
		}
	}

	aligned := make([][]string, len(labels))
	for a := range labels {
		out := make([]string, len(items))
		filled := make([]bool, len(items))
		for k, id := range itemIDs[a] {
			i := position[id]
			if filled[i] {
				return nil, nil, fmt.Errorf("%w: item %q labelled twice by annotator %d", ErrMisalignedInput, id, a)
			}
			filled[i] = true
			out[i] = labels[a][k]
		}
		aligned[a] = out
	}
	return items, aligned, nil
}
