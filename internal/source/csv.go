package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/iaa/internal/agreement"
)

// Annotations are label sequences aligned by item, ready for agreement.New.
type Annotations struct {
	Items      []string
	Annotators []string
	// Labels is indexed [annotator][item]; missing labels are agreement.Missing.
	Labels [][]string
}

// Set builds an agreement.Set named after the loaded annotators.
func (a Annotations) Set(opts ...agreement.Option) (*agreement.Set, error) {
	opts = append([]agreement.Option{agreement.WithAnnotators(a.Annotators...)}, opts...)
	return agreement.New(a.Labels, opts...)
}

// CSVOptions selects annotator columns from a wide CSV file: one row per item, one
// column per annotator.
type CSVOptions struct {
	// Columns names the annotator columns; empty means every column but ItemColumn.
	Columns []string
	// ItemColumn optionally names the item identifier column.
	ItemColumn string
	Delimiter  rune
	Missing    []string
}

// LoadCSV reads a wide CSV file.
func LoadCSV(path string, opts CSVOptions) (Annotations, error) {
	file, err := os.Open(path)
	if err != nil {
		return Annotations{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()
	return ReadCSV(file, opts)
}

// ReadCSV reads wide CSV data with a header row.
func ReadCSV(r io.Reader, opts CSVOptions) (Annotations, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Annotations{}, fmt.Errorf("csv input is empty")
		}
		return Annotations{}, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	position := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := position[name]; dup {
			return Annotations{}, fmt.Errorf("duplicate csv column %q", name)
		}
		position[name] = i
	}

	itemCol := -1
	if opts.ItemColumn != "" {
		idx, ok := position[opts.ItemColumn]
		if !ok {
			return Annotations{}, fmt.Errorf("item column %q not found", opts.ItemColumn)
		}
		itemCol = idx
	}

	var annotators []string
	var cols []int
	if len(opts.Columns) > 0 {
		for _, name := range opts.Columns {
			idx, ok := position[name]
			if !ok {
				return Annotations{}, fmt.Errorf("annotator column %q not found", name)
			}
			annotators = append(annotators, name)
			cols = append(cols, idx)
		}
	} else {
		for i, name := range header {
			if i == itemCol {
				continue
			}
			annotators = append(annotators, name)
			cols = append(cols, i)
		}
	}

	missing := MissingFor(opts.Missing)
	labels := make([][]string, len(cols))
	var ids []string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Annotations{}, fmt.Errorf("failed to read csv: %w", err)
		}
		for a, col := range cols {
			labels[a] = append(labels[a], normalize(record[col], missing))
		}
		if itemCol >= 0 {
			ids = append(ids, strings.TrimSpace(record[itemCol]))
		} else {
			ids = append(ids, strconv.Itoa(line-1))
		}
	}

	itemIDs := make([][]string, len(cols))
	for a := range itemIDs {
		itemIDs[a] = ids
	}
	items, aligned, err := agreement.Align(itemIDs, labels)
	if err != nil {
		return Annotations{}, err
	}
	return Annotations{Items: items, Annotators: annotators, Labels: aligned}, nil
}
