// Package source loads annotator label sequences from tabular files.
package source

import "strings"

// DefaultMissing lists the cell values read as "no annotation".
var DefaultMissing = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

// MissingFunc returns true when a raw cell holds no annotation.
type MissingFunc func(string) bool

// MissingFor returns a MissingFunc for the given tokens. Cells are compared after
// trimming surrounding whitespace, so blank cells are always missing.
func MissingFor(tokens []string) MissingFunc {
	if tokens == nil {
		tokens = DefaultMissing
	}
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[strings.TrimSpace(tok)] = struct{}{}
	}
	return func(cell string) bool {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return true
		}
		_, ok := set[cell]
		return ok
	}
}

func normalize(cell string, missing MissingFunc) string {
	if missing(cell) {
		return ""
	}
	return strings.TrimSpace(cell)
}
