// Package model defines shared data structures.
package model

// Config defines coefficient settings.
type Config struct {
	Metric        string
	CategoryOrder []string
	OrderFile     string
	Cycle         float64
	Verbose       bool
	Color         bool
}

// InputConfig selects where annotations are read from.
type InputConfig struct {
	// File is a wide CSV file; DB is a SQLite database with a long-format table.
	File string
	DB   string

	Columns    []string
	ItemColumn string
	Delimiter  string

	Table           string
	AnnotatorColumn string
	LabelColumn     string
	Annotators      []string

	Missing []string
}
