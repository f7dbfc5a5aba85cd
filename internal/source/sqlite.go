package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/verte-zerg/iaa/internal/agreement"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DB wraps read access to annotations stored in a SQLite database.
type DB struct {
	db *sql.DB
}

// OpenDB opens an existing SQLite database.
func OpenDB(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on ping failure.
			_ = cerr
		}
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// LongQuery describes a long-format annotation table: one row per (item, annotator).
type LongQuery struct {
	Table           string
	ItemColumn      string
	AnnotatorColumn string
	LabelColumn     string
	// Annotators restricts and orders the annotators; empty means all, sorted by name.
	Annotators []string
	Missing    []string
}

func (q LongQuery) withDefaults() LongQuery {
	if q.Table == "" {
		q.Table = "annotations"
	}
	if q.ItemColumn == "" {
		q.ItemColumn = "item"
	}
	if q.AnnotatorColumn == "" {
		q.AnnotatorColumn = "annotator"
	}
	if q.LabelColumn == "" {
		q.LabelColumn = "label"
	}
	return q
}

// Load reads a long-format table and aligns it by item. An (item, annotator) pair
// without a row, or with a NULL or missing-token label, is an abstention.
func (d *DB) Load(ctx context.Context, q LongQuery) (Annotations, error) {
	q = q.withDefaults()
	clauses := []string{"1=1"}
	args := []any{}
	if len(q.Annotators) > 0 {
		placeholders := make([]string, len(q.Annotators))
		for i, name := range q.Annotators {
			placeholders[i] = "?"
			args = append(args, name)
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", quoteIdent(q.AnnotatorColumn), strings.Join(placeholders, ",")))
	}
	query := fmt.Sprintf(`SELECT %s, %s, %s
		FROM %s
		WHERE %s
		ORDER BY 2, 1`,
		quoteIdent(q.ItemColumn), quoteIdent(q.AnnotatorColumn), quoteIdent(q.LabelColumn),
		quoteIdent(q.Table), strings.Join(clauses, " AND "))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Annotations{}, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	missing := MissingFor(q.Missing)
	position := map[string]int{}
	var annotators []string
	var itemIDs, labels [][]string
	for rows.Next() {
		var item, annotator string
		var label sql.NullString
		if err := rows.Scan(&item, &annotator, &label); err != nil {
			return Annotations{}, fmt.Errorf("failed to scan annotation: %w", err)
		}
		a, ok := position[annotator]
		if !ok {
			a = len(annotators)
			position[annotator] = a
			annotators = append(annotators, annotator)
			itemIDs = append(itemIDs, nil)
			labels = append(labels, nil)
		}
		value := agreement.Missing
		if label.Valid {
			value = normalize(label.String, missing)
		}
		itemIDs[a] = append(itemIDs[a], item)
		labels[a] = append(labels[a], value)
	}
	if err := rows.Err(); err != nil {
		return Annotations{}, fmt.Errorf("failed to read annotations: %w", err)
	}

	if len(q.Annotators) > 0 {
		annotators, itemIDs, labels, err = reorder(q.Annotators, position, itemIDs, labels)
		if err != nil {
			return Annotations{}, err
		}
	}
	items, aligned, err := agreement.Align(itemIDs, labels)
	if err != nil {
		return Annotations{}, err
	}
	return Annotations{Items: items, Annotators: annotators, Labels: aligned}, nil
}

func reorder(order []string, position map[string]int, itemIDs, labels [][]string) ([]string, [][]string, [][]string, error) {
	ids := make([][]string, 0, len(order))
	out := make([][]string, 0, len(order))
	for _, name := range order {
		a, ok := position[name]
		if !ok {
			return nil, nil, nil, fmt.Errorf("annotator %q has no annotations", name)
		}
		ids = append(ids, itemIDs[a])
		out = append(out, labels[a])
	}
	return append([]string(nil), order...), ids, out, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
