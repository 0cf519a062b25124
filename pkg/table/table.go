// Package table provides the column-oriented dataset that operators refine.
//
// A Table is an ordered set of named columns that all share the same row
// count. Row i of every column belongs to the same record, so operators may
// rewrite the values of a column but never its length or order.
package table

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn is returned when adding a column whose name is taken.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrLengthMismatch is returned when a column's length differs from the row count.
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")
)

// Table is an ordered collection of equally sized, named columns.
// The zero value is an empty table ready for use.
type Table struct {
	names []string
	cols  map[string][]any
	rows  int
}

// New creates an empty table.
func New() *Table {
	return &Table{cols: make(map[string][]any)}
}

// FromRecords builds a table from row records. Column order follows the order
// in which keys are first seen; a record missing a key gets a nil value.
func FromRecords(records []Record) *Table {
	t := New()
	t.rows = len(records)

	for i, rec := range records {
		for _, f := range rec {
			col, ok := t.cols[f.Key]
			if !ok {
				col = make([]any, len(records))
				t.names = append(t.names, f.Key)
			}
			col[i] = f.Value
			t.cols[f.Key] = col
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column returns the values of the named column. The returned slice is the
// table's own storage; callers that own the table may modify it in place.
func (t *Table) Column(name string) ([]any, bool) {
	col, ok := t.cols[name]
	return col, ok
}

// AddColumn appends a new column. The first column added to an empty table
// fixes the row count.
func (t *Table) AddColumn(name string, values []any) error {
	if t.cols == nil {
		t.cols = make(map[string][]any)
	}
	if _, ok := t.cols[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if len(t.names) == 0 && t.rows == 0 {
		t.rows = len(values)
	}
	if len(values) != t.rows {
		return fmt.Errorf("%w: column %q has %d values, table has %d rows",
			ErrLengthMismatch, name, len(values), t.rows)
	}
	t.names = append(t.names, name)
	t.cols[name] = values
	return nil
}

// SetColumn replaces the values of an existing column. The row count must not change.
func (t *Table) SetColumn(name string, values []any) error {
	if _, ok := t.cols[name]; !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	if len(values) != t.rows {
		return fmt.Errorf("%w: column %q has %d values, table has %d rows",
			ErrLengthMismatch, name, len(values), t.rows)
	}
	t.cols[name] = values
	return nil
}

// Clone returns a copy whose columns can be mutated without affecting t.
// Column slices are copied; nested values such as maps are shared.
func (t *Table) Clone() *Table {
	c := &Table{
		names: make([]string, len(t.names)),
		cols:  make(map[string][]any, len(t.cols)),
		rows:  t.rows,
	}
	copy(c.names, t.names)
	for name, col := range t.cols {
		cp := make([]any, len(col))
		copy(cp, col)
		c.cols[name] = cp
	}
	return c
}

// Records returns the rows of the table as ordered records.
func (t *Table) Records() []Record {
	out := make([]Record, t.rows)
	for i := range out {
		rec := make(Record, len(t.names))
		for j, name := range t.names {
			rec[j] = Field{Key: name, Value: t.cols[name][i]}
		}
		out[i] = rec
	}
	return out
}
