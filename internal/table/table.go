// Package table provides the in-memory columnar table that partitions are
// decoded into. Columns are arrow arrays: string columns are dictionary
// encoded and numeric columns are float64. Tables are immutable once built:
// filtering and projection produce new tables and never modify their input.
package table

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
)

// Field is a named column.
type Field struct {
	Name   string
	Column Column
}

// Table is an ordered set of equally long named columns.
// A table with no columns has no schema and always has zero rows.
type Table struct {
	schema *arrow.Schema
	fields []Field
	index  map[string]int
	rows   int
}

// Empty returns a table with no schema and no rows.
func Empty() *Table {
	return &Table{schema: arrow.NewSchema(nil, nil), index: map[string]int{}}
}

// New creates a table from fields. Every column must have the same length and
// names must be unique.
func New(fields ...Field) (*Table, error) {
	t := &Table{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Column == nil {
			return nil, fmt.Errorf("table: column %q is nil", f.Name)
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", f.Name)
		}
		if i == 0 {
			t.rows = f.Column.Len()
		} else if f.Column.Len() != t.rows {
			return nil, fmt.Errorf("table: column %q has %d rows, expected %d", f.Name, f.Column.Len(), t.rows)
		}
		t.index[f.Name] = len(t.fields)
		t.fields = append(t.fields, f)
	}
	t.schema = schemaOf(t.fields)
	return t, nil
}

func schemaOf(fields []Field) *arrow.Schema {
	af := make([]arrow.Field, len(fields))
	for i, f := range fields {
		af[i] = arrow.Field{Name: f.Name, Type: f.Column.Array().DataType(), Nullable: true}
	}
	return arrow.NewSchema(af, nil)
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(fields ...Field) *Table {
	t, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.fields) }

// HasSchema reports whether the table has at least one column.
func (t *Table) HasSchema() bool { return len(t.fields) > 0 }

// Schema returns the arrow schema of the table.
func (t *Table) Schema() *arrow.Schema { return t.schema }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, t.schema.NumFields())
	for i, f := range t.schema.Fields() {
		names[i] = f.Name
	}
	return names
}

// Fields returns the table's fields in order.
func (t *Table) Fields() []Field { return t.fields }

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.fields[i].Column, true
}

// StringColumn looks up a string column by name. It returns false if the
// column is absent or has another kind.
func (t *Table) StringColumn(name string) (*StringColumn, bool) {
	c, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	sc, ok := c.(*StringColumn)
	return sc, ok
}

// Float64Column looks up a float64 column by name. It returns false if the
// column is absent or has another kind.
func (t *Table) Float64Column(name string) (*Float64Column, bool) {
	c, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	fc, ok := c.(*Float64Column)
	return fc, ok
}

// Missing returns the names that are not columns of the table, in argument order.
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.schema.HasField(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Select projects the table to the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if missing := t.Missing(names...); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = t.fields[t.index[n]]
	}
	return New(fields...)
}

// Take returns a table holding the rows at the given indexes, in order.
func (t *Table) Take(rows []int) *Table {
	if len(t.fields) == 0 {
		return t
	}
	return t.selectRows(len(rows), takeSelector(rows))
}

// Filter returns a table holding the rows whose keep entry is true, in
// order. keep must have one entry per row.
func (t *Table) Filter(keep []bool) *Table {
	if len(keep) != t.rows {
		panic(fmt.Sprintf("table: filter mask has %d entries, table has %d rows", len(keep), t.rows))
	}
	if len(t.fields) == 0 {
		return t
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	return t.selectRows(n, filterSelector(keep))
}

func (t *Table) selectRows(n int, sel selector) *Table {
	out := &Table{
		schema: t.schema,
		fields: make([]Field, len(t.fields)),
		index:  t.index,
		rows:   n,
	}
	for i, f := range t.fields {
		out.fields[i] = Field{Name: f.Name, Column: f.Column.selectRows(sel)}
	}
	return out
}

// MissingColumnsError is returned when an operation references columns the
// table does not have.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("table: missing columns %v", e.Columns)
}
