package table

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// Concat appends the rows of all tables into one table.
//
// The result schema is the union of the input schemas, in first-seen column
// order. Rows from a table that lacks a column are null in that column. When
// the same column name is a string column in one input and a float64 column
// in another, the result is a string column and the floats are formatted.
// Tables without a schema contribute nothing.
func Concat(tables ...*Table) *Table {
	type colInfo struct {
		name string
		kind Kind
	}
	var order []colInfo
	pos := map[string]int{}
	total := 0

	for _, t := range tables {
		if t == nil || !t.HasSchema() {
			continue
		}
		total += t.rows
		for _, f := range t.fields {
			i, ok := pos[f.Name]
			if !ok {
				pos[f.Name] = len(order)
				order = append(order, colInfo{name: f.Name, kind: f.Column.Kind()})
				continue
			}
			if order[i].kind != f.Column.Kind() {
				order[i].kind = KindString
			}
		}
	}

	if len(order) == 0 {
		return Empty()
	}

	fields := make([]Field, len(order))
	for i, ci := range order {
		switch ci.kind {
		case KindFloat64:
			fields[i] = Field{Name: ci.name, Column: concatFloat64(ci.name, tables)}
		default:
			fields[i] = Field{Name: ci.name, Column: concatString(ci.name, total, tables)}
		}
	}
	return MustNew(fields...)
}

// concatString re-encodes every input through one dictionary builder, which
// unifies the per-table dictionaries.
func concatString(name string, total int, tables []*Table) *StringColumn {
	b := NewStringBuilder(total)
	for _, t := range tables {
		if t == nil || !t.HasSchema() {
			continue
		}
		col, ok := t.Column(name)
		if !ok {
			b.AppendNulls(t.rows)
			continue
		}
		switch c := col.(type) {
		case *StringColumn:
			for i := 0; i < c.Len(); i++ {
				if v, ok := c.Value(i); ok {
					b.Append(v)
				} else {
					b.AppendNull()
				}
			}
		case *Float64Column:
			for i := 0; i < c.Len(); i++ {
				if v, ok := c.Value(i); ok {
					b.Append(formatFloat(v))
				} else {
					b.AppendNull()
				}
			}
		default:
			b.AppendNulls(t.rows)
		}
	}
	return b.Build()
}

// concatFloat64 concatenates the arrow arrays of the inputs, standing in a
// null array for every table that lacks the column.
func concatFloat64(name string, tables []*Table) *Float64Column {
	var parts []arrow.Array
	for _, t := range tables {
		if t == nil || !t.HasSchema() {
			continue
		}
		if c, ok := t.Float64Column(name); ok {
			parts = append(parts, c.arr)
			continue
		}
		parts = append(parts, array.MakeArrayOfNull(mem, arrow.PrimitiveTypes.Float64, t.rows))
	}

	out, err := array.Concatenate(parts, mem)
	if err != nil {
		panic(fmt.Errorf("table: concatenate %q: %w", name, err))
	}
	return &Float64Column{arr: out.(*array.Float64)}
}
