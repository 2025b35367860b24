// Package filter selects the rows of a merged table whose categorical values
// fall inside the allowed sets of a request.
package filter

import (
	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/table"
	"github.com/arrestview/arrestview/pkg/types"
)

// Predicate holds the allowed values for each categorical dimension.
// A row matches when every dimension's value is in its set; an empty or
// nil set therefore matches no rows. Area values are borough codes.
type Predicate struct {
	Areas     []string
	Offenses  []string
	Races     []string
	Sexes     []string
	AgeGroups []string
}

// Values returns the allowed values for the dimension stored in column.
func (p Predicate) Values(column string) []string {
	switch column {
	case types.ColumnArrestBoro:
		return p.Areas
	case types.ColumnOffense:
		return p.Offenses
	case types.ColumnRace:
		return p.Races
	case types.ColumnSex:
		return p.Sexes
	case types.ColumnAgeGroup:
		return p.AgeGroups
	}
	return nil
}

// Validate checks that t can be filtered and projected: the categorical
// columns must exist as string columns and the result columns must exist.
// A table without a schema is valid.
func Validate(t *table.Table) error {
	if !t.HasSchema() {
		return nil
	}

	var bad []string
	flagged := make(map[string]bool)
	for _, name := range types.CategoricalColumns() {
		col, ok := t.Column(name)
		if !ok || col.Kind() != table.KindString {
			bad = append(bad, name)
			flagged[name] = true
		}
	}
	for _, name := range t.Missing(types.ResultColumns...) {
		if !flagged[name] {
			bad = append(bad, name)
		}
	}

	if len(bad) > 0 {
		return apperrors.NewSchemaMismatch(bad)
	}
	return nil
}

// Apply returns the rows of t matching p, projected to the result columns in
// their original order. The input table is not modified.
func Apply(t *table.Table, p Predicate) (*table.Table, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	if !t.HasSchema() {
		return EmptyResult(), nil
	}

	projected, err := t.Select(types.ResultColumns...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to project result columns", err)
	}

	clauses := make([]clause, 0, len(types.Dimensions))
	for _, d := range types.Dimensions {
		values := p.Values(d.Column)
		if len(values) == 0 {
			return projected.Take(nil), nil
		}
		col, _ := t.StringColumn(d.Column)
		clauses = append(clauses, clause{col: col, mask: col.Mask(set(values))})
	}

	keep := make([]bool, t.NumRows())
	for i := range keep {
		keep[i] = matches(i, clauses)
	}
	return projected.Filter(keep), nil
}

// clause is one set-membership test, precomputed over the column dictionary.
type clause struct {
	col  *table.StringColumn
	mask []bool
}

func matches(row int, clauses []clause) bool {
	for _, c := range clauses {
		code := c.col.Code(row)
		if code < 0 || !c.mask[code] {
			return false
		}
	}
	return true
}

func set(values []string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// EmptyResult returns a table with the result columns and no rows.
func EmptyResult() *table.Table {
	fields := make([]table.Field, len(types.ResultColumns))
	for i, name := range types.ResultColumns {
		var col table.Column = table.Strings()
		if name == types.ColumnLatitude || name == types.ColumnLongitude {
			col = table.Float64s()
		}
		fields[i] = table.Field{Name: name, Column: col}
	}
	return table.MustNew(fields...)
}
