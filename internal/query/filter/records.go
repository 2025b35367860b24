package filter

import (
	"math"
	"strconv"

	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/table"
	"github.com/arrestview/arrestview/pkg/types"
)

// Records converts a table holding the result columns into result records.
// Null strings become empty strings. Null and non-finite coordinates become nil.
func Records(t *table.Table) ([]types.Record, error) {
	if !t.HasSchema() {
		return []types.Record{}, nil
	}
	if missing := t.Missing(types.ResultColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaMismatch(missing)
	}

	str := func(name string) func(int) string {
		col, _ := t.Column(name)
		return stringAt(col)
	}
	num := func(name string) func(int) *float64 {
		col, _ := t.Column(name)
		return floatAt(col)
	}

	date := str(types.ColumnArrestDate)
	boro := str(types.ColumnArrestBoro)
	offense := str(types.ColumnOffense)
	race := str(types.ColumnRace)
	sex := str(types.ColumnSex)
	age := str(types.ColumnAgeGroup)
	lat := num(types.ColumnLatitude)
	lon := num(types.ColumnLongitude)

	records := make([]types.Record, t.NumRows())
	for i := range records {
		records[i] = types.Record{
			ArrestDate: date(i),
			ArrestBoro: boro(i),
			Offense:    offense(i),
			Race:       race(i),
			Sex:        sex(i),
			AgeGroup:   age(i),
			Latitude:   lat(i),
			Longitude:  lon(i),
		}
	}
	return records, nil
}

func stringAt(col table.Column) func(int) string {
	switch c := col.(type) {
	case *table.StringColumn:
		return func(i int) string {
			v, _ := c.Value(i)
			return v
		}
	case *table.Float64Column:
		return func(i int) string {
			v, ok := c.Value(i)
			if !ok {
				return ""
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return func(int) string { return "" }
}

func floatAt(col table.Column) func(int) *float64 {
	switch c := col.(type) {
	case *table.Float64Column:
		return func(i int) *float64 {
			v, ok := c.Value(i)
			if !ok || !finite(v) {
				return nil
			}
			return &v
		}
	case *table.StringColumn:
		return func(i int) *float64 {
			s, ok := c.Value(i)
			if !ok {
				return nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || !finite(v) {
				return nil
			}
			return &v
		}
	}
	return func(int) *float64 { return nil }
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
