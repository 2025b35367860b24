package table

import (
	"context"
	"fmt"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/compute"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// mem backs every array of the package. Arrays are left to the garbage
// collector instead of being released.
var mem memory.Allocator = memory.NewGoAllocator()

// stringType is the arrow type of string columns: int32 codes into a
// dictionary of distinct values.
var stringType = &arrow.DictionaryType{
	IndexType: arrow.PrimitiveTypes.Int32,
	ValueType: arrow.BinaryTypes.String,
}

// Kind is the logical type of a column.
type Kind int

const (
	KindString Kind = iota
	KindFloat64
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// Column is a single immutable, typed column of a Table.
type Column interface {
	Kind() Kind
	Len() int
	IsNull(i int) bool
	// Take returns a new column holding the rows at the given indexes, in order.
	Take(rows []int) Column
	// Array returns the arrow array holding the column.
	Array() arrow.Array

	// selectRows applies a row selection kernel to the column's values.
	selectRows(sel selector) Column
}

// selector picks rows out of an array, e.g. compute.TakeArray with a fixed
// index array.
type selector func(values arrow.Array) arrow.Array

func takeSelector(rows []int) selector {
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.Reserve(len(rows))
	for _, r := range rows {
		b.Append(int64(r))
	}
	indices := b.NewInt64Array()

	return func(values arrow.Array) arrow.Array {
		out, err := compute.TakeArray(context.Background(), values, indices)
		if err != nil {
			panic(fmt.Errorf("table: take: %w", err))
		}
		return out
	}
}

func filterSelector(keep []bool) selector {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.AppendValues(keep, nil)
	mask := b.NewBooleanArray()

	return func(values arrow.Array) arrow.Array {
		out, err := compute.FilterArray(context.Background(), values, mask, compute.FilterOptions{})
		if err != nil {
			panic(fmt.Errorf("table: filter: %w", err))
		}
		return out
	}
}

// nullCode marks a null entry in a StringColumn.
const nullCode int32 = -1

// StringColumn is a dictionary-encoded string column.
// Codes index into Dict; a code of -1 is null.
type StringColumn struct {
	arr   *array.Dictionary
	codes *array.Int32
	dict  []string
}

func newStringColumn(arr *array.Dictionary) *StringColumn {
	values := arr.Dictionary().(*array.String)
	dict := make([]string, values.Len())
	for i := range dict {
		dict[i] = values.Value(i)
	}
	return &StringColumn{arr: arr, codes: arr.Indices().(*array.Int32), dict: dict}
}

func (c *StringColumn) Kind() Kind { return KindString }

func (c *StringColumn) Len() int { return c.arr.Len() }

func (c *StringColumn) IsNull(i int) bool { return c.codes.IsNull(i) }

func (c *StringColumn) Array() arrow.Array { return c.arr }

// Value returns the string at row i and false if it is null.
func (c *StringColumn) Value(i int) (string, bool) {
	code := c.Code(i)
	if code == nullCode {
		return "", false
	}
	return c.dict[code], true
}

// Code returns the dictionary code at row i (-1 for null).
func (c *StringColumn) Code(i int) int32 {
	if c.codes.IsNull(i) {
		return nullCode
	}
	return c.codes.Value(i)
}

// Dict returns the column dictionary. It may hold values no row references.
func (c *StringColumn) Dict() []string { return c.dict }

// Take shares the dictionary with the receiver.
func (c *StringColumn) Take(rows []int) Column {
	return c.selectRows(takeSelector(rows))
}

// selectRows runs the kernel over the codes only; the dictionary is shared.
func (c *StringColumn) selectRows(sel selector) Column {
	codes := sel(c.codes)
	arr := array.NewDictionaryArray(stringType, codes, c.arr.Dictionary())
	return &StringColumn{arr: arr, codes: arr.Indices().(*array.Int32), dict: c.dict}
}

// Distinct returns the non-null values in the order they first appear in the rows.
func (c *StringColumn) Distinct() []string {
	seen := make([]bool, len(c.dict))
	out := make([]string, 0, len(c.dict))
	for i := 0; i < c.Len(); i++ {
		code := c.Code(i)
		if code == nullCode || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, c.dict[code])
	}
	return out
}

// Mask returns, for every dictionary code, whether its value is in allowed.
func (c *StringColumn) Mask(allowed map[string]struct{}) []bool {
	mask := make([]bool, len(c.dict))
	for code, v := range c.dict {
		_, mask[code] = allowed[v]
	}
	return mask
}

// Float64Column is a nullable float64 column.
type Float64Column struct {
	arr *array.Float64
}

func (c *Float64Column) Kind() Kind { return KindFloat64 }

func (c *Float64Column) Len() int { return c.arr.Len() }

func (c *Float64Column) IsNull(i int) bool { return c.arr.IsNull(i) }

func (c *Float64Column) Array() arrow.Array { return c.arr }

// Value returns the float at row i and false if it is null.
func (c *Float64Column) Value(i int) (float64, bool) {
	if c.arr.IsNull(i) {
		return 0, false
	}
	return c.arr.Value(i), true
}

func (c *Float64Column) Take(rows []int) Column {
	return c.selectRows(takeSelector(rows))
}

func (c *Float64Column) selectRows(sel selector) Column {
	return &Float64Column{arr: sel(c.arr).(*array.Float64)}
}

// formatFloat renders a float the way it is shown when a numeric column is
// merged with a string column of the same name.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
