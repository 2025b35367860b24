package table

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow/array"
)

// StringBuilder accumulates a dictionary-encoded string column.
// The dictionary is built in first-seen order.
type StringBuilder struct {
	b *array.BinaryDictionaryBuilder
}

// NewStringBuilder creates a builder with room for capacity rows.
func NewStringBuilder(capacity int) *StringBuilder {
	b := array.NewDictionaryBuilder(mem, stringType).(*array.BinaryDictionaryBuilder)
	b.Reserve(capacity)
	return &StringBuilder{b: b}
}

// Append adds a non-null value.
func (b *StringBuilder) Append(v string) {
	// Only fails once the int32 codes overflow.
	if err := b.b.AppendString(v); err != nil {
		panic(fmt.Errorf("table: append %q: %w", v, err))
	}
}

// AppendNull adds a null value.
func (b *StringBuilder) AppendNull() { b.b.AppendNull() }

// AppendNulls adds n null values.
func (b *StringBuilder) AppendNulls(n int) { b.b.AppendNulls(n) }

// Len returns the number of rows appended so far.
func (b *StringBuilder) Len() int { return b.b.Len() }

// Build returns the finished column. The builder must not be used afterwards.
func (b *StringBuilder) Build() *StringColumn {
	defer b.b.Release()
	return newStringColumn(b.b.NewDictionaryArray())
}

// Float64Builder accumulates a nullable float64 column.
type Float64Builder struct {
	b *array.Float64Builder
}

// NewFloat64Builder creates a builder with room for capacity rows.
func NewFloat64Builder(capacity int) *Float64Builder {
	b := array.NewFloat64Builder(mem)
	b.Reserve(capacity)
	return &Float64Builder{b: b}
}

// Append adds a non-null value.
func (b *Float64Builder) Append(v float64) { b.b.Append(v) }

// AppendNull adds a null value.
func (b *Float64Builder) AppendNull() { b.b.AppendNull() }

// AppendNulls adds n null values.
func (b *Float64Builder) AppendNulls(n int) { b.b.AppendNulls(n) }

// Len returns the number of rows appended so far.
func (b *Float64Builder) Len() int { return b.b.Len() }

// Build returns the finished column. The builder must not be used afterwards.
func (b *Float64Builder) Build() *Float64Column {
	defer b.b.Release()
	return &Float64Column{arr: b.b.NewFloat64Array()}
}

// StringColumnOf builds a string column from values; nil entries are null.
func StringColumnOf(values ...*string) *StringColumn {
	b := NewStringBuilder(len(values))
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.Append(*v)
	}
	return b.Build()
}

// Strings builds a string column without nulls.
func Strings(values ...string) *StringColumn {
	b := NewStringBuilder(len(values))
	for _, v := range values {
		b.Append(v)
	}
	return b.Build()
}

// Float64s builds a float64 column without nulls.
func Float64s(values ...float64) *Float64Column {
	b := NewFloat64Builder(len(values))
	b.b.AppendValues(values, nil)
	return b.Build()
}
