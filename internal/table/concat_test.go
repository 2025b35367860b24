package table

import (
	"testing"
)

func TestConcat_UnionSchema(t *testing.T) {
	a := MustNew(
		Field{Name: "boro", Column: Strings("M", "K")},
		Field{Name: "lat", Column: Float64s(40.1, 40.2)},
	)
	b := MustNew(
		Field{Name: "boro", Column: Strings("Q")},
		Field{Name: "sex", Column: Strings("F")},
	)

	out := Concat(a, Empty(), b)
	if out.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.NumRows())
	}
	names := out.ColumnNames()
	if len(names) != 3 || names[0] != "boro" || names[1] != "lat" || names[2] != "sex" {
		t.Errorf("unexpected columns %v", names)
	}

	lat, ok := out.Float64Column("lat")
	if !ok {
		t.Fatal("lat should stay a float64 column")
	}
	if !lat.IsNull(2) {
		t.Error("row from table without lat should be null")
	}

	sex, _ := out.StringColumn("sex")
	if !sex.IsNull(0) || !sex.IsNull(1) {
		t.Error("rows from table without sex should be null")
	}
	if v, _ := sex.Value(2); v != "F" {
		t.Errorf("row 2 sex: got %q, want F", v)
	}

	boro, _ := out.StringColumn("boro")
	if got := boro.Distinct(); len(got) != 3 {
		t.Errorf("expected 3 distinct boroughs, got %v", got)
	}
}

func TestConcat_KindConflictBecomesString(t *testing.T) {
	a := MustNew(Field{Name: "code", Column: Float64s(101, 2.5)})
	b := MustNew(Field{Name: "code", Column: Strings("X")})

	out := Concat(a, b)
	col, ok := out.StringColumn("code")
	if !ok {
		t.Fatal("conflicting kinds should produce a string column")
	}
	want := []string{"101", "2.5", "X"}
	for i, w := range want {
		if v, _ := col.Value(i); v != w {
			t.Errorf("row %d: got %q, want %q", i, v, w)
		}
	}
}

func TestConcat_AllEmpty(t *testing.T) {
	out := Concat(Empty(), nil, Empty())
	if out.HasSchema() || out.NumRows() != 0 {
		t.Errorf("expected schema-less empty table, got %d columns %d rows", out.NumColumns(), out.NumRows())
	}
	if Concat().NumRows() != 0 {
		t.Error("concat of nothing should be empty")
	}
}

func TestConcat_KeepsZeroRowSchema(t *testing.T) {
	a := MustNew(Field{Name: "boro", Column: Strings()})
	out := Concat(a, Empty())
	if !out.HasSchema() {
		t.Error("a zero-row table with columns should keep its schema")
	}
	if out.NumRows() != 0 {
		t.Errorf("expected 0 rows, got %d", out.NumRows())
	}
}

func TestConcat_FloatColumnsKeepNulls(t *testing.T) {
	b := NewFloat64Builder(2)
	b.AppendNull()
	b.Append(40.2)
	a := MustNew(Field{Name: "lat", Column: b.Build()})
	c := MustNew(Field{Name: "lat", Column: Float64s(40.3)}, Field{Name: "boro", Column: Strings("Q")})
	d := MustNew(Field{Name: "boro", Column: Strings("K", "M")})

	out := Concat(a, c, d)
	lat, ok := out.Float64Column("lat")
	if !ok {
		t.Fatal("lat should stay a float64 column")
	}
	if lat.Len() != 5 {
		t.Fatalf("lat has %d rows, want 5", lat.Len())
	}
	if got := lat.Array().NullN(); got != 3 {
		t.Errorf("null count = %d, want 3", got)
	}
	if v, ok := lat.Value(2); !ok || v != 40.3 {
		t.Errorf("row 2 lat = %v/%v, want 40.3", v, ok)
	}
}
