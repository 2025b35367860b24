package aggregator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/partition"
	"github.com/arrestview/arrestview/internal/table"
	"github.com/arrestview/arrestview/pkg/types"
)

func strPtr(s string) *string { return &s }

func sample() *table.Table {
	return table.MustNew(
		table.Field{Name: types.ColumnArrestBoro, Column: table.StringColumnOf(strPtr("M"), strPtr("K"), strPtr("M"), nil)},
		table.Field{Name: types.ColumnOffense, Column: table.Strings("ROBBERY", "ASSAULT", "ROBBERY", "THEFT")},
		table.Field{Name: types.ColumnRace, Column: table.Strings("BLACK", "BLACK", "WHITE", "WHITE")},
		table.Field{Name: types.ColumnSex, Column: table.Strings("M", "F", "M", "M")},
		table.Field{Name: types.ColumnAgeGroup, Column: table.Float64s(25, 18, 25, 45)},
	)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())

	if s.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d, want 4", s.TotalRecords)
	}
	checks := []struct {
		name string
		got  []string
		want []string
	}{
		{"boroughs", s.Boroughs, []string{"M", "K"}},
		{"offenses", s.Offenses, []string{"ROBBERY", "ASSAULT", "THEFT"}},
		{"ethnicities", s.Ethnicities, []string{"BLACK", "WHITE"}},
		{"genders", s.Genders, []string{"M", "F"}},
		{"age_categories", s.AgeCategories, []string{"25", "18", "45"}},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestSummarize_EmptyTable(t *testing.T) {
	s := Summarize(table.Empty())
	if !reflect.DeepEqual(s, types.EmptySummary()) {
		t.Errorf("unexpected summary: %+v", s)
	}
}

type stubLoader struct{ res partition.Result }

func (s stubLoader) Load(_ context.Context, year int) partition.Result {
	r := s.res
	r.Year = year
	return r
}

func TestAggregator_LoadFailure(t *testing.T) {
	a := New(stubLoader{res: partition.Result{
		Table: table.Empty(),
		Err:   apperrors.NewPartitionUnavailable(2022, errors.New("boom")),
	}}, nil)

	s := a.Summarize(context.Background(), 2022)
	if s.TotalRecords != 0 {
		t.Errorf("TotalRecords = %d, want 0", s.TotalRecords)
	}
	if s.Boroughs == nil || len(s.Boroughs) != 0 {
		t.Errorf("Boroughs = %v, want empty list", s.Boroughs)
	}
}

func TestAggregator_MissingDimensionIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tbl := table.MustNew(
		table.Field{Name: types.ColumnArrestBoro, Column: table.Strings("Q", "Q")},
	)
	a := New(stubLoader{res: partition.Result{Table: tbl}}, zap.New(core))

	s := a.Summarize(context.Background(), 2015)
	if s.TotalRecords != 2 || !reflect.DeepEqual(s.Boroughs, []string{"Q"}) {
		t.Errorf("unexpected summary: %+v", s)
	}
	if len(s.Offenses) != 0 || s.Offenses == nil {
		t.Errorf("missing dimension should be an empty list, got %v", s.Offenses)
	}

	entries := logs.FilterMessage("summary dimensions missing").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(entries))
	}
}
