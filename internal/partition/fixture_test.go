package partition

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
)

type arrestRow struct {
	ArrestDate time.Time `parquet:"ARREST_DATE,timestamp(millisecond)"`
	ArrestBoro *string   `parquet:"ARREST_BORO"`
	Offense    string    `parquet:"OFNS_DESC"`
	Race       string    `parquet:"PERP_RACE"`
	Sex        string    `parquet:"PERP_SEX"`
	AgeGroup   string    `parquet:"AGE_GROUP"`
	Latitude   *float64  `parquet:"Latitude"`
	Longitude  *float64  `parquet:"Longitude"`
	Index      int64     `parquet:"__index_level_0__"`
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func sampleRows() []arrestRow {
	return []arrestRow{
		{
			ArrestDate: time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC),
			ArrestBoro: strPtr("M"),
			Offense:    "ROBBERY",
			Race:       "BLACK",
			Sex:        "M",
			AgeGroup:   "25-44",
			Latitude:   floatPtr(40.75),
			Longitude:  floatPtr(-73.99),
			Index:      0,
		},
		{
			ArrestDate: time.Date(2020, 3, 17, 12, 30, 0, 0, time.UTC),
			ArrestBoro: nil,
			Offense:    "FELONY ASSAULT",
			Race:       "WHITE",
			Sex:        "F",
			AgeGroup:   "18-24",
			Latitude:   nil,
			Longitude:  nil,
			Index:      1,
		},
		{
			ArrestDate: time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
			ArrestBoro: strPtr("K"),
			Offense:    "ROBBERY",
			Race:       "BLACK",
			Sex:        "M",
			AgeGroup:   "25-44",
			Latitude:   floatPtr(40.65),
			Longitude:  floatPtr(-73.95),
			Index:      2,
		},
	}
}

// writeParquet writes rows to dir/name and returns the path.
func writeParquet[T any](t *testing.T, dir, name string, rows []T) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("failed to write parquet fixture: %v", err)
	}
	return path
}

func openFile(t *testing.T, path string) (*os.File, int64) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	t.Cleanup(func() { f.Close() })
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	return f, info.Size()
}
