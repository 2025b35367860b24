package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrestview/arrestview/internal/config"
	"github.com/arrestview/arrestview/internal/storage"
	"github.com/arrestview/arrestview/pkg/types"
)

type arrestRow struct {
	ArrestDate string  `parquet:"ARREST_DATE"`
	ArrestBoro string  `parquet:"ARREST_BORO"`
	Offense    string  `parquet:"OFNS_DESC"`
	Race       string  `parquet:"PERP_RACE"`
	Sex        string  `parquet:"PERP_SEX"`
	AgeGroup   string  `parquet:"AGE_GROUP"`
	Latitude   float64 `parquet:"Latitude"`
	Longitude  float64 `parquet:"Longitude"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Query.Workers = 2
	cfg.Resolve()
	return cfg
}

func writePartition(t *testing.T, cfg *config.Config, year int, rows []arrestRow) {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.Storage.Path, 0755))
	path := filepath.Join(cfg.Storage.Path, fmt.Sprintf(cfg.Storage.ObjectTemplate, year))
	require.NoError(t, parquet.WriteFile(path, rows))
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "ftp"

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestApp_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writePartition(t, cfg, 2019, []arrestRow{
		{"2019-02-01", "M", "ROBBERY", "BLACK", "M", "25-44", 40.75, -73.99},
		{"2019-02-02", "Q", "ROBBERY", "WHITE", "F", "18-24", 40.72, -73.80},
	})
	writePartition(t, cfg, 2020, []arrestRow{
		{"2020-05-01", "M", "FELONY ASSAULT", "BLACK", "M", "25-44", 40.76, -73.98},
	})

	a, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx)
	})

	h := a.Handler()
	require.NotNil(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(`{
		"years": [2019, 2020, 2021],
		"boroughs": ["MANHATTAN", "QUEENS"],
		"offenses": ["ROBBERY", "FELONY ASSAULT"],
		"ethnicities": ["BLACK"],
		"genders": ["M"],
		"age_categories": ["25-44"]
	}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var records []types.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "M", r.ArrestBoro)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/years", nil))
	assert.JSONEq(t, `{"years": [2019, 2020]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data-summary?year=2019", nil))
	var sum types.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 2, sum.TotalRecords)
	assert.Equal(t, []string{"M", "Q"}, sum.Boroughs)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `arrestview_partition_loads_total`)
	assert.Contains(t, rec.Body.String(), `go_goroutines`)
}

func TestApp_StartTwice(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop(context.Background())

	assert.Error(t, a.Start(context.Background()))
}

func TestApp_StopWithoutStart(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	assert.NoError(t, a.Stop(context.Background()))
}

func TestS3StorageConfig(t *testing.T) {
	t.Run("zero retries disables retrying", func(t *testing.T) {
		got := s3StorageConfig(config.S3Config{Bucket: "b", MaxRetries: 0})
		assert.Equal(t, 0, got.MaxRetries)
	})

	t.Run("defaults", func(t *testing.T) {
		got := s3StorageConfig(config.DefaultConfig().Storage.S3)
		assert.Equal(t, 3, got.MaxRetries)
		assert.Equal(t, storage.DefaultS3Config().Region, got.Region)
	})

	t.Run("overrides", func(t *testing.T) {
		got := s3StorageConfig(config.S3Config{
			Region:       "eu-west-1",
			Endpoint:     "http://localhost:9000",
			UsePathStyle: true,
			MaxRetries:   5,
		})
		assert.Equal(t, "eu-west-1", got.Region)
		assert.Equal(t, "http://localhost:9000", got.Endpoint)
		assert.True(t, got.UsePathStyle)
		assert.Equal(t, 5, got.MaxRetries)
	})
}
