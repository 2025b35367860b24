package partition

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/storage"
)

func newTestLoader(t *testing.T) (*Loader, *storage.LocalStorage, *observer.ObservedLogs) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	core, logs := observer.New(zapcore.InfoLevel)
	loader := NewLoader(store, LoaderConfig{
		Layout:      DefaultLayout(),
		DownloadDir: t.TempDir(),
		Timeout:     5 * time.Second,
	}, zap.New(core), nil)
	return loader, store, logs
}

func TestLoader_Load(t *testing.T) {
	loader, store, logs := newTestLoader(t)

	src := writeParquet(t, t.TempDir(), "src.parquet", sampleRows())
	if err := store.Upload(context.Background(), src, "nypd_cleaned_2020.parquet"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	res := loader.Load(context.Background(), 2020)
	if !res.OK() {
		t.Fatalf("Load failed: %v", res.Err)
	}
	if res.Year != 2020 || res.Table.NumRows() != 3 {
		t.Errorf("unexpected result: year=%d rows=%d", res.Year, res.Table.NumRows())
	}

	entries := logs.FilterMessage("partition loaded").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 'partition loaded' entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["year"] != int64(2020) {
		t.Errorf("log year = %v", entries[0].ContextMap()["year"])
	}
	if entries[0].ContextMap()["rows"] != int64(3) {
		t.Errorf("log rows = %v", entries[0].ContextMap()["rows"])
	}
}

func TestLoader_LoadFailures(t *testing.T) {
	loader, store, logs := newTestLoader(t)

	bad := filepath.Join(t.TempDir(), "bad.parquet")
	if err := os.WriteFile(bad, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Upload(context.Background(), bad, "nypd_cleaned_2022.parquet"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	tests := []struct {
		name      string
		year      int
		causeCode string
	}{
		{"missing object", 2021, apperrors.CodeObjectNotFound},
		{"malformed file", 2022, apperrors.CodeDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := loader.Load(context.Background(), tt.year)
			if res.OK() {
				t.Fatal("expected failure")
			}
			if res.Table == nil || res.Table.HasSchema() || res.Table.NumRows() != 0 {
				t.Error("failed load must yield an empty table without schema")
			}
			if apperrors.GetCode(res.Err) != apperrors.CodePartitionUnavailable {
				t.Errorf("code = %s, want PARTITION_UNAVAILABLE", apperrors.GetCode(res.Err))
			}
			if !apperrors.HasCode(res.Err, tt.causeCode) {
				t.Errorf("expected cause %s in %v", tt.causeCode, res.Err)
			}
		})
	}

	warnings := logs.FilterMessage("partition unavailable").All()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
	for _, w := range warnings {
		if w.Level != zapcore.WarnLevel {
			t.Errorf("level = %v, want warn", w.Level)
		}
	}
}

// slowStorage blocks until the context is done.
type slowStorage struct{ storage.ObjectStorage }

func (slowStorage) Download(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestLoader_Timeout(t *testing.T) {
	loader := NewLoader(slowStorage{}, LoaderConfig{
		DownloadDir: t.TempDir(),
		Timeout:     20 * time.Millisecond,
	}, nil, nil)

	res := loader.Load(context.Background(), 2020)
	if res.OK() {
		t.Fatal("expected timeout failure")
	}
	if !apperrors.HasCode(res.Err, apperrors.CodeExecutionTimeout) {
		t.Errorf("expected EXECUTION_TIMEOUT cause, got %v", res.Err)
	}
}

func TestLoader_RemovesDownloadedFile(t *testing.T) {
	loader, store, _ := newTestLoader(t)
	downloadDir := loader.downloadDir

	src := writeParquet(t, t.TempDir(), "src.parquet", sampleRows())
	if err := store.Upload(context.Background(), src, "nypd_cleaned_2020.parquet"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	loader.Load(context.Background(), 2020)
	loader.Load(context.Background(), 2019)

	entries, err := os.ReadDir(downloadDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("download dir should be empty, found %d entries", len(entries))
	}
}
