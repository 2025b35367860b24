package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func seed(t *testing.T, s *LocalStorage, objectPath string, content []byte) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "src")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	if err := s.Upload(context.Background(), src, objectPath); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
}

func TestLocalStorage_UploadDownload(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	ctx := context.Background()
	content := []byte("hello world")
	objectPath := "data/nypd_cleaned_2020.parquet"
	seed(t, storage, objectPath, content)

	dstPath := filepath.Join(t.TempDir(), "nested", "downloaded.parquet")
	if err := storage.Download(ctx, objectPath, dstPath); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	downloaded, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(downloaded) != string(content) {
		t.Errorf("content mismatch: got %q, want %q", downloaded, content)
	}
}

func TestLocalStorage_DownloadMissing(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	err = storage.Download(context.Background(), "nypd_cleaned_1999.parquet", filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	seed(t, storage, "a.parquet", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := storage.Download(ctx, "a.parquet", filepath.Join(t.TempDir(), "a")); !errors.Is(err, context.Canceled) {
		t.Errorf("Download: expected context.Canceled, got %v", err)
	}
	if _, err := storage.ListObjects(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("ListObjects: expected context.Canceled, got %v", err)
	}
}

func TestLocalStorage_ListObjects(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	for _, p := range []string{
		"nypd_cleaned_2006.parquet",
		"nypd_cleaned_2007.parquet",
		"archive/nypd_cleaned_2005.parquet",
		"readme.txt",
	} {
		seed(t, storage, p, []byte(p))
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"archive/nypd_cleaned_2005.parquet", "nypd_cleaned_2006.parquet", "nypd_cleaned_2007.parquet", "readme.txt"}},
		{"nypd_", []string{"nypd_cleaned_2006.parquet", "nypd_cleaned_2007.parquet"}},
		{"archive/", []string{"archive/nypd_cleaned_2005.parquet"}},
		{"missing/", nil},
	}

	for _, tt := range tests {
		got, err := storage.ListObjects(context.Background(), tt.prefix)
		if err != nil {
			t.Fatalf("ListObjects(%q) failed: %v", tt.prefix, err)
		}
		sort.Strings(got)
		if len(got) != len(tt.want) {
			t.Errorf("ListObjects(%q) = %v, want %v", tt.prefix, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ListObjects(%q)[%d] = %q, want %q", tt.prefix, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLocalStorage_Path(t *testing.T) {
	base := t.TempDir()
	storage, err := NewLocalStorage(base)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	want := filepath.Join(base, "x", "y.parquet")
	if got := storage.Path("x/y.parquet"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}
