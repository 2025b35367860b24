package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 is an in-memory S3API with injectable transient failures.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]string
	failures int
	calls    int
}

func (f *fakeS3) fail() error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("transient: connection reset")
	}
	return nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func newTestS3(client *fakeS3) *S3Storage {
	s := NewS3StorageWithClient(client, "608project", S3Config{MaxRetries: 3})
	s.baseDelay = time.Millisecond
	return s
}

func TestS3Storage_Download(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"nypd_cleaned_2021.parquet": "PAR1"}}
	s := newTestS3(client)

	dst := filepath.Join(t.TempDir(), "p.parquet")
	if err := s.Download(context.Background(), "nypd_cleaned_2021.parquet", dst); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(data) != "PAR1" {
		t.Errorf("content = %q, want %q", data, "PAR1")
	}
	if s.Bucket() != "608project" {
		t.Errorf("Bucket = %q", s.Bucket())
	}
}

func TestS3Storage_DownloadRetriesTransientErrors(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"k": "v"}, failures: 2}
	s := newTestS3(client)

	if err := s.Download(context.Background(), "k", filepath.Join(t.TempDir(), "k")); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestS3Storage_DownloadGivesUpAfterRetries(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"k": "v"}, failures: 10}
	s := newTestS3(client)

	err := s.Download(context.Background(), "k", filepath.Join(t.TempDir(), "k"))
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if client.calls != 4 {
		t.Errorf("calls = %d, want 4", client.calls)
	}
}

func TestS3Storage_DownloadMissingIsNotRetried(t *testing.T) {
	client := &fakeS3{objects: map[string]string{}}
	s := newTestS3(client)

	err := s.Download(context.Background(), "nypd_cleaned_1999.parquet", filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

// closeErrWriter accepts writes and fails on Close, like a file whose
// buffered data could not be flushed.
type closeErrWriter struct {
	strings.Builder
	closed bool
}

func (w *closeErrWriter) Close() error {
	w.closed = true
	return errors.New("close: no space left on device")
}

func TestS3Storage_DownloadReportsCloseError(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"k": "v"}}
	s := newTestS3(client)
	w := &closeErrWriter{}
	s.create = func(string) (io.WriteCloser, error) { return w, nil }

	err := s.Download(context.Background(), "k", "unused")
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "no space left") {
		t.Errorf("close error not reported: %v", err)
	}
	if !w.closed || w.String() != "v" {
		t.Errorf("closed = %v, content = %q", w.closed, w.String())
	}
}

func TestS3Storage_ListObjects(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"data/nypd_cleaned_2019.parquet": "",
		"data/nypd_cleaned_2020.parquet": "",
		"other/x": "",
	}}
	s := newTestS3(client)

	got, err := s.ListObjects(context.Background(), "data/")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListObjects = %v, want 2 entries", got)
	}
}

func TestS3Storage_CancelledContext(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"k": "v"}}
	s := newTestS3(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Download(ctx, "k", filepath.Join(t.TempDir(), "k")); err == nil {
		t.Error("expected error for cancelled context")
	}
	if client.calls != 0 {
		t.Errorf("calls = %d, want 0", client.calls)
	}
}
