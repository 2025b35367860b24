// Package storage provides read-only object storage access for partition files.
package storage

import (
	"context"
	"errors"
	"io"
	"os"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrDownloadFailed = errors.New("download failed")
	ErrListFailed     = errors.New("list failed")
)

// ObjectStorage abstracts the object store holding the yearly partitions.
// Implementations include S3 and the local filesystem for testing and
// development. Implementations must be safe for concurrent use; the query
// core only ever reads through this interface.
type ObjectStorage interface {
	// Download copies an object to a local file.
	// objectPath is the source path in object storage.
	// localPath is the destination path on the local filesystem.
	// Returns ErrObjectNotFound if the object does not exist.
	Download(ctx context.Context, objectPath, localPath string) error

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// copyAndClose copies r into w and closes w. A failed Close is reported
// because buffered data may not have reached the file.
func copyAndClose(w io.WriteCloser, r io.Reader) error {
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func createFile(name string) (io.WriteCloser, error) { return os.Create(name) }
