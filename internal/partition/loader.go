package partition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/observability"
	"github.com/arrestview/arrestview/internal/storage"
	"github.com/arrestview/arrestview/internal/table"
)

// DefaultTimeout bounds a single partition download and decode.
const DefaultTimeout = 60 * time.Second

// Result is the outcome of loading one year.
// On failure Table is an empty table with no schema and Err is a
// PARTITION_UNAVAILABLE error describing the cause.
type Result struct {
	Year     int
	Table    *table.Table
	Err      error
	Duration time.Duration
}

// OK reports whether the partition was loaded.
func (r Result) OK() bool { return r.Err == nil }

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Layout maps years to object paths.
	Layout Layout

	// DownloadDir holds partition files while they are decoded.
	// Empty means the system temporary directory.
	DownloadDir string

	// Timeout bounds each load. Zero means DefaultTimeout; negative disables it.
	Timeout time.Duration
}

// Loader fetches yearly partitions from object storage and decodes them.
// It is safe for concurrent use.
type Loader struct {
	storage     storage.ObjectStorage
	layout      Layout
	downloadDir string
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewLoader creates a partition loader. logger and metrics may be nil.
func NewLoader(store storage.ObjectStorage, cfg LoaderConfig, logger *zap.Logger, metrics *observability.Metrics) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		storage:     store,
		layout:      cfg.Layout,
		downloadDir: cfg.DownloadDir,
		timeout:     timeout,
		logger:      logger.Named("partition"),
		metrics:     metrics,
	}
}

// Load fetches and decodes the partition for year. It never fails: any error
// is logged and reported through Result.Err alongside an empty table.
func (l *Loader) Load(ctx context.Context, year int) Result {
	start := time.Now()
	objectPath := l.layout.ObjectPath(year)

	t, err := l.load(ctx, year, objectPath)
	res := Result{Year: year, Duration: time.Since(start)}

	if err != nil {
		res.Table = table.Empty()
		res.Err = apperrors.NewPartitionUnavailable(year, err)
		l.logger.Warn("partition unavailable",
			zap.Int("year", year),
			zap.String("object", objectPath),
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		)
		l.metrics.PartitionUnavailable(year, res.Duration)
		return res
	}

	res.Table = t
	l.logger.Info("partition loaded",
		zap.Int("year", year),
		zap.String("object", objectPath),
		zap.Int("rows", t.NumRows()),
		zap.Strings("columns", t.ColumnNames()),
		zap.Duration("duration", res.Duration),
	)
	l.metrics.PartitionLoaded(year, res.Duration, t.NumRows())
	return res
}

func (l *Loader) load(ctx context.Context, year int, objectPath string) (*table.Table, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if l.downloadDir != "" {
		if err := os.MkdirAll(l.downloadDir, 0755); err != nil {
			return nil, apperrors.NewStorageError(apperrors.CodeDownloadFailed, "failed to create download directory", err)
		}
	}

	tmp, err := os.CreateTemp(l.downloadDir, fmt.Sprintf("%d-*-%s", year, l.layout.localName(year)))
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.CodeDownloadFailed, "failed to create download file", err)
	}
	localPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(localPath)

	if err := l.storage.Download(ctx, objectPath, localPath); err != nil {
		return nil, downloadError(ctx, objectPath, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.CodeDownloadFailed, "failed to open downloaded partition", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.CodeDownloadFailed, "failed to stat downloaded partition", err)
	}

	t, err := decode(ctx, f, info.Size())
	if err != nil {
		if timeoutErr := timeoutError(ctx, err); timeoutErr != nil {
			return nil, timeoutErr
		}
		return nil, apperrors.NewStorageError(apperrors.CodeDecodeFailed,
			fmt.Sprintf("failed to decode %s", objectPath), err)
	}
	if timeoutErr := timeoutError(ctx, ctx.Err()); timeoutErr != nil {
		return nil, timeoutErr
	}
	return t, nil
}

// downloadError maps a storage failure to a structured error.
func downloadError(ctx context.Context, objectPath string, err error) error {
	if timeoutErr := timeoutError(ctx, err); timeoutErr != nil {
		return timeoutErr
	}
	if errors.Is(err, storage.ErrObjectNotFound) {
		return apperrors.NewStorageError(apperrors.CodeObjectNotFound,
			fmt.Sprintf("object %s not found", objectPath), err)
	}
	return apperrors.NewStorageError(apperrors.CodeDownloadFailed,
		fmt.Sprintf("failed to download %s", objectPath), err)
}

// timeoutError returns an EXECUTION_TIMEOUT error if the load deadline passed.
func timeoutError(ctx context.Context, err error) error {
	if err == nil || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrCategoryQuery, apperrors.CodeExecutionTimeout,
		"partition load timed out", err)
}
