package executor

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/logger"
	"github.com/arrestview/arrestview/internal/observability"
	"github.com/arrestview/arrestview/internal/partition"
	"github.com/arrestview/arrestview/internal/table"
	"github.com/arrestview/arrestview/pkg/types"
)

// PartitionLoader loads a single year. Implementations must absorb failures
// into the returned result.
type PartitionLoader interface {
	Load(ctx context.Context, year int) partition.Result
}

// MergeStats describes the outcome of one merge.
type MergeStats struct {
	Requested []int
	Loaded    []int
	Failed    []int
	Rows      int
	Duration  time.Duration
}

// Merger loads several years in parallel and concatenates them.
type Merger struct {
	pool    *Pool
	loader  PartitionLoader
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewMerger creates a merger that runs loads on pool. logger and metrics may be nil.
func NewMerger(pool *Pool, loader PartitionLoader, logger *zap.Logger, metrics *observability.Metrics) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		pool:    pool,
		loader:  loader,
		logger:  logger.Named("merger"),
		metrics: metrics,
	}
}

// Merge loads every distinct year and returns the concatenation of the
// tables that loaded. Years that fail contribute no rows; if none load the
// result is an empty table with no schema. Merge never fails.
func (m *Merger) Merge(ctx context.Context, years []int) (*table.Table, MergeStats) {
	start := time.Now()
	log := logger.FromContextOr(ctx, m.logger)

	years = types.UniqueYears(years)
	stats := MergeStats{Requested: years}
	if len(years) == 0 {
		return table.Empty(), stats
	}

	results := make(chan partition.Result, len(years))
	for _, year := range years {
		err := m.pool.Go(ctx, func() {
			results <- m.loader.Load(ctx, year)
		})
		if err != nil {
			log.Warn("partition load not started", zap.Int("year", year), zap.Error(err))
			results <- partition.Result{
				Year:  year,
				Table: table.Empty(),
				Err:   apperrors.NewPartitionUnavailable(year, err),
			}
		}
	}

	tables := make([]*table.Table, 0, len(years))
	for range years {
		res := <-results
		if res.Err != nil {
			stats.Failed = append(stats.Failed, res.Year)
			continue
		}
		stats.Loaded = append(stats.Loaded, res.Year)
		tables = append(tables, res.Table)
	}

	merged := table.Concat(tables...)
	stats.Rows = merged.NumRows()
	stats.Duration = time.Since(start)

	log.Info("merge completed",
		zap.Ints("requested", stats.Requested),
		zap.Ints("loaded", stats.Loaded),
		zap.Ints("failed", stats.Failed),
		zap.Int("rows", stats.Rows),
		zap.Duration("duration", stats.Duration),
	)
	m.metrics.MergeCompleted(len(stats.Loaded), len(stats.Failed))

	return merged, stats
}
