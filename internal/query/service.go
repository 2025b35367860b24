// Package query is the boundary between transports and the arrestview query
// core. It composes partition loading, merging, filtering and summarizing.
package query

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/logger"
	"github.com/arrestview/arrestview/internal/observability"
	"github.com/arrestview/arrestview/internal/partition"
	"github.com/arrestview/arrestview/internal/query/aggregator"
	"github.com/arrestview/arrestview/internal/query/executor"
	"github.com/arrestview/arrestview/internal/query/filter"
	"github.com/arrestview/arrestview/internal/storage"
	"github.com/arrestview/arrestview/pkg/types"
)

// FilterRequest is a multi-year filter query. Borough values may be full
// names or single-letter codes. A dimension left empty matches no rows.
type FilterRequest struct {
	Years         []int    `json:"years"`
	Boroughs      []string `json:"boroughs"`
	Offenses      []string `json:"offenses"`
	Ethnicities   []string `json:"ethnicities"`
	Genders       []string `json:"genders"`
	AgeCategories []string `json:"age_categories"`
}

// Predicate returns the filter predicate of the request, with borough names
// mapped to codes.
func (r FilterRequest) Predicate() filter.Predicate {
	return filter.Predicate{
		Areas:     types.BoroughCodes(r.Boroughs),
		Offenses:  r.Offenses,
		Races:     r.Ethnicities,
		Sexes:     r.Genders,
		AgeGroups: r.AgeCategories,
	}
}

// Options holds the dependencies of a Service.
type Options struct {
	// Loader loads single years. Required.
	Loader executor.PartitionLoader

	// Pool runs partition loads. Shared by every request.
	Pool *executor.Pool

	// Storage and Layout are used to discover which years exist.
	Storage storage.ObjectStorage
	Layout  partition.Layout

	Stats   *observability.QueryStats
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Service answers filter, records, summary and year-listing queries.
// It is safe for concurrent use.
type Service struct {
	loader     executor.PartitionLoader
	merger     *executor.Merger
	aggregator *aggregator.Aggregator
	storage    storage.ObjectStorage
	layout     partition.Layout
	stats      *observability.QueryStats
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewService creates a query service.
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pool := opts.Pool
	if pool == nil {
		pool = executor.NewPool(executor.DefaultPoolSize, executor.WithMetrics(opts.Metrics))
	}
	return &Service{
		loader:     opts.Loader,
		merger:     executor.NewMerger(pool, opts.Loader, log, opts.Metrics),
		aggregator: aggregator.New(opts.Loader, log),
		storage:    opts.Storage,
		layout:     opts.Layout,
		stats:      opts.Stats,
		metrics:    opts.Metrics,
		logger:     log.Named("query"),
	}
}

// Filter merges the requested years and returns the rows matching every
// dimension of the request. Years that cannot be loaded contribute nothing.
func (s *Service) Filter(ctx context.Context, req FilterRequest) ([]types.Record, error) {
	s.recordUsage(req)

	merged, _ := s.merger.Merge(ctx, req.Years)

	out, err := filter.Apply(merged, req.Predicate())
	if err != nil {
		s.logFailure(ctx, "filter failed", err, zap.Ints("years", req.Years))
		return nil, err
	}

	records, err := filter.Records(out)
	if err != nil {
		s.logFailure(ctx, "projection failed", err, zap.Ints("years", req.Years))
		return nil, err
	}
	s.metrics.FilterCompleted(len(records))
	return records, nil
}

// Records returns every row of a single year projected to the result columns.
// A year that cannot be loaded yields no rows.
func (s *Service) Records(ctx context.Context, year int) ([]types.Record, error) {
	s.stats.RecordYears([]int{year})

	res := s.loader.Load(ctx, year)
	if res.Err != nil {
		return []types.Record{}, nil
	}

	projected, err := res.Table.Select(types.ResultColumns...)
	if err != nil {
		mismatch := apperrors.NewSchemaMismatch(res.Table.Missing(types.ResultColumns...))
		s.logFailure(ctx, "projection failed", mismatch, zap.Int("year", year))
		return nil, mismatch
	}

	records, err := filter.Records(projected)
	if err != nil {
		s.logFailure(ctx, "projection failed", err, zap.Int("year", year))
		return nil, err
	}
	return records, nil
}

// Summary returns the row count and distinct dimension values of one year.
func (s *Service) Summary(ctx context.Context, year int) types.Summary {
	s.stats.RecordYears([]int{year})
	return s.aggregator.Summarize(ctx, year)
}

// Years lists the years that have a partition in storage, in ascending order.
func (s *Service) Years(ctx context.Context) ([]int, error) {
	if s.storage == nil {
		return []int{}, nil
	}

	objects, err := s.storage.ListObjects(ctx, s.layout.ListPrefix())
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.CodeDownloadFailed, "failed to list partitions", err)
	}

	years := make([]int, 0, len(objects))
	for _, obj := range objects {
		if year, ok := s.layout.ParseYear(obj); ok {
			years = append(years, year)
		}
	}
	return types.UniqueYears(years), nil
}

// Stats returns the filter usage statistics, or nil if none are tracked.
func (s *Service) Stats() *observability.QueryStats { return s.stats }

func (s *Service) recordUsage(req FilterRequest) {
	if s.stats == nil {
		return
	}
	s.stats.RecordYears(types.UniqueYears(req.Years))
	values := map[string][]string{
		"boroughs":       types.BoroughCodes(req.Boroughs),
		"offenses":       req.Offenses,
		"ethnicities":    req.Ethnicities,
		"genders":        req.Genders,
		"age_categories": req.AgeCategories,
	}
	for _, d := range types.Dimensions {
		if v := values[d.Key]; len(v) > 0 {
			s.stats.RecordDimension(d.Key, v)
		}
	}
}

func (s *Service) logFailure(ctx context.Context, msg string, err error, fields ...zap.Field) {
	log := logger.FromContextOr(ctx, s.logger)
	if apperrors.GetCode(err) == apperrors.CodeSchemaMismatch {
		s.metrics.SchemaMismatch()
		log.Error("schema mismatch", append(fields, zap.Error(err))...)
		return
	}
	log.Error(msg, append(fields, zap.Error(err))...)
}
