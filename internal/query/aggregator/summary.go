// Package aggregator computes per-year summary statistics used to populate
// filter choices.
package aggregator

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/arrestview/arrestview/internal/logger"
	"github.com/arrestview/arrestview/internal/partition"
	"github.com/arrestview/arrestview/internal/table"
	"github.com/arrestview/arrestview/pkg/types"
)

// PartitionLoader loads a single year.
type PartitionLoader interface {
	Load(ctx context.Context, year int) partition.Result
}

// Aggregator summarizes single-year partitions.
type Aggregator struct {
	loader PartitionLoader
	logger *zap.Logger
}

// New creates an aggregator. logger may be nil.
func New(loader PartitionLoader, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{loader: loader, logger: logger.Named("aggregator")}
}

// Summarize loads year and summarizes it. A partition that cannot be loaded
// yields a zero count and empty value lists.
func (a *Aggregator) Summarize(ctx context.Context, year int) types.Summary {
	res := a.loader.Load(ctx, year)
	if res.Err != nil {
		return types.EmptySummary()
	}

	summary, missing := summarize(res.Table)
	if len(missing) > 0 {
		logger.FromContextOr(ctx, a.logger).Warn("summary dimensions missing",
			zap.Int("year", year),
			zap.Strings("columns", missing),
		)
	}
	return summary
}

// Summarize returns the row count of t and the distinct non-null values of
// each categorical dimension in first-seen order. Dimensions whose column
// is absent produce empty lists.
func Summarize(t *table.Table) types.Summary {
	s, _ := summarize(t)
	return s
}

func summarize(t *table.Table) (types.Summary, []string) {
	s := types.EmptySummary()
	s.TotalRecords = t.NumRows()
	if !t.HasSchema() {
		return s, nil
	}

	var missing []string
	for _, d := range types.Dimensions {
		col, ok := t.Column(d.Column)
		if !ok {
			missing = append(missing, d.Column)
			continue
		}
		s.SetDistinct(d.Column, distinct(col))
	}
	return s, missing
}

func distinct(col table.Column) []string {
	switch c := col.(type) {
	case *table.StringColumn:
		return c.Distinct()
	case *table.Float64Column:
		seen := make(map[float64]bool)
		out := []string{}
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Value(i)
			if !ok || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		}
		return out
	}
	return []string{}
}
