package service

import (
	"context"
	"fmt"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/aggregate"
	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/dashboard/query"
	"assembly-dashboard-be/pkg/dashboard/records"

	"github.com/gofiber/fiber/v2"
)

const (
	trendMaxRows      = 200000
	defaultTableLimit = 5000
)

var trendColumns = []string{"year", "quarter", "label_l2", "label_l3", "rows", "docs", "session"}

type ITrendService interface {
	Options(ctx context.Context) (*aggregate.PeriodBounds, error)
	Series(ctx context.Context, params query.Params) (*dto.TrendSeriesResponse, error)
	Compose(params query.Params) (*dto.ComposeQueryResponse, error)
	PartyDomainMetrics(ctx context.Context, page *dto.PageRequest) ([]records.Record, error)
}

type trendService struct {
	repo     contract.AssemblyRepository
	tables   config.Tables
	resolver *hierarchy.Resolver
	fields   records.FieldTable
}

func NewTrendService(repo contract.AssemblyRepository, tables config.Tables, resolver *hierarchy.Resolver) ITrendService {
	return &trendService{
		repo:     repo,
		tables:   tables,
		resolver: resolver,
		fields:   records.DefaultFields(),
	}
}

func (s *trendService) Options(ctx context.Context) (*aggregate.PeriodBounds, error) {
	rows, err := s.repo.FindAllPaged(ctx, s.tables.Trend, trendMaxRows,
		specification.Columns{Names: []string{"year", "quarter", "label_l2"}},
	)
	if err != nil {
		return nil, fmt.Errorf("load trend options: %w", err)
	}
	bounds := aggregate.Bounds(rows, s.fields)
	return &bounds, nil
}

// Series pivots the trend table for params. A trailing preset is resolved against the newest
// quarter present in the table.
func (s *trendService) Series(ctx context.Context, params query.Params) (*dto.TrendSeriesResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, err)
	}
	canonical, err := query.Compose(params)
	if err != nil {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, err)
	}

	rows, err := s.repo.FindAllPaged(ctx, s.tables.Trend, trendMaxRows,
		specification.Columns{Names: trendColumns},
	)
	if err != nil {
		return nil, fmt.Errorf("load trend rows: %w", err)
	}

	res := &dto.TrendSeriesResponse{Params: params, Query: canonical.Encode()}
	period := params.Period
	if period.IsPreset() {
		latest, ok := aggregate.LatestQuarter(rows, s.fields)
		if !ok {
			res.Series = aggregate.Pivot(nil)
			return res, nil
		}
		period = period.Resolve(latest)
	}

	opts := aggregate.TrendOptions{
		From:     period.Start(),
		To:       period.End(),
		Terms:    params.Terms,
		Resolver: s.resolver,
		Grouping: params.Grouping,
		Category: params.Category,
		Metric:   aggregate.MetricRows,
	}
	if params.Mode == query.ModeDocShare {
		opts.Metric = aggregate.MetricDocs
	}
	include := params.Categories
	if params.Grouping == aggregate.BySubcategory {
		include = params.Subcategories
	}

	// Included labels are picked after the shares so the denominator spans every label.
	series := aggregate.Pivot(aggregate.TrendTriples(rows, s.fields, opts))
	if params.Mode == query.ModeShare || params.Mode == query.ModeDocShare {
		series = series.Shares()
	}
	res.Series = series.Keep(include)
	return res, nil
}

func (s *trendService) Compose(params query.Params) (*dto.ComposeQueryResponse, error) {
	q, err := query.Compose(params)
	if err != nil {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, err)
	}
	return &dto.ComposeQueryResponse{Query: q.Encode(), Pairs: q, Map: q.Values()}, nil
}

func (s *trendService) PartyDomainMetrics(ctx context.Context, page *dto.PageRequest) ([]records.Record, error) {
	return s.repo.FindAll(ctx, s.tables.PartyDomainMetrics, pageSpec(page))
}

func pageSpec(page *dto.PageRequest) specification.Pagination {
	limit := page.Limit
	if limit == 0 {
		limit = defaultTableLimit
	}
	return specification.Pagination{Limit: limit, Offset: page.Offset}
}
