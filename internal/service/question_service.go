package service

import (
	"context"
	"fmt"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/aggregate"
	"assembly-dashboard-be/pkg/dashboard/records"
)

const (
	defaultRankLimit = 10
	questionMaxRows  = 50000
)

type IQuestionService interface {
	Stats(ctx context.Context, req *dto.QuestionStatsRequest) ([]records.Record, error)
	// Rank orders speakers by their summed question count within one session (0 = all).
	Rank(ctx context.Context, req *dto.RankRequest) ([]aggregate.RankedEntity, error)
}

type questionService struct {
	repo   contract.AssemblyRepository
	tables config.Tables
	fields records.FieldTable
}

func NewQuestionService(repo contract.AssemblyRepository, tables config.Tables) IQuestionService {
	return &questionService{
		repo:   repo,
		tables: tables,
		fields: records.DefaultFields(),
	}
}

func (s *questionService) Stats(ctx context.Context, req *dto.QuestionStatsRequest) ([]records.Record, error) {
	specs := []specification.Specification{
		pageSpec(&dto.PageRequest{Limit: req.Limit, Offset: req.Offset}),
	}
	if req.Session > 0 {
		specs = append(specs, specification.ByNumber{Column: "session_no", Value: req.Session})
	}
	return s.repo.FindAll(ctx, s.tables.QuestionStats, specs...)
}

// Rank scans the whole table and scopes rows in memory, so rows whose session column holds a
// label like "415회" still match.
func (s *questionService) Rank(ctx context.Context, req *dto.RankRequest) ([]aggregate.RankedEntity, error) {
	rows, err := s.repo.FindAllPaged(ctx, s.tables.QuestionStats, questionMaxRows)
	if err != nil {
		return nil, fmt.Errorf("load question stats: %w", err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultRankLimit
	}
	return aggregate.Rank(rows, s.fields, aggregate.RankOptions{
		Scope:      req.Session,
		ScopeField: records.FieldSession,
		Limit:      limit,
	}), nil
}
