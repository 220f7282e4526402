package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/aggregate"
	"assembly-dashboard-be/pkg/dashboard/records"

	"golang.org/x/text/cases"
)

const previewRunes = 160

var newsColumns = []string{"batch_id", "created_at", "keyword", "background", "question", "answer"}

type INewsService interface {
	// Issues groups news Q&A rows by keyword, newest group first.
	Issues(ctx context.Context, req *dto.NewsIssuesRequest) ([]dto.NewsIssue, error)
	Issue(ctx context.Context, req *dto.NewsIssueRequest) ([]records.Record, error)
}

type newsService struct {
	repo  contract.AssemblyRepository
	table string
}

func NewNewsService(repo contract.AssemblyRepository, tables config.Tables) INewsService {
	return &newsService{
		repo:  repo,
		table: tables.News,
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func (s *newsService) Issues(ctx context.Context, req *dto.NewsIssuesRequest) ([]dto.NewsIssue, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 3000
	}
	rows, err := s.repo.FindAllPaged(ctx, s.table, clamp(limit, 100, 5000),
		specification.Columns{Names: newsColumns},
		specification.ByValue{Column: "batch_id", Value: req.BatchID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}

	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(req.Query))
	groups := []dto.NewsIssue{}
	pos := make(map[string]int)
	for _, r := range rows {
		if q != "" && !hit(fold, r, q) {
			continue
		}
		kw := r.Text("keyword")
		if kw == "" {
			kw = aggregate.Unclassified
		}
		createdAt := r.Text("created_at")

		i, seen := pos[kw]
		if !seen {
			i = len(groups)
			pos[kw] = i
			groups = append(groups, dto.NewsIssue{
				Keyword:           kw,
				LatestAt:          createdAt,
				BackgroundPreview: preview(r.Text("background")),
			})
		}
		groups[i].QACount++
		if createdAt > groups[i].LatestAt {
			groups[i].LatestAt = createdAt
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.LatestAt != b.LatestAt {
			return a.LatestAt > b.LatestAt
		}
		if a.QACount != b.QACount {
			return a.QACount > b.QACount
		}
		return a.Keyword > b.Keyword
	})
	return groups, nil
}

func hit(fold cases.Caser, r records.Record, q string) bool {
	for _, key := range []string{"keyword", "background", "question"} {
		if strings.Contains(fold.String(r.Text(key)), q) {
			return true
		}
	}
	return false
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "…"
}

func (s *newsService) Issue(ctx context.Context, req *dto.NewsIssueRequest) ([]records.Record, error) {
	kw := strings.TrimSpace(req.Keyword)
	if kw == "" {
		return []records.Record{}, nil
	}
	limit := req.Limit
	if limit == 0 {
		limit = 2000
	}
	return s.repo.FindAllPaged(ctx, s.table, clamp(limit, 50, 5000),
		specification.Columns{Names: newsColumns},
		specification.ByValue{Column: "keyword", Value: kw},
		specification.ByValue{Column: "batch_id", Value: req.BatchID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}
