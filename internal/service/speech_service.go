package service

import (
	"context"
	"fmt"
	"strings"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/aggregate"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/datasource"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultSpeechLimit = 200
	// speechAggMaxRows caps the date-only scan behind the monthly series.
	speechAggMaxRows = 300000
)

var speechColumns = []string{
	"speech_id", "session", "session_dir", "meeting_no", "date",
	"speaker_name", "speaker_position", "party", "speech_text", "speech_order",
}

type ISpeechService interface {
	Range(ctx context.Context, keyword string) (*dto.SpeechRangeResponse, error)
	Search(ctx context.Context, req *dto.SpeechSearchRequest) (*dto.SpeechSearchResponse, error)
}

type speechService struct {
	repo    contract.AssemblyRepository
	table   string
	listCap int
	fields  records.FieldTable
}

// NewSpeechService creates the keyword timeline service. listCap bounds the speech list.
func NewSpeechService(repo contract.AssemblyRepository, tables config.Tables, listCap int) ISpeechService {
	return &speechService{
		repo:    repo,
		table:   tables.Speeches,
		listCap: listCap,
		fields:  records.DefaultFields(),
	}
}

func (s *speechService) edgeDate(ctx context.Context, keyword string, desc bool) (string, error) {
	rows, err := s.repo.FindAll(ctx, s.table,
		specification.Columns{Names: []string{"date"}},
		specification.Contains{Column: "speech_text", Text: keyword},
		specification.Present{Column: "date"},
		specification.OrderBy{Field: "date", Desc: desc},
		specification.Pagination{Limit: 1},
	)
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return s.fields.String(rows[0], records.FieldDate), nil
}

func (s *speechService) Range(ctx context.Context, keyword string) (*dto.SpeechRangeResponse, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("keyword is required"))
	}
	minDate, err := s.edgeDate(ctx, keyword, false)
	if err != nil {
		return nil, fmt.Errorf("speech range: %w", err)
	}
	maxDate, err := s.edgeDate(ctx, keyword, true)
	if err != nil {
		return nil, fmt.Errorf("speech range: %w", err)
	}
	return &dto.SpeechRangeResponse{Keyword: keyword, MinDate: minDate, MaxDate: maxDate}, nil
}

// Search lists matching speeches (newest first) and, unless disabled, the monthly match counts
// zero-filled over start..end. Missing bounds default to the keyword's date range.
func (s *speechService) Search(ctx context.Context, req *dto.SpeechSearchRequest) (*dto.SpeechSearchResponse, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("keyword is required"))
	}
	res := &dto.SpeechSearchResponse{
		Keyword:  keyword,
		Bucket:   "month",
		Series:   []aggregate.MonthCount{},
		Speeches: []records.Record{},
		Note:     map[string]dto.PagingNote{},
	}

	start, end := req.Start, req.End
	if start == "" || end == "" {
		r, err := s.Range(ctx, keyword)
		if err != nil {
			return nil, err
		}
		if r.MinDate == "" || r.MaxDate == "" {
			return res, nil
		}
		if start == "" {
			start = r.MinDate
		}
		if end == "" {
			end = r.MaxDate
		}
	}
	if start > end {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("start %s is after end %s", start, end))
	}
	res.Start, res.End = start, end

	match := []specification.Specification{
		specification.Contains{Column: "speech_text", Text: keyword},
		specification.Between{Column: "date", From: start, To: end},
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultSpeechLimit
	}
	if s.listCap > 0 && limit > s.listCap {
		limit = s.listCap
	}
	speeches, err := s.repo.FindAllPaged(ctx, s.table, limit, append([]specification.Specification{
		specification.Columns{Names: speechColumns},
		specification.OrderBy{Field: "date", Desc: true},
		specification.OrderBy{Field: "speech_order", Desc: true},
		specification.Pagination{Offset: req.Offset},
	}, match...)...)
	if err != nil {
		return nil, fmt.Errorf("speech search: %w", err)
	}
	res.Speeches = speeches
	res.Note["speeches"] = pagingNote(len(speeches), s.listCap)

	if req.IncludeSeries != nil && !*req.IncludeSeries {
		return res, nil
	}

	dated, err := s.repo.FindAllPaged(ctx, s.table, speechAggMaxRows, append([]specification.Specification{
		specification.Columns{Names: []string{"date"}},
		specification.OrderBy{Field: "date"},
	}, match...)...)
	if err != nil {
		return nil, fmt.Errorf("speech series: %w", err)
	}
	dates := make([]string, 0, len(dated))
	for _, r := range dated {
		dates = append(dates, s.fields.String(r, records.FieldDate))
	}
	series, err := aggregate.MonthlySeries(dates, start, end)
	if err != nil {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, err)
	}
	res.Series = series
	res.Note["series"] = pagingNote(len(dated), speechAggMaxRows)
	return res, nil
}

func pagingNote(rows, hardCap int) dto.PagingNote {
	return dto.PagingNote{
		PageSize:  datasource.Page,
		Rows:      rows,
		HardCap:   hardCap,
		Truncated: hardCap > 0 && rows >= hardCap,
	}
}
