package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/metrics"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRecapLimit = 1000
	sessionScanLimit  = 10000
	// recapMaxRows caps how many rows one dashboard view collects for a session.
	recapMaxRows = 10000
)

type IRecapService interface {
	// Sessions lists every session number found in the recap tables, ascending.
	Sessions(ctx context.Context) ([]int, error)
	Recap(ctx context.Context, view store.View, req *dto.RecapRequest) ([]records.Record, error)
	// Rows collects all rows of a recap view for one session.
	Rows(ctx context.Context, view store.View, session int) ([]records.Record, error)
	Overview(ctx context.Context, session int) (*dto.OverviewResponse, error)
}

// recapTable is a recap view's source table and the column holding its "{n}회" session label.
type recapTable struct {
	name        string
	scopeColumn string
}

type recapService struct {
	repo   contract.AssemblyRepository
	tables map[store.View]recapTable
	logger logger.ILogger
}

func NewRecapService(repo contract.AssemblyRepository, tables config.Tables, log logger.ILogger) IRecapService {
	return &recapService{
		repo: repo,
		tables: map[store.View]recapTable{
			store.ViewText:   {name: tables.TextRecap, scopeColumn: "회차"},
			store.ViewPeople: {name: tables.PeopleRecap, scopeColumn: "회차"},
			store.ViewData:   {name: tables.DataRequestRecap, scopeColumn: "회의회차"},
		},
		logger: log,
	}
}

func (s *recapService) table(view store.View) (recapTable, error) {
	t, ok := s.tables[view]
	if !ok {
		return recapTable{}, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("%w: %q is not a recap view", store.ErrUnknownView, view))
	}
	return t, nil
}

func (s *recapService) Sessions(ctx context.Context) ([]int, error) {
	var (
		mu  sync.Mutex
		set = make(map[int]struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, view := range []store.View{store.ViewText, store.ViewPeople, store.ViewData} {
		view := view
		t := s.tables[view]
		g.Go(func() error {
			rows, err := s.repo.FindAll(gctx, t.name,
				specification.Columns{Names: []string{t.scopeColumn}},
				specification.Pagination{Limit: sessionScanLimit},
			)
			if err != nil {
				return fmt.Errorf("scan %s sessions: %w", view, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range rows {
				if n, ok := records.FirstInt(r[t.scopeColumn]); ok && n > 0 {
					set[n] = struct{}{}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

func (s *recapService) Recap(ctx context.Context, view store.View, req *dto.RecapRequest) ([]records.Record, error) {
	t, err := s.table(view)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultRecapLimit
	}
	return s.repo.FindAll(ctx, t.name,
		specification.BySessionLabel{Column: t.scopeColumn, Session: req.Session},
		specification.ByValue{Column: "meeting_no", Value: req.Meeting},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
}

func (s *recapService) Rows(ctx context.Context, view store.View, session int) ([]records.Record, error) {
	t, err := s.table(view)
	if err != nil {
		return nil, err
	}
	if session <= 0 {
		return []records.Record{}, nil
	}
	return s.repo.FindAllPaged(ctx, t.name, recapMaxRows,
		specification.BySessionLabel{Column: t.scopeColumn, Session: session},
	)
}

// Overview counts the rows of every recap view for session concurrently.
// A failing view reports its error without failing the others.
func (s *recapService) Overview(ctx context.Context, session int) (*dto.OverviewResponse, error) {
	res := &dto.OverviewResponse{Session: session, Views: make(map[string]dto.RecapTotal, len(s.tables))}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, view := range []store.View{store.ViewText, store.ViewPeople, store.ViewData} {
		view := view
		t := s.tables[view]
		g.Go(func() error {
			rows, err := s.repo.FindAllPaged(ctx, t.name, recapMaxRows,
				specification.Columns{Names: []string{t.scopeColumn}},
				specification.BySessionLabel{Column: t.scopeColumn, Session: session},
			)
			total := dto.RecapTotal{Total: len(rows)}
			if err != nil {
				metrics.ViewFailed(string(view))
				s.logger.Warn("RecapService", "Overview view failed", map[string]interface{}{
					"view":    view,
					"session": session,
					"error":   err.Error(),
				})
				total = dto.RecapTotal{Error: err.Error()}
			}
			mu.Lock()
			res.Views[string(view)] = total
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return res, nil
}
