package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/aggregate"
	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/dashboard/records"

	"github.com/gofiber/fiber/v2"
)

// AllLabel selects every assembly term or category.
const AllLabel = "전체"

const (
	defaultAssembly = "22"
	lawMaxRows      = 200000
)

type ILawService interface {
	Options(ctx context.Context, assembly string) (*dto.LawOptionsResponse, error)
	StackByCategory(ctx context.Context, req *dto.LawStackRequest) (aggregate.StackedAggregate, error)
	StackByParty(ctx context.Context, assembly string) (aggregate.StackedAggregate, error)
	Stats(ctx context.Context, page *dto.PageRequest) ([]records.Record, error)
}

type lawService struct {
	repo     contract.AssemblyRepository
	tables   config.Tables
	resolver *hierarchy.Resolver
	fields   records.FieldTable
}

func NewLawService(repo contract.AssemblyRepository, tables config.Tables, resolver *hierarchy.Resolver) ILawService {
	return &lawService{
		repo:     repo,
		tables:   tables,
		resolver: resolver,
		fields:   records.DefaultFields(),
	}
}

// assemblySpec parses the assembly selector: a term number, or 전체 for no restriction.
func (s *lawService) assemblySpec(assembly string) (specification.Specification, error) {
	assembly = strings.TrimSpace(assembly)
	if assembly == "" {
		assembly = defaultAssembly
	}
	if assembly == AllLabel {
		return nil, nil
	}
	term, err := strconv.Atoi(assembly)
	if err != nil || term <= 0 {
		return nil, serverutils.WithStatus(fiber.StatusBadRequest, fmt.Errorf("invalid assembly %q", assembly))
	}
	return specification.ByNumber{Column: "assembly", Value: term}, nil
}

// assemblies lists the selector values: 전체 followed by the configured terms.
func (s *lawService) assemblies() []string {
	out := []string{AllLabel}
	for _, t := range s.resolver.Terms() {
		out = append(out, strconv.Itoa(t))
	}
	return out
}

func (s *lawService) Options(ctx context.Context, assembly string) (*dto.LawOptionsResponse, error) {
	scope, err := s.assemblySpec(assembly)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindAllPaged(ctx, s.tables.Law, lawMaxRows,
		specification.Columns{Names: []string{"assembly", "l2", "l3"}},
		scope,
	)
	if err != nil {
		return nil, fmt.Errorf("load law options: %w", err)
	}

	tree := hierarchy.BuildCategoryTree(rows, s.fields)
	return &dto.LawOptionsResponse{
		Assemblies: s.assemblies(),
		L2:         tree.Labels(),
		L3ByL2:     tree.Map(),
	}, nil
}

// StackByCategory stacks scope counts per L2, or per L3 inside one L2.
func (s *lawService) StackByCategory(ctx context.Context, req *dto.LawStackRequest) (aggregate.StackedAggregate, error) {
	scope, err := s.assemblySpec(req.Assembly)
	if err != nil {
		return aggregate.StackedAggregate{}, err
	}
	l2, l3 := allOrValue(req.L2), allOrValue(req.L3)

	rows, err := s.repo.FindAllPaged(ctx, s.tables.Law, lawMaxRows,
		specification.Columns{Names: []string{"assembly", "l2", "l3", "scope", "count"}},
		scope,
		specification.ByValue{Column: "l2", Value: l2},
		specification.ByValue{Column: "l3", Value: l3},
	)
	if err != nil {
		return aggregate.StackedAggregate{}, fmt.Errorf("load law stack: %w", err)
	}

	axis := records.FieldCategory
	if l2 != "" {
		axis = records.FieldSubcategory
	}
	return aggregate.Stack(aggregate.LawStackRows(rows, s.fields, axis), aggregate.LawScopes), nil
}

func (s *lawService) StackByParty(ctx context.Context, assembly string) (aggregate.StackedAggregate, error) {
	scope, err := s.assemblySpec(assembly)
	if err != nil {
		return aggregate.StackedAggregate{}, err
	}
	rows, err := s.repo.FindAllPaged(ctx, s.tables.Law, lawMaxRows,
		specification.Columns{Names: []string{"assembly", "l2", "l3", "party", "scope", "count"}},
		scope,
	)
	if err != nil {
		return aggregate.StackedAggregate{}, fmt.Errorf("load law stack: %w", err)
	}
	return aggregate.Stack(aggregate.LawStackRows(rows, s.fields, records.FieldParty), aggregate.LawScopes), nil
}

func (s *lawService) Stats(ctx context.Context, page *dto.PageRequest) ([]records.Record, error) {
	return s.repo.FindAll(ctx, s.tables.LawReformStats, pageSpec(page))
}

// allOrValue maps the 전체 selector to "" (no restriction).
func allOrValue(v string) string {
	v = strings.TrimSpace(v)
	if v == AllLabel {
		return ""
	}
	return v
}
