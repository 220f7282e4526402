package implementation

import (
	"context"

	"assembly-dashboard-be/internal/repository/contract"
	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/datasource"
)

type AssemblyRepositoryImpl struct {
	source datasource.Source
}

func NewAssemblyRepository(source datasource.Source) contract.AssemblyRepository {
	return &AssemblyRepositoryImpl{source: source}
}

func (r *AssemblyRepositoryImpl) FindAll(ctx context.Context, table string, specs ...specification.Specification) ([]records.Record, error) {
	return r.source.Select(ctx, table, specification.Build(specs...))
}

func (r *AssemblyRepositoryImpl) FindAllPaged(ctx context.Context, table string, maxRows int, specs ...specification.Specification) ([]records.Record, error) {
	return datasource.SelectAll(ctx, r.source, table, specification.Build(specs...), maxRows)
}
