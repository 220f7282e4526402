package contract

import (
	"context"

	"assembly-dashboard-be/internal/repository/specification"
	"assembly-dashboard-be/pkg/dashboard/records"
)

// AssemblyRepository reads the read-only assembly tables.
type AssemblyRepository interface {
	FindAll(ctx context.Context, table string, specs ...specification.Specification) ([]records.Record, error)
	// FindAllPaged collects every matching row page by page, stopping at maxRows (<= 0 for no cap).
	FindAllPaged(ctx context.Context, table string, maxRows int, specs ...specification.Specification) ([]records.Record, error)
}
