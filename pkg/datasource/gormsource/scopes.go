package gormsource

import (
	"assembly-dashboard-be/pkg/datasource"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scopes composing one select. Each maps a part of datasource.Params onto the query.

func columns(cols []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cols == nil {
			return db
		}
		return db.Select(cols)
	}
}

func where(exprs []clause.Expression) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, e := range exprs {
			db = db.Where(e)
		}
		return db
	}
}

func orderBy(order []datasource.Order) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, o := range order {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
		}
		return db
	}
}

// paginate leaves the query unbounded when limit is 0.
func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}
