package specification

import (
	"testing"

	"assembly-dashboard-be/pkg/datasource"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	p := Build(
		Columns{Names: []string{"회차", "party"}},
		BySessionLabel{Column: "회차", Session: 415},
		BySessionLabel{Column: "회차"},
		ByValue{Column: "party", Value: ""},
		Contains{Column: "text", Text: " 예산 "},
		Between{Column: "date", From: "2024-01-01"},
		OneOf{Column: "l2"},
		OrderBy{Field: "date", Desc: true},
		nil,
		Pagination{Limit: 100, Offset: 200},
	)

	assert.Equal(t, "회차,party", p.Select)
	assert.Equal(t, []datasource.Filter{
		datasource.Eq("회차", "415회"),
		datasource.Ilike("text", "*예산*"),
		datasource.Gte("date", "2024-01-01"),
	}, p.Filters)
	assert.Equal(t, []datasource.Order{{Column: "date", Desc: true}}, p.Order)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 200, p.Offset)
}
