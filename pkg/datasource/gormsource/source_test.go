package gormsource

import (
	"testing"

	"assembly-dashboard-be/pkg/datasource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func TestConditionTranslatesVocabulary(t *testing.T) {
	expr, err := condition(datasource.Eq("회차", "415회"))
	require.NoError(t, err)
	assert.Equal(t, clause.Eq{Column: clause.Column{Name: "회차"}, Value: "415회"}, expr)

	expr, err = condition(datasource.In("party", "A", "B"))
	require.NoError(t, err)
	assert.Equal(t, clause.IN{Column: clause.Column{Name: "party"}, Values: []interface{}{"A", "B"}}, expr)

	expr, err = condition(datasource.Ilike("text", "*예산*"))
	require.NoError(t, err)
	like, ok := expr.(clause.Expr)
	require.True(t, ok)
	assert.Equal(t, "%예산%", like.Vars[1])

	_, err = condition(datasource.Filter{Column: "x", Op: "fts"})
	assert.Error(t, err)
}
