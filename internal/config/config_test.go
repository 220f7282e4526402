package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, 20, cfg.Dashboard.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, "trend2", cfg.Dashboard.Tables.Trend)
	assert.False(t, cfg.Tracing.Enabled)

	ranges, err := cfg.Dashboard.Ranges()
	require.NoError(t, err)
	assert.Len(t, ranges, 3)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("DASHBOARD_PAGE_SIZE", "50")
	t.Setenv("TABLE_LAW", "law3")
	t.Setenv("GO_ENV", "Production")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "https://example.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, 50, cfg.Dashboard.PageSize)
	assert.Equal(t, "law3", cfg.Dashboard.Tables.Law)
	assert.True(t, cfg.App.IsProduction())
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("DASHBOARD_TERM_RANGES", "20:353-400,21:379-414")
	_, err := Parse()
	assert.Error(t, err)
}

func TestParseRejectsNonPositivePageSize(t *testing.T) {
	t.Setenv("DASHBOARD_PAGE_SIZE", "0")
	_, err := Parse()
	assert.Error(t, err)
}
