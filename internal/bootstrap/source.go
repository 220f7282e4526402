package bootstrap

import (
	"fmt"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/metrics"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/pkg/database"
	"assembly-dashboard-be/pkg/datasource"
	"assembly-dashboard-be/pkg/datasource/gormsource"
)

// NewSource picks the data source: PostgreSQL through gorm when a DSN is configured, else the
// Supabase REST endpoint. Either way selects are cached for the configured TTL.
func NewSource(cfg *config.Config, log logger.ILogger) (datasource.Source, error) {
	var upstream datasource.Source
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		upstream = gormsource.New(db)
		log.Info("Bootstrap", "Using PostgreSQL data source", nil)
	} else {
		upstream = datasource.NewPostgRESTClient(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Timeout)
		if cfg.Supabase.URL == "" || cfg.Supabase.Key == "" {
			log.Warn("Bootstrap", "SUPABASE_URL or SUPABASE_KEY missing; data endpoints will answer 503", nil)
		} else {
			log.Info("Bootstrap", "Using PostgREST data source", map[string]interface{}{"url": cfg.Supabase.URL})
		}
	}

	if cfg.Dashboard.CacheTTL <= 0 {
		return upstream, nil
	}
	return datasource.NewCachedSource(upstream, cfg.Dashboard.CacheTTL, metrics.Recorder{}), nil
}
