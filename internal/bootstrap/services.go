package bootstrap

import (
	"fmt"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/repository/implementation"
	"assembly-dashboard-be/internal/service"
	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/datasource"
)

// Services are the read-only analytics services shared by the REST server and the CLI.
type Services struct {
	Resolver *hierarchy.Resolver

	Recap    service.IRecapService
	Trend    service.ITrendService
	Law      service.ILawService
	Question service.IQuestionService
	Speech   service.ISpeechService
	News     service.INewsService
}

func NewServices(source datasource.Source, cfg *config.Config, log logger.ILogger) (*Services, error) {
	ranges, err := cfg.Dashboard.Ranges()
	if err != nil {
		return nil, fmt.Errorf("term ranges: %w", err)
	}
	resolver, err := hierarchy.NewResolver(ranges)
	if err != nil {
		return nil, fmt.Errorf("term ranges: %w", err)
	}

	repo := implementation.NewAssemblyRepository(source)
	tables := cfg.Dashboard.Tables
	return &Services{
		Resolver: resolver,
		Recap:    service.NewRecapService(repo, tables, log),
		Trend:    service.NewTrendService(repo, tables, resolver),
		Law:      service.NewLawService(repo, tables, resolver),
		Question: service.NewQuestionService(repo, tables),
		Speech:   service.NewSpeechService(repo, tables, cfg.Dashboard.SpeechCap),
		News:     service.NewNewsService(repo, tables),
	}, nil
}
