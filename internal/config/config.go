package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"assembly-dashboard-be/pkg/dashboard/hierarchy"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Supabase  SupabaseConfig
	Database  DatabaseConfig
	Dashboard DashboardConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string `env:"APP_PORT" envDefault:"3000"`
	Environment        string `env:"GO_ENV" envDefault:"development"`
	LogFilePath        string `env:"LOG_FILE_PATH" envDefault:"logs/app.log"`
	HubLogFilePath     string `env:"HUB_LOG_FILE_PATH" envDefault:"logs/hub.log"`
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
	NatsURL            string `env:"NATS_URL"`
	RedisURL           string `env:"REDIS_URL"`
}

type SupabaseConfig struct {
	URL     string        `env:"SUPABASE_URL"`
	Key     string        `env:"SUPABASE_KEY"`
	Timeout time.Duration `env:"SUPABASE_TIMEOUT" envDefault:"60s"`
}

// DatabaseConfig switches the data source to PostgreSQL when Connection is set.
type DatabaseConfig struct {
	Connection string `env:"DB_CONNECTION_STRING"`
	Debug      bool   `env:"DB_DEBUG" envDefault:"false"`
}

type DashboardConfig struct {
	PageSize   int           `env:"DASHBOARD_PAGE_SIZE" envDefault:"20"`
	TermRanges string        `env:"DASHBOARD_TERM_RANGES" envDefault:"20:353-378,21:379-414,22:415-"`
	CacheTTL   time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"5m"`
	SessionTTL time.Duration `env:"DASHBOARD_SESSION_TTL" envDefault:"1h"`
	SpeechCap  int           `env:"DASHBOARD_SPEECH_MAX_ROWS" envDefault:"20000"`
	Tables     Tables
}

// Tables names the source tables; each can be renamed without code changes.
type Tables struct {
	Trend              string `env:"TABLE_TREND" envDefault:"trend2"`
	PartyDomainMetrics string `env:"TABLE_PARTY_DOMAIN_METRICS" envDefault:"party_domain_metrics"`
	TextRecap          string `env:"TABLE_TEXT_RECAP" envDefault:"text_recap"`
	PeopleRecap        string `env:"TABLE_PEOPLE_RECAP" envDefault:"people_recap"`
	DataRequestRecap   string `env:"TABLE_DATA_REQUEST_RECAP" envDefault:"data_request_recap"`
	LawReformStats     string `env:"TABLE_LAW_REFORM_STATS" envDefault:"law_reform_stats_row"`
	QuestionStats      string `env:"TABLE_QUESTION_STATS" envDefault:"question_stats_session_rows"`
	Law                string `env:"TABLE_LAW" envDefault:"law2"`
	Speeches           string `env:"TABLE_SPEECHES" envDefault:"speeches"`
	News               string `env:"TABLE_NEWS" envDefault:"news_qa"`
}

type TracingConfig struct {
	Enabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	Service  string `env:"OTEL_SERVICE_NAME" envDefault:"assembly-dashboard-backend"`

	// SampleRatio is the fraction of root traces kept; child spans follow their parent.
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// IsProduction reports whether GO_ENV is production.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Ranges parses the configured term table.
func (c DashboardConfig) Ranges() ([]hierarchy.TermRange, error) {
	return hierarchy.ParseTermRanges(c.TermRanges)
}

// Parse reads the environment into a Config and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Supabase.URL = strings.TrimRight(cfg.Supabase.URL, "/")
	if _, err := cfg.Dashboard.Ranges(); err != nil {
		return nil, fmt.Errorf("DASHBOARD_TERM_RANGES: %w", err)
	}
	if cfg.Dashboard.PageSize <= 0 {
		return nil, fmt.Errorf("DASHBOARD_PAGE_SIZE must be positive, got %d", cfg.Dashboard.PageSize)
	}
	return cfg, nil
}

// Load reads .env when present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}
