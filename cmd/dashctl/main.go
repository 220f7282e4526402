package main

import (
	"fmt"
	"os"

	"assembly-dashboard-be/internal/bootstrap"
	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/pkg/datasource"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	fixturePath string
	verbose     bool
	asJSON      bool

	rootCmd = &cobra.Command{
		Use:   "dashctl",
		Short: "Query the assembly dashboard tables from the terminal",
		Long: `dashctl runs the dashboard aggregations (trend, law, rank, timeline, news)
against the configured data source, or against a JSON fixture with --fixture.`,
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "JSON file of table name -> rows used instead of the configured source")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print raw JSON instead of tables")

	rootCmd.AddCommand(trendCmd, lawCmd, rankCmd, timelineCmd, newsCmd, watchCmd)
}

// loadServices builds the analytics services over the fixture or the configured source.
func loadServices() (*bootstrap.Services, error) {
	_ = godotenv.Load()
	cfg, err := config.Parse()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.NewConsoleLogger(verbose)

	var source datasource.Source
	if fixturePath != "" {
		f, err := os.Open(fixturePath)
		if err != nil {
			return nil, fmt.Errorf("open fixture: %w", err)
		}
		defer f.Close()

		mem := datasource.NewMemorySource()
		if err := mem.Load(f); err != nil {
			return nil, err
		}
		source = mem
		log.Debug("dashctl", "Using fixture source", map[string]interface{}{"path": fixturePath})
	} else {
		if source, err = bootstrap.NewSource(cfg, log); err != nil {
			return nil, err
		}
	}

	return bootstrap.NewServices(source, cfg, log)
}
