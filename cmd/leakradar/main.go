package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sawpanic/leakradar/internal/config"
	"github.com/sawpanic/leakradar/internal/persistence/postgres"
)

const appName = "leakradar"

// version and buildSHA are stamped via -ldflags at release time.
var (
	version  = "dev"
	buildSHA = "unknown"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Sector signal radar: triangulates noisy multi-source signals into daily scores",
		Version: version,
		Long: `leakradar ingests papers, trials, jobs, repos, grants, and narrative
signals about a fixed set of sectors and turns them into daily per-sector
signal scores with anomaly flags, hype-vs-reality comparisons, and briefs.`,
	}
	rootCmd.PersistentFlags().String("config", "config/radar.yaml", "Path to yaml configuration")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")
	// Accept snake_case spellings of the flags.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newComputeCmd())
	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupFromFlags(cmd *cobra.Command) (*config.Config, error) {
	level, _ := cmd.Flags().GetString("log-level")
	if parsed, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}

	path, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	}
	return config.Load(path)
}

func openStore(cfg *config.Config) (*postgres.Store, error) {
	return postgres.Open(cfg.DatabaseURL, cfg.DBTimeout())
}
