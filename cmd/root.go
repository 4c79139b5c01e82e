package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagToken   string
	flagDB      string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cataclysm-db [config]",
	Short: "Build a local database of game releases from GitHub",
	Long: `cataclysm-db mirrors the GitHub releases of the configured games into a
local JSON database: it lists each repository's tags, filters them with the
configured patterns, fetches release metadata for tags it has not seen
before, classifies every downloadable asset by platform, architecture,
graphics and sound from its filename, and persists the result.

Already-processed and permanently-failed tags are cached, so repeated runs
only fetch what is new.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "GitHub API token (or CATACLYSM_DB_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "db", "storage root for the release database")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reclassifyCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cataclysm-db %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()
}

func resolveToken() string {
	if flagToken != "" {
		return flagToken
	}
	return os.Getenv("CATACLYSM_DB_TOKEN")
}
