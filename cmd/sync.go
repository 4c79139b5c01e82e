package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SrGnis/cataclysm-db/internal/builder"
	"github.com/SrGnis/cataclysm-db/internal/config"
	"github.com/SrGnis/cataclysm-db/internal/github"
	"github.com/SrGnis/cataclysm-db/internal/store"
	"github.com/SrGnis/cataclysm-db/internal/tags"
)

func runSync(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info().Int("games", len(cfg.Games)).Str("db", flagDB).Msg("starting sync")

	b := builder.New(builder.Options{
		Store:   store.New(flagDB, logger),
		Fetcher: github.NewClient(resolveToken(), logger),
		Tags:    tags.NewSource(logger),
		Logger:  logger,
	})
	b.Run(cmd.Context(), cfg.Games)
	return nil
}
