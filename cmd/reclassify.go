package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SrGnis/cataclysm-db/internal/reclassify"
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Recompute asset classifications for every stored release",
	Long: `Reprocess every release collection under the storage root, rederiving the
platform, architecture, graphics and sound tags of each asset from its
filename. A .bak copy of each file is kept. Run this after classifier
improvements to bring old collections up to date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		res := reclassify.Run(flagDB, logger)

		fmt.Printf("Reprocessed %d file(s): %d of %d asset(s) changed.\n",
			res.Files, res.Changed, res.Assets)
		if res.FailedFiles > 0 {
			return fmt.Errorf("%d file(s) failed", res.FailedFiles)
		}
		return nil
	},
}
