// Package reclassify rewrites the classification tags of every stored
// asset from its filename, so classifier improvements can be applied to
// collections built before the change.
package reclassify

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/SrGnis/cataclysm-db/internal/release"
)

// Result summarizes a reprocessing run.
type Result struct {
	Files       int // collections rewritten
	FailedFiles int // collections skipped due to errors
	Assets      int // assets examined
	Changed     int // assets whose classification changed
}

// Run reprocesses every release collection under root. Each file gets a
// byte-identical .bak copy before being rewritten. A failure in one file
// is logged and counted; the remaining files are still processed.
func Run(root string, logger zerolog.Logger) Result {
	var res Result

	paths, err := filepath.Glob(filepath.Join(root, "*", "*_releases.json"))
	if err != nil {
		logger.Error().Err(err).Str("root", root).Msg("scanning storage root")
		return res
	}
	if len(paths) == 0 {
		logger.Warn().Str("root", root).Msg("no release collections found")
		return res
	}

	for _, path := range paths {
		changed, total, err := reprocessFile(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("reprocessing failed")
			res.FailedFiles++
			continue
		}
		logger.Info().Str("path", path).Int("assets", total).Int("changed", changed).
			Msg("collection reprocessed")
		res.Files++
		res.Assets += total
		res.Changed += changed
	}
	return res
}

func reprocessFile(path string) (changed, total int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading collection: %w", err)
	}
	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return 0, 0, fmt.Errorf("writing backup: %w", err)
	}

	var releases []release.Release
	if err := json.Unmarshal(data, &releases); err != nil {
		return 0, 0, fmt.Errorf("parsing collection: %w", err)
	}

	for i := range releases {
		for j := range releases[i].Assets {
			asset := &releases[i].Assets[j]
			before := *asset
			// Overwrite unconditionally; the comparison only feeds the
			// changed count.
			asset.Classify()
			total++
			if *asset != before {
				changed++
			}
		}
	}

	out, err := json.MarshalIndent(releases, "", "  ")
	if err != nil {
		return 0, 0, fmt.Errorf("encoding collection: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, 0, fmt.Errorf("writing collection: %w", err)
	}
	return changed, total, nil
}
