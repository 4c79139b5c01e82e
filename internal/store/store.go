// Package store persists the release database: per-game release
// collections, processed/failed tag caches, and the shared index, all as
// indented JSON files under one storage root.
//
// The store assumes a single writer process per root; concurrent syncs
// against the same root can race.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/SrGnis/cataclysm-db/internal/release"
)

// IndexEntry records when a game's collection last changed, as a unix
// timestamp consumers poll to detect updates.
type IndexEntry struct {
	Version int64 `json:"version"`
}

// Index maps game name to its last-update entry.
type Index map[string]IndexEntry

// Store owns all file I/O under the storage root.
type Store struct {
	root   string
	logger zerolog.Logger
}

// New returns a Store rooted at dir. Nothing is created until the first
// save.
func New(dir string, logger zerolog.Logger) *Store {
	return &Store{root: dir, logger: logger}
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) gameDir(game string) string {
	return filepath.Join(s.root, game)
}

// ReleasesPath returns the path of a game's release collection file.
func (s *Store) ReleasesPath(game string) string {
	return filepath.Join(s.gameDir(game), game+"_releases.json")
}

// ProcessedTagsPath returns the path of a game's processed-tag cache.
func (s *Store) ProcessedTagsPath(game string) string {
	return filepath.Join(s.gameDir(game), game+"_processed_tags.json")
}

// FailedTagsPath returns the path of a game's failed-tag cache.
func (s *Store) FailedTagsPath(game string) string {
	return filepath.Join(s.gameDir(game), game+"_failed_tags.json")
}

// IndexPath returns the path of the shared database index.
func (s *Store) IndexPath() string {
	return filepath.Join(s.root, "index.json")
}

// LoadProcessedTags returns the processed-tag cache for a game. Missing
// or corrupt files yield an empty list; cache loss only costs refetches.
func (s *Store) LoadProcessedTags(game string) []string {
	return s.loadTags(s.ProcessedTagsPath(game))
}

// SaveProcessedTags writes the processed-tag cache, sorted.
func (s *Store) SaveProcessedTags(game string, tags []string) error {
	return s.saveTags(game, s.ProcessedTagsPath(game), tags)
}

// LoadFailedTags returns the failed-tag cache for a game.
func (s *Store) LoadFailedTags(game string) []string {
	return s.loadTags(s.FailedTagsPath(game))
}

// SaveFailedTags writes the failed-tag cache, sorted.
func (s *Store) SaveFailedTags(game string, tags []string) error {
	return s.saveTags(game, s.FailedTagsPath(game), tags)
}

func (s *Store) loadTags(path string) []string {
	var tags []string
	if !s.loadJSON(path, &tags) {
		return nil
	}
	return tags
}

func (s *Store) saveTags(game, path string, tags []string) error {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return s.saveJSON(game, path, sorted)
}

// LoadReleases returns a game's stored release collection. Missing or
// corrupt files yield an empty collection.
func (s *Store) LoadReleases(game string) []release.Release {
	var releases []release.Release
	if !s.loadJSON(s.ReleasesPath(game), &releases) {
		return nil
	}
	return releases
}

// SaveReleases writes a game's release collection sorted by effective
// date, newest first.
func (s *Store) SaveReleases(game string, releases []release.Release) error {
	sorted := make([]release.Release, len(releases))
	copy(sorted, releases)
	release.SortByDate(sorted)
	if err := s.saveJSON(game, s.ReleasesPath(game), sorted); err != nil {
		return err
	}
	s.logger.Info().Str("game", game).Int("releases", len(sorted)).Msg("saved release collection")
	return nil
}

// LoadIndex returns the shared database index.
func (s *Store) LoadIndex() Index {
	idx := Index{}
	s.loadJSON(s.IndexPath(), &idx)
	if idx == nil {
		idx = Index{}
	}
	return idx
}

// SaveIndex writes the shared index. Keys serialize lexicographically
// sorted, keeping diffs reproducible.
func (s *Store) SaveIndex(idx Index) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating storage root: %w", err)
	}
	return writeJSON(s.IndexPath(), idx)
}

// TouchIndex stamps a game's index entry with the given time.
func (s *Store) TouchIndex(game string, now time.Time) error {
	idx := s.LoadIndex()
	idx[game] = IndexEntry{Version: now.Unix()}
	return s.SaveIndex(idx)
}

// loadJSON reads path into v. Reports false when the file is missing,
// unreadable, or corrupt; corruption is logged but never fatal.
func (s *Store) loadJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", path).Msg("reading cache file")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("cache file corrupt, starting empty")
		return false
	}
	return true
}

func (s *Store) saveJSON(game, path string, v any) error {
	if err := os.MkdirAll(s.gameDir(game), 0o755); err != nil {
		return fmt.Errorf("creating game dir: %w", err)
	}
	return writeJSON(path, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
