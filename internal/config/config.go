package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Game is one tracked repository whose releases are mirrored into the
// database.
type Game struct {
	Name    string   `json:"game_name"`
	Repo    string   `json:"git_repo"`
	Filters []string `json:"filters"`
}

// Config is the top-level configuration file.
type Config struct {
	Games []Game `json:"games"`
}

// DefaultPath returns the config location used when no path is given on
// the command line.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "cataclysm-db", "config.json")
}

// Load reads and validates a configuration file. An empty path falls
// back to DefaultPath. Configuration errors are fatal by design: nothing
// is synced against a half-understood game list.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Games == nil {
		return fmt.Errorf("config must contain a \"games\" list")
	}
	for i, g := range cfg.Games {
		if g.Name == "" {
			return fmt.Errorf("game %d: game_name is required", i)
		}
		if g.Repo == "" {
			return fmt.Errorf("game %q: git_repo is required", g.Name)
		}
		if !strings.Contains(g.Repo, "/") {
			return fmt.Errorf("game %q: git_repo must be owner/name, got %q", g.Name, g.Repo)
		}
		if g.Filters == nil {
			return fmt.Errorf("game %q: filters is required", g.Name)
		}
	}
	return nil
}
