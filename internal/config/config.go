// Package config loads and persists the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/commander-crafter/internal/scoring"
	"github.com/ramonehamilton/commander-crafter/internal/synergy"
)

// Config represents the application configuration.
type Config struct {
	// Data locations and reload behavior
	Data DataConfig `toml:"data"`

	// Scoring weights for the recommendation engine
	Scoring scoring.Weights `toml:"scoring"`

	// Consensus thresholds for pattern extraction
	Consensus ConsensusConfig `toml:"consensus"`

	// REST API server settings
	Server ServerConfig `toml:"server"`

	// Scryfall price lookup settings
	Scryfall ScryfallConfig `toml:"scryfall"`
}

// DataConfig contains data storage settings.
type DataConfig struct {
	DBPath       string `toml:"db_path"`       // SQLite database path
	CreaturesCSV string `toml:"creatures_csv"` // Creature table from the data pipeline
	PairsCSV     string `toml:"pairs_csv"`     // Commander pair table from the data pipeline
	Watch        bool   `toml:"watch"`         // Reload the engine when the database changes
}

// ConsensusConfig contains pattern-extraction thresholds.
type ConsensusConfig struct {
	Threshold       float64 `toml:"threshold"`        // Keyword/type quorum (fraction of partners)
	PowerQuorum     float64 `toml:"power_quorum"`     // Power bucket quorum
	ToughnessQuorum float64 `toml:"toughness_quorum"` // Toughness > power quorum
	HighPower       int     `toml:"high_power"`       // Lower bound of the high-power bucket
	LowPower        int     `toml:"low_power"`        // Upper bound of the low-power bucket
}

// Thresholds converts the config section to extractor thresholds.
func (c ConsensusConfig) Thresholds() synergy.Thresholds {
	return synergy.Thresholds{
		Consensus:       c.Threshold,
		PowerQuorum:     c.PowerQuorum,
		ToughnessQuorum: c.ToughnessQuorum,
		HighPower:       c.HighPower,
		LowPower:        c.LowPower,
	}
}

// ServerConfig contains REST API server settings.
type ServerConfig struct {
	Port         int      `toml:"port"`          // Listen port
	AllowOrigins []string `toml:"allow_origins"` // CORS origins ("*" = any)
}

// ScryfallConfig contains price lookup settings.
type ScryfallConfig struct {
	RequestInterval string `toml:"request_interval"` // Minimum delay between requests (e.g. "100ms")
	BatchLimit      int    `toml:"batch_limit"`      // Max cards per price backfill run (0 = all)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	defaults := synergy.DefaultThresholds()
	return &Config{
		Data: DataConfig{
			DBPath: "",
			Watch:  false,
		},
		Scoring: scoring.DefaultWeights(),
		Consensus: ConsensusConfig{
			Threshold:       defaults.Consensus,
			PowerQuorum:     defaults.PowerQuorum,
			ToughnessQuorum: defaults.ToughnessQuorum,
			HighPower:       defaults.HighPower,
			LowPower:        defaults.LowPower,
		},
		Server: ServerConfig{
			Port:         8080,
			AllowOrigins: []string{"*"},
		},
		Scryfall: ScryfallConfig{
			RequestInterval: "100ms",
			BatchLimit:      0,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".commander-crafter")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultDBPath returns the database location used when the config does
// not set one.
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".commander-crafter", "data.db"), nil
}

// Load loads the configuration from the given path, or from the default
// location when path is empty. Returns defaults if no file exists.
func Load(path string) (*Config, error) {
	var err error
	if path == "" {
		path, err = configPath()
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return config, nil
}

// Save writes the configuration to the given path, or to the default
// location when path is empty.
func (c *Config) Save(path string) error {
	var err error
	if path == "" {
		path, err = configPath()
		if err != nil {
			return err
		}
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
