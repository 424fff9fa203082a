package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Stats settings
	Stats StatsConfig `json:"stats"`

	// Review workflow settings
	Review ReviewConfig `json:"review"`

	// UI Preferences
	UI UIConfig `json:"ui"`
}

// StatsConfig holds sampling and aggregation settings
type StatsConfig struct {
	SampleCap int `json:"sample_cap"` // Max items sampled per cluster
}

// ReviewConfig holds worklist and history settings
type ReviewConfig struct {
	SortColumn    string   `json:"sort_column"`
	SortDescend   bool     `json:"sort_descend"`
	SkipLabels    []string `json:"skip_labels"`  // Labels navigation steps over
	HistoryCap    int      `json:"history_cap"`  // 0 = unbounded undo stack
	AutosaveSecs  int      `json:"autosave_secs"` // Min seconds between autosaves
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme       string `json:"theme"`
	ShowStatus  bool   `json:"show_status"`
	DensityMode string `json:"density_mode"` // "comfortable" or "compact"
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Stats: StatsConfig{
			SampleCap: 100,
		},
		Review: ReviewConfig{
			SortColumn:   "quality",
			SortDescend:  true,
			SkipLabels:   []string{"ignored"},
			HistoryCap:   0,
			AutosaveSecs: 30,
		},
		UI: UIConfig{
			Theme:       "dark",
			ShowStatus:  true,
			DensityMode: "comfortable",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".curator", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
