package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dataset describes one recording session to curate: the initial
// item-to-cluster mapping, optional initial labels, and the shape of the
// synthetic waveform source.
type Dataset struct {
	Name     string `yaml:"name"`
	Channels int    `yaml:"channels"`
	Samples  int    `yaml:"samples"`
	Seed     int64  `yaml:"seed"`

	// Assignments maps item i to its initial cluster id.
	Assignments []int64 `yaml:"assignments"`

	// Labels holds initial group labels keyed by cluster id.
	Labels map[int64]string `yaml:"labels,omitempty"`
}

// LoadDataset parses a dataset manifest from a YAML file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset manifest: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset manifest: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", ds.Name, err)
	}
	return &ds, nil
}

func (d *Dataset) validate() error {
	if len(d.Assignments) == 0 {
		return fmt.Errorf("no assignments")
	}
	if d.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", d.Channels)
	}
	if d.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", d.Samples)
	}
	for i, c := range d.Assignments {
		if c < 0 {
			return fmt.Errorf("item %d has negative cluster id %d", i, c)
		}
	}
	return nil
}

// DemoDataset returns a small built-in dataset used when no manifest is
// given.
func DemoDataset() *Dataset {
	return &Dataset{
		Name:        "demo",
		Channels:    4,
		Samples:     32,
		Seed:        42,
		Assignments: []int64{0, 0, 0, 1, 1, 10, 10, 10, 11, 20, 20, 30},
		Labels: map[int64]string{
			0:  "ignored",
			1:  "good",
			10: "ignored",
			11: "good",
		},
	}
}
