package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/spikeforge/curator/internal/clustering"
	"github.com/spikeforge/curator/internal/config"
	"github.com/spikeforge/curator/internal/curation"
	"github.com/spikeforge/curator/internal/logging"
	"github.com/spikeforge/curator/internal/meta"
	"github.com/spikeforge/curator/internal/stats"
	"github.com/spikeforge/curator/internal/store"
	"github.com/spikeforge/curator/internal/table"
	"github.com/spikeforge/curator/internal/ui"
)

func main() {
	datasetPath := flag.String("dataset", "", "path to a dataset manifest (YAML); uses the built-in demo when empty")
	resume := flag.Bool("resume", false, "resume from the latest saved snapshot")
	flag.Parse()

	if err := run(*datasetPath, *resume); err != nil {
		fmt.Fprintf(os.Stderr, "curator: %v\n", err)
		os.Exit(1)
	}
}

func run(datasetPath string, resume bool) error {
	if err := logging.Init(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ds := config.DemoDataset()
	if datasetPath != "" {
		ds, err = config.LoadDataset(datasetPath)
		if err != nil {
			return err
		}
	}
	logging.Info("dataset loaded", "name", ds.Name, "items", len(ds.Assignments))

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("home directory: %w", err)
	}
	dataDir := filepath.Join(homeDir, ".curator")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.Open(filepath.Join(dataDir, "curator.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	assignments := make([]clustering.ClusterID, len(ds.Assignments))
	for i, c := range ds.Assignments {
		assignments[i] = clustering.ClusterID(c)
	}
	labels := make(map[clustering.ClusterID]map[string]string, len(ds.Labels))
	for id, group := range ds.Labels {
		labels[clustering.ClusterID(id)] = map[string]string{meta.GroupField: group}
	}

	if resume {
		snap, err := st.LoadLatest()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if snap != nil && len(snap.Assignments) == len(assignments) {
			assignments = snap.Assignments
			labels = snap.Labels
			logging.Info("resumed from snapshot", "id", snap.ID, "saved_at", snap.SavedAt)
		}
	}

	clu := clustering.New(assignments)
	m := meta.New()
	for id, fields := range labels {
		for field, value := range fields {
			m.Set(field, value, id)
		}
	}

	src := stats.SyntheticSource{
		Channels: ds.Channels,
		Samples:  ds.Samples,
		Seed:     ds.Seed,
	}
	provider := stats.New(clu, src, cfg.Stats.SampleCap)

	dir := table.Ascending
	if cfg.Review.SortDescend {
		dir = table.Descending
	}
	session := curation.NewSession(clu, m, curation.Config{
		Columns: []table.Column{
			{Name: "quality", Value: provider.MaxAmplitude},
			{Name: "n_spikes", Value: provider.Count},
		},
		SortColumn: cfg.Review.SortColumn,
		SortDir:    dir,
		Similarity: provider.Similarity,
		SkipLabels: cfg.Review.SkipLabels,
		HistoryCap: cfg.Review.HistoryCap,
		Invalidate: provider.Invalidate,
		Saver:      st,
	})
	session.Reset()

	var autosave *rate.Limiter
	if cfg.Review.AutosaveSecs > 0 {
		autosave = rate.NewLimiter(rate.Every(time.Duration(cfg.Review.AutosaveSecs)*time.Second), 1)
	}

	app := ui.NewApp(session, provider, autosave)
	program := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	if err := session.Save(); err != nil {
		return err
	}
	return nil
}
