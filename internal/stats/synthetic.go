package stats

import (
	"math"
	"math/rand"

	"github.com/spikeforge/curator/internal/clustering"
)

// SyntheticSource generates deterministic waveforms from a seed. It stands
// in for a recording on disk in the demo dataset and in tests.
type SyntheticSource struct {
	Channels int
	Samples  int
	Seed     int64
}

func (s SyntheticSource) NumChannels() int { return s.Channels }
func (s SyntheticSource) NumSamples() int  { return s.Samples }

// Waveform returns a damped oscillation with item-seeded amplitude, phase
// and channel spread. The same item always yields the same waveform.
func (s SyntheticSource) Waveform(item clustering.ItemID) [][]float64 {
	rng := rand.New(rand.NewSource(s.Seed ^ int64(item)*0x9e3779b9))
	amp := 0.5 + rng.Float64()
	phase := rng.Float64() * 2 * math.Pi
	center := rng.Intn(s.Channels)

	w := make([][]float64, s.Samples)
	for r := range w {
		w[r] = make([]float64, s.Channels)
		t := float64(r) / float64(s.Samples)
		base := amp * math.Exp(-3*t) * math.Sin(8*math.Pi*t+phase)
		for c := 0; c < s.Channels; c++ {
			spread := 1.0 / (1.0 + math.Abs(float64(c-center)))
			w[r][c] = base * spread
		}
	}
	return w
}
