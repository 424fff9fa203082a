// Package stats computes per-cluster aggregate statistics from a bounded
// sample of the raw event data, plus a pairwise similarity score used to
// rank the similarity worklist.
package stats

import (
	"math"
	"sort"

	"github.com/spikeforge/curator/internal/clustering"
)

// Source supplies per-item feature data. The curation engine never touches
// raw data directly; everything flows through bounded samples taken here.
type Source interface {
	NumChannels() int
	NumSamples() int
	// Waveform returns the item's feature matrix, NumSamples rows by
	// NumChannels columns.
	Waveform(item clustering.ItemID) [][]float64
}

// DefaultSampleCap bounds how many items are sampled per cluster. Cost per
// aggregate is O(cap), independent of cluster size.
const DefaultSampleCap = 100

// DefaultBestChannels is how many channels BestChannels returns at most.
const DefaultBestChannels = 4

// aggregate caches everything computed from one cluster's sample.
type aggregate struct {
	count        int
	meanWaveform [][]float64
	maxAmplitude float64
	channelPower []float64
}

// Provider answers statistic queries for the tables. Results are cached per
// cluster id; the session invalidates the cache after every mutation.
type Provider struct {
	clu   *clustering.Clustering
	src   Source
	cap   int
	cache map[clustering.ClusterID]*aggregate
}

// New creates a Provider. sampleCap <= 0 uses DefaultSampleCap.
func New(clu *clustering.Clustering, src Source, sampleCap int) *Provider {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	return &Provider{
		clu:   clu,
		src:   src,
		cap:   sampleCap,
		cache: make(map[clustering.ClusterID]*aggregate),
	}
}

// Invalidate drops all cached aggregates. Called after every partition or
// metadata mutation, before the tables re-rank.
func (p *Provider) Invalidate() {
	p.cache = make(map[clustering.ClusterID]*aggregate)
}

// Sample returns a bounded, deterministic subset of the cluster's items.
// Members are taken in ascending order with a fixed stride, so equal member
// sets always yield equal samples and re-ranking stays reproducible.
func (p *Provider) Sample(id clustering.ClusterID) []clustering.ItemID {
	members := p.clu.Members(id)
	if len(members) <= p.cap {
		return members
	}
	out := make([]clustering.ItemID, 0, p.cap)
	stride := float64(len(members)) / float64(p.cap)
	for i := 0; i < p.cap; i++ {
		out = append(out, members[int(float64(i)*stride)])
	}
	return out
}

func (p *Provider) agg(id clustering.ClusterID) *aggregate {
	if a, ok := p.cache[id]; ok {
		return a
	}

	sample := p.Sample(id)
	a := &aggregate{count: len(p.clu.Members(id))}

	rows, cols := p.src.NumSamples(), p.src.NumChannels()
	a.meanWaveform = make([][]float64, rows)
	for r := range a.meanWaveform {
		a.meanWaveform[r] = make([]float64, cols)
	}
	a.channelPower = make([]float64, cols)

	for _, item := range sample {
		w := p.src.Waveform(item)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				a.meanWaveform[r][c] += w[r][c]
			}
		}
	}
	if n := float64(len(sample)); n > 0 {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				a.meanWaveform[r][c] /= n
			}
		}
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := math.Abs(a.meanWaveform[r][c])
			if v > a.maxAmplitude {
				a.maxAmplitude = v
			}
			a.channelPower[c] += v * v
		}
	}

	p.cache[id] = a
	return a
}

// Count returns the cluster's full size (not the sample size).
func (p *Provider) Count(id clustering.ClusterID) float64 {
	return float64(p.agg(id).count)
}

// MeanWaveform returns the sampled mean waveform, NumSamples x NumChannels.
func (p *Provider) MeanWaveform(id clustering.ClusterID) [][]float64 {
	return p.agg(id).meanWaveform
}

// MaxAmplitude returns the peak absolute value of the mean waveform. Used
// as the default quality column.
func (p *Provider) MaxAmplitude(id clustering.ClusterID) float64 {
	return p.agg(id).maxAmplitude
}

// BestChannels returns the channels carrying the most signal for the
// cluster, strongest first, at most DefaultBestChannels of them.
func (p *Provider) BestChannels(id clustering.ClusterID) []int {
	power := p.agg(id).channelPower
	idx := make([]int, len(power))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return power[idx[a]] > power[idx[b]] })
	if len(idx) > DefaultBestChannels {
		idx = idx[:DefaultBestChannels]
	}
	return idx
}

// Similarity scores how alike two clusters are; higher means more similar.
// It is the negative mean squared distance between the mean waveforms on
// the union of both clusters' best channels. Deterministic for equal
// inputs because sampling is deterministic.
func (p *Provider) Similarity(a, b clustering.ClusterID) float64 {
	channels := make(map[int]bool)
	for _, c := range p.BestChannels(a) {
		channels[c] = true
	}
	for _, c := range p.BestChannels(b) {
		channels[c] = true
	}

	wa, wb := p.MeanWaveform(a), p.MeanWaveform(b)
	var sum float64
	var n int
	for r := range wa {
		for c := range channels {
			d := wa[r][c] - wb[r][c]
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return -sum / float64(n)
}
