package stats

import (
	"reflect"
	"testing"

	"github.com/spikeforge/curator/internal/clustering"
)

func newFixture(assignments []clustering.ClusterID, sampleCap int) (*clustering.Clustering, *Provider) {
	clu := clustering.New(assignments)
	src := SyntheticSource{Channels: 4, Samples: 16, Seed: 7}
	return clu, New(clu, src, sampleCap)
}

func TestSampleBounded(t *testing.T) {
	assignments := make([]clustering.ClusterID, 500)
	clu, p := newFixture(assignments, 50)

	sample := p.Sample(0)
	if len(sample) != 50 {
		t.Fatalf("expected sample capped at 50, got %d", len(sample))
	}
	if int(p.Count(0)) != clu.NumItems() {
		t.Errorf("count should be the full cluster size, got %v", p.Count(0))
	}

	// Same member set, same sample.
	again := p.Sample(0)
	if !reflect.DeepEqual(sample, again) {
		t.Error("sampling should be deterministic")
	}
}

func TestSampleSmallCluster(t *testing.T) {
	_, p := newFixture([]clustering.ClusterID{0, 0, 1}, 50)

	if got := p.Sample(0); !reflect.DeepEqual(got, []clustering.ItemID{0, 1}) {
		t.Errorf("small cluster should be fully sampled, got %v", got)
	}
}

func TestAggregateShapes(t *testing.T) {
	_, p := newFixture([]clustering.ClusterID{0, 0, 0, 1}, 0)

	w := p.MeanWaveform(0)
	if len(w) != 16 || len(w[0]) != 4 {
		t.Fatalf("mean waveform shape should be 16x4, got %dx%d", len(w), len(w[0]))
	}
	if p.MaxAmplitude(0) <= 0 {
		t.Error("max amplitude should be positive for a non-empty cluster")
	}

	best := p.BestChannels(0)
	if len(best) == 0 || len(best) > 4 {
		t.Errorf("best channels should be 1..4 entries, got %v", best)
	}
}

func TestSimilarity(t *testing.T) {
	_, p := newFixture([]clustering.ClusterID{0, 0, 1, 1, 2, 2}, 0)

	// A cluster is at least as similar to itself as to anything else.
	self := p.Similarity(0, 0)
	if self != 0 {
		t.Errorf("self-similarity should be 0 (zero distance), got %v", self)
	}
	if p.Similarity(0, 1) > self {
		t.Error("no cluster should beat self-similarity")
	}

	// Deterministic and symmetric for equal inputs.
	if p.Similarity(0, 1) != p.Similarity(0, 1) {
		t.Error("similarity should be stable across calls")
	}
}

func TestInvalidate(t *testing.T) {
	clu, p := newFixture([]clustering.ClusterID{0, 0, 1}, 0)

	before := p.Count(0)
	clu.Merge([]clustering.ClusterID{0, 1})
	p.Invalidate()

	if got := p.Count(2); got != before+1 {
		t.Errorf("expected merged count %v, got %v", before+1, got)
	}
}
