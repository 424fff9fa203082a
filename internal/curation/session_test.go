package curation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spikeforge/curator/internal/clustering"
	"github.com/spikeforge/curator/internal/meta"
	"github.com/spikeforge/curator/internal/table"
)

// testSession builds the canonical fixture: seven singleton clusters
// {0,1,2,10,11,20,30}, 0 and 10 flagged ignored, 1 and 11 good, quality
// ranked by id descending and similarity ranked by candidate id.
func testSession() *Session {
	clu := clustering.New([]clustering.ClusterID{0, 1, 2, 10, 11, 20, 30})
	m := meta.New()
	m.Set(meta.GroupField, meta.GroupIgnored, 0, 10)
	m.Set(meta.GroupField, meta.GroupGood, 1, 11)

	return NewSession(clu, m, Config{
		Columns: []table.Column{{
			Name:  "quality",
			Value: func(id clustering.ClusterID) float64 { return float64(id) },
		}},
		SortColumn: "quality",
		SortDir:    table.Descending,
		Similarity: func(a, b clustering.ClusterID) float64 { return float64(b) },
	})
}

func wantSelected(t *testing.T, s *Session, want []clustering.ClusterID) {
	t.Helper()
	if got := s.Selected(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected selection %v, got %v", want, got)
	}
}

func TestEdgeCases(t *testing.T) {
	s := testSession()

	if got := s.Clustering().ClusterIDs(); !reflect.DeepEqual(got, []clustering.ClusterID{0, 1, 2, 10, 11, 20, 30}) {
		t.Fatalf("unexpected initial clusters %v", got)
	}

	s.Select(0)
	wantSelected(t, s, []clustering.ClusterID{0})

	// Empty history: both are no-ops.
	s.Undo()
	s.Redo()
	wantSelected(t, s, []clustering.ClusterID{0})

	// Merge with fewer than two resolvable ids is a no-op.
	s.Merge()
	wantSelected(t, s, []clustering.ClusterID{0})
	s.Merge(10)
	wantSelected(t, s, []clustering.ClusterID{0})

	s.Split()
	wantSelected(t, s, []clustering.ClusterID{0})

	s.Move(nil, meta.GroupIgnored)
	wantSelected(t, s, []clustering.ClusterID{0})

	if err := s.Save(); err != nil {
		t.Errorf("save without a saver should be a no-op, got %v", err)
	}

	if s.HistoryLen() != 0 {
		t.Errorf("no-ops must not reach history, got %d commands", s.HistoryLen())
	}
}

func TestNavigationSkipsIgnored(t *testing.T) {
	s := testSession()

	for _, want := range []clustering.ClusterID{30, 20, 11, 2, 1} {
		s.NextBest()
		wantSelected(t, s, []clustering.ClusterID{want})
	}
}

func TestMergeUndoRedo(t *testing.T) {
	s := testSession()

	s.Select(30)
	s.SelectSimilar(20)
	wantSelected(t, s, []clustering.ClusterID{30, 20})

	s.Merge()
	wantSelected(t, s, []clustering.ClusterID{31, 11})

	s.Undo()
	wantSelected(t, s, []clustering.ClusterID{30, 20})

	// Redo restores the same id 31, not a reallocation.
	s.Redo()
	wantSelected(t, s, []clustering.ClusterID{31, 11})
	if !s.Clustering().Has(31) {
		t.Error("cluster 31 should be live after redo")
	}
}

func TestAllocatorNeverRewinds(t *testing.T) {
	s := testSession()

	s.Select(30)
	s.SelectSimilar(20)
	s.Merge()
	wantSelected(t, s, []clustering.ClusterID{31, 11})

	s.Undo()

	// A fresh merge after undo gets a fresh id; 31 stays retired.
	s.Select(30)
	s.SelectSimilar(20)
	s.Merge()
	wantSelected(t, s, []clustering.ClusterID{32, 11})
}

func TestSplitUndoRedo(t *testing.T) {
	s := testSession()

	s.Select(1, 2)
	// Items 1 and 2 live in clusters 1 and 2; both clusters are fully
	// consumed, so the split yields a single fresh cluster.
	s.Split(1, 2)
	wantSelected(t, s, []clustering.ClusterID{31})

	s.Undo()
	wantSelected(t, s, []clustering.ClusterID{1, 2})

	s.Redo()
	wantSelected(t, s, []clustering.ClusterID{31})
}

func TestSplitRemainderSelection(t *testing.T) {
	clu := clustering.New([]clustering.ClusterID{0, 0, 1})
	s := NewSession(clu, meta.New(), Config{
		Columns: []table.Column{{
			Name:  "quality",
			Value: func(id clustering.ClusterID) float64 { return float64(id) },
		}},
		SortColumn: "quality",
		SortDir:    table.Descending,
		Similarity: func(a, b clustering.ClusterID) float64 { return float64(b) },
	})

	// Splitting item 0 out of cluster {0,1} allocates ids for the item
	// and the remainder, and selects both in allocation order.
	s.Split(0)
	wantSelected(t, s, []clustering.ClusterID{2, 3})
}

func TestMoveAdvancesPrimary(t *testing.T) {
	s := testSession()

	s.Select(20)
	s.Move([]clustering.ClusterID{20}, meta.GroupNoise)
	wantSelected(t, s, []clustering.ClusterID{11})

	s.Undo()
	wantSelected(t, s, []clustering.ClusterID{20})
	if got := s.Meta().Get(meta.GroupField, 20); got != meta.GroupUnsorted {
		t.Errorf("undo should clear the label, got %q", got)
	}

	s.Redo()
	wantSelected(t, s, []clustering.ClusterID{11})
	if got := s.Meta().Get(meta.GroupField, 20); got != meta.GroupNoise {
		t.Errorf("redo should restore the label, got %q", got)
	}
}

func TestMoveAdvancesSimilar(t *testing.T) {
	s := testSession()

	s.Select(20)
	s.SelectSimilar(10)
	wantSelected(t, s, []clustering.ClusterID{20, 10})

	s.Move([]clustering.ClusterID{10}, meta.GroupNoise)
	wantSelected(t, s, []clustering.ClusterID{20, 2})

	s.Undo()
	wantSelected(t, s, []clustering.ClusterID{20, 10})

	s.Redo()
	wantSelected(t, s, []clustering.ClusterID{20, 2})
}

func TestResetAndSimilarityNavigation(t *testing.T) {
	s := testSession()

	s.Select(10, 11)

	s.Reset()
	wantSelected(t, s, []clustering.ClusterID{30})

	s.Next()
	wantSelected(t, s, []clustering.ClusterID{30, 20})

	s.Next()
	wantSelected(t, s, []clustering.ClusterID{30, 11})

	s.Previous()
	wantSelected(t, s, []clustering.ClusterID{30, 20})
}

func TestBestNavigation(t *testing.T) {
	s := testSession()

	s.Reset()
	wantSelected(t, s, []clustering.ClusterID{30})

	s.NextBest()
	wantSelected(t, s, []clustering.ClusterID{20})

	s.PreviousBest()
	wantSelected(t, s, []clustering.ClusterID{30})
}

func TestMoveBestSequence(t *testing.T) {
	s := testSession()

	s.Next()
	wantSelected(t, s, []clustering.ClusterID{30})

	s.MoveBest(meta.GroupNoise)
	wantSelected(t, s, []clustering.ClusterID{20})

	s.MoveBest(meta.GroupMUA)
	wantSelected(t, s, []clustering.ClusterID{11})

	s.MoveBest(meta.GroupGood)
	wantSelected(t, s, []clustering.ClusterID{2})

	m := s.Meta()
	for _, tt := range []struct {
		id   clustering.ClusterID
		want string
	}{{30, meta.GroupNoise}, {20, meta.GroupMUA}, {11, meta.GroupGood}} {
		if got := m.Get(meta.GroupField, tt.id); got != tt.want {
			t.Errorf("cluster %d: expected %q, got %q", tt.id, tt.want, got)
		}
	}
}

func TestMoveSimilarSequence(t *testing.T) {
	s := testSession()

	s.Select(30)
	s.SelectSimilar(20)

	s.MoveSimilar(meta.GroupNoise)
	wantSelected(t, s, []clustering.ClusterID{30, 11})

	s.MoveSimilar(meta.GroupMUA)
	wantSelected(t, s, []clustering.ClusterID{30, 2})

	s.MoveSimilar(meta.GroupGood)
	wantSelected(t, s, []clustering.ClusterID{30, 1})
}

func TestMoveAllSequence(t *testing.T) {
	s := testSession()

	s.Select(30)
	s.SelectSimilar(20)

	s.MoveAll(meta.GroupNoise)
	wantSelected(t, s, []clustering.ClusterID{11, 2})

	s.MoveAll(meta.GroupMUA)
	wantSelected(t, s, []clustering.ClusterID{1})

	// Nothing eligible follows 1; the primary pick stays put.
	s.MoveAll(meta.GroupGood)
	wantSelected(t, s, []clustering.ClusterID{1})

	m := s.Meta()
	if m.Get(meta.GroupField, 30) != meta.GroupNoise || m.Get(meta.GroupField, 20) != meta.GroupNoise {
		t.Error("30 and 20 should be noise")
	}
	if m.Get(meta.GroupField, 11) != meta.GroupMUA || m.Get(meta.GroupField, 2) != meta.GroupMUA {
		t.Error("11 and 2 should be mua")
	}
	if m.Get(meta.GroupField, 1) != meta.GroupGood {
		t.Error("1 should be good")
	}
}

func TestMergeCarriesLabel(t *testing.T) {
	s := testSession()

	// 11 is good, 20 unsorted: the merge inherits good.
	s.Merge(11, 20)
	newID := s.Selected()[0]
	if got := s.Meta().Get(meta.GroupField, newID); got != meta.GroupGood {
		t.Errorf("merged cluster should inherit good, got %q", got)
	}

	// Undo removes the inherited label along with the partition change.
	s.Undo()
	if got := s.Meta().Get(meta.GroupField, newID); got != meta.GroupUnsorted {
		t.Errorf("undo should drop the inherited label, got %q", got)
	}
}

func TestUndoRestoresExactState(t *testing.T) {
	s := testSession()
	assignBefore := s.Clustering().Assignments()

	s.Select(30)
	s.SelectSimilar(20)
	s.Merge()
	s.Undo()

	if got := s.Clustering().Assignments(); !reflect.DeepEqual(got, assignBefore) {
		t.Errorf("undo should restore the exact partition, got %v", got)
	}
}

// captureSaver records snapshot calls for testing Save.
type captureSaver struct {
	calls int
	err   error
	items int
}

func (c *captureSaver) SaveSnapshot(assignments []clustering.ClusterID, labels map[clustering.ClusterID]map[string]string) (string, error) {
	c.calls++
	c.items = len(assignments)
	if c.err != nil {
		return "", c.err
	}
	return "snap-1", nil
}

func TestSave(t *testing.T) {
	saver := &captureSaver{}
	clu := clustering.New([]clustering.ClusterID{0, 1})
	s := NewSession(clu, meta.New(), Config{
		Columns: []table.Column{{
			Name:  "quality",
			Value: func(id clustering.ClusterID) float64 { return float64(id) },
		}},
		Similarity: func(a, b clustering.ClusterID) float64 { return float64(b) },
		Saver:      saver,
	})

	if err := s.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saver.calls != 1 || saver.items != 2 {
		t.Errorf("expected one call with 2 items, got %d/%d", saver.calls, saver.items)
	}
	if s.HistoryLen() != 0 {
		t.Error("save must not push a command")
	}

	saver.err = errors.New("disk full")
	if err := s.Save(); err == nil {
		t.Error("save should surface the collaborator's error")
	}
}

func TestListenerNotified(t *testing.T) {
	s := testSession()

	var got [][]clustering.ClusterID
	s.AddListener(func(sel []clustering.ClusterID) {
		got = append(got, sel)
	})

	s.Select(30)
	s.SelectSimilar(20)
	s.Merge()
	s.Undo()

	if len(got) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(got))
	}
	if !reflect.DeepEqual(got[2], []clustering.ClusterID{31, 11}) {
		t.Errorf("merge notification should carry the new selection, got %v", got[2])
	}
	if !reflect.DeepEqual(got[3], []clustering.ClusterID{30, 20}) {
		t.Errorf("undo notification should carry the restored selection, got %v", got[3])
	}
}

func TestPartitionInvariantUnderActions(t *testing.T) {
	s := testSession()

	s.Select(30)
	s.SelectSimilar(20)
	s.Merge()
	s.Split(0, 3)
	s.Move([]clustering.ClusterID{11}, meta.GroupNoise)
	s.Undo()
	s.Redo()
	s.Undo()
	s.Undo()

	clu := s.Clustering()
	seen := make(map[clustering.ItemID]bool)
	for _, id := range clu.ClusterIDs() {
		for _, item := range clu.Members(id) {
			if seen[item] {
				t.Fatalf("item %d in more than one cluster", item)
			}
			seen[item] = true
		}
	}
	if len(seen) != clu.NumItems() {
		t.Errorf("expected %d items accounted for, got %d", clu.NumItems(), len(seen))
	}
}
