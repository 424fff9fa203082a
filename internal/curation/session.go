// Package curation is the orchestration core: it owns the analyst's
// selection, dispatches the high-level actions (merge, split, move,
// navigate), wraps every mutation into a reversible command, and applies
// the auto-advance policy that keeps review moving after each action.
package curation

import (
	"fmt"

	"github.com/spikeforge/curator/internal/clustering"
	"github.com/spikeforge/curator/internal/history"
	"github.com/spikeforge/curator/internal/logging"
	"github.com/spikeforge/curator/internal/meta"
	"github.com/spikeforge/curator/internal/table"
)

// Saver persists a snapshot of the partition and the metadata overlay.
// Failures are reported to the caller of Save and never touch in-memory
// state.
type Saver interface {
	SaveSnapshot(assignments []clustering.ClusterID, labels map[clustering.ClusterID]map[string]string) (string, error)
}

// Listener receives the current selection after every mutating action and
// after every select/navigate.
type Listener func(selected []clustering.ClusterID)

// Config wires a Session. Columns, sort and similarity come from the host;
// everything else has defaults.
type Config struct {
	Columns    []table.Column
	SortColumn string
	SortDir    table.Direction

	// Similarity scores candidate b against reference a; higher is more
	// similar. Required for the similarity worklist.
	Similarity func(a, b clustering.ClusterID) float64

	// SkipLabels are group labels navigation steps over. Defaults to
	// {ignored}.
	SkipLabels []string

	// HistoryCap bounds the undo stack; <= 0 means unbounded.
	HistoryCap int

	// CarryLabel decides which group label a merged cluster inherits.
	// Defaults to meta.CarryLabel.
	CarryLabel func(labels []string) string

	// SplitGroups maps the items passed to Split onto sub-groups, each of
	// which becomes one fresh cluster. The default puts all specified
	// items into a single group.
	SplitGroups func(clu *clustering.Clustering, items []clustering.ItemID) [][]clustering.ItemID

	// Invalidate, when set, is called after every mutation before the
	// tables re-rank (used to drop the stats cache).
	Invalidate func()

	Saver Saver
}

// Session is the selection controller. Single-threaded by contract: every
// action runs to completion before the next is accepted, and no action
// re-enters another.
type Session struct {
	clu  *clustering.Clustering
	meta *meta.Meta
	hist *history.History
	cfg  Config

	primary *table.View
	similar *table.View

	simRef    clustering.ClusterID
	hasSimRef bool

	listeners []Listener
}

// NewSession builds a Session over an existing partition and metadata
// store.
func NewSession(clu *clustering.Clustering, m *meta.Meta, cfg Config) *Session {
	if len(cfg.SkipLabels) == 0 {
		cfg.SkipLabels = []string{meta.GroupIgnored}
	}
	if cfg.CarryLabel == nil {
		cfg.CarryLabel = meta.CarryLabel
	}
	if cfg.SplitGroups == nil {
		cfg.SplitGroups = singleGroup
	}

	s := &Session{
		clu:  clu,
		meta: m,
		hist: history.New(cfg.HistoryCap),
		cfg:  cfg,
	}

	skipSet := make(map[string]bool)
	for _, l := range cfg.SkipLabels {
		skipSet[l] = true
	}
	skip := func(id clustering.ClusterID) bool {
		return skipSet[m.Get(meta.GroupField, id)]
	}

	s.primary = table.New(cfg.Columns...)
	s.primary.SetSkip(skip)
	if cfg.SortColumn != "" {
		s.primary.SetSort(cfg.SortColumn, cfg.SortDir)
	}

	s.similar = table.New(table.Column{
		Name: "similarity",
		Value: func(id clustering.ClusterID) float64 {
			if !s.hasSimRef || cfg.Similarity == nil {
				return 0
			}
			return cfg.Similarity(s.simRef, id)
		},
	})
	s.similar.SetSkip(skip)
	s.similar.SetSort("similarity", table.Descending)

	s.primary.SetIDs(clu.ClusterIDs())
	return s
}

// singleGroup is the default split policy: every specified item goes into
// one new cluster.
func singleGroup(_ *clustering.Clustering, items []clustering.ItemID) [][]clustering.ItemID {
	return [][]clustering.ItemID{items}
}

// AddListener registers a selection observer.
func (s *Session) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Clustering exposes the partition store (read-only by convention).
func (s *Session) Clustering() *clustering.Clustering { return s.clu }

// Meta exposes the metadata store (read-only by convention).
func (s *Session) Meta() *meta.Meta { return s.meta }

// PrimaryView returns the primary worklist.
func (s *Session) PrimaryView() *table.View { return s.primary }

// SimilarView returns the similarity worklist.
func (s *Session) SimilarView() *table.View { return s.similar }

// CanUndo reports whether Undo would act.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would act.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// HistoryLen returns the number of recorded commands.
func (s *Session) HistoryLen() int { return s.hist.Len() }

// Selected returns the current selection: primary picks followed by
// similarity picks.
func (s *Session) Selected() []clustering.ClusterID {
	out := s.primary.Selected()
	seen := make(map[clustering.ClusterID]bool, len(out))
	for _, id := range out {
		seen[id] = true
	}
	for _, id := range s.similar.Selected() {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) notify() {
	sel := s.Selected()
	for _, l := range s.listeners {
		l(sel)
	}
}

// afterMutation refreshes derived state once the stores changed: drops the
// stats cache and recomputes the primary sequence.
func (s *Session) afterMutation() {
	if s.cfg.Invalidate != nil {
		s.cfg.Invalidate()
	}
	s.primary.SetIDs(s.clu.ClusterIDs())
}

// refreshSimilar re-ranks the similarity worklist against the first
// primary pick. With no primary selection the worklist is empty.
func (s *Session) refreshSimilar() {
	prim := s.primary.Selected()
	if len(prim) == 0 {
		s.hasSimRef = false
		s.similar.SetIDs(nil)
		return
	}
	s.simRef = prim[0]
	s.hasSimRef = true

	inPrim := make(map[clustering.ClusterID]bool, len(prim))
	for _, id := range prim {
		inPrim[id] = true
	}
	var ids []clustering.ClusterID
	for _, id := range s.clu.ClusterIDs() {
		if !inPrim[id] {
			ids = append(ids, id)
		}
	}
	s.similar.SetIDs(ids)
}

// resolve drops duplicates and ids absent from the live partition,
// preserving order.
func (s *Session) resolve(ids []clustering.ClusterID) []clustering.ClusterID {
	var out []clustering.ClusterID
	seen := make(map[clustering.ClusterID]bool)
	for _, id := range ids {
		if seen[id] || !s.clu.Has(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Select sets the primary selection directly and clears the similarity
// picks. It does not touch history.
func (s *Session) Select(ids ...clustering.ClusterID) {
	s.primary.Select(ids...)
	s.refreshSimilar()
	s.similar.Select()
	s.notify()
}

// SelectSimilar sets the similarity picks (must be in the similarity
// worklist's universe).
func (s *Session) SelectSimilar(ids ...clustering.ClusterID) {
	s.similar.Select(ids...)
	s.notify()
}

// Merge reassigns every item of the given clusters (the whole current
// selection when called with none) to one fresh cluster. A no-op unless at
// least two distinct live ids resolve. The new cluster inherits the
// highest-priority group label of the inputs, and the selection becomes
// the new id plus the best similarity candidate.
func (s *Session) Merge(ids ...clustering.ClusterID) {
	if len(ids) == 0 {
		ids = s.Selected()
	}
	inputs := s.resolve(ids)
	if len(inputs) < 2 {
		logging.Debug("merge needs at least two clusters", "resolved", len(inputs))
		return
	}

	primBefore, simBefore := s.primary.Selected(), s.similar.Selected()

	labels := make([]string, len(inputs))
	for i, id := range inputs {
		labels[i] = s.meta.Get(meta.GroupField, id)
	}

	delta, newID := s.clu.Merge(inputs)
	var metaDeltas []meta.Delta
	if lbl := s.cfg.CarryLabel(labels); lbl != meta.GroupUnsorted {
		metaDeltas = append(metaDeltas, s.meta.Set(meta.GroupField, lbl, newID))
	}

	s.afterMutation()
	s.primary.Select(newID)
	s.refreshSimilar()
	if cand, ok := s.similar.First(); ok {
		s.similar.Select(cand)
	} else {
		s.similar.Select()
	}

	s.hist.Push(&command{
		name:       "merge",
		s:          s,
		clu:        &delta,
		meta:       metaDeltas,
		primBefore: primBefore,
		simBefore:  simBefore,
		primAfter:  s.primary.Selected(),
		simAfter:   s.similar.Selected(),
	})
	logging.Info("merged clusters", "new", newID, "inputs", len(inputs))
	s.notify()
}

// Split carves the given items out of their clusters. The sub-grouping
// policy decides how many fresh clusters the items form; partially-consumed
// clusters get a fresh id for their remainder so every original cluster is
// fully accounted for. The selection becomes all allocated ids. A no-op
// with no items.
func (s *Session) Split(items ...clustering.ItemID) {
	var valid []clustering.ItemID
	for _, it := range items {
		if it >= 0 && int(it) < s.clu.NumItems() {
			valid = append(valid, it)
		}
	}
	if len(valid) == 0 {
		logging.Debug("split with no items is a no-op")
		return
	}

	groups := s.cfg.SplitGroups(s.clu, valid)
	if len(groups) == 0 {
		return
	}

	primBefore, simBefore := s.primary.Selected(), s.similar.Selected()

	delta, fresh := s.clu.Split(groups)

	s.afterMutation()
	s.primary.Select(fresh...)
	s.refreshSimilar()
	s.similar.Select()

	s.hist.Push(&command{
		name:       "split",
		s:          s,
		clu:        &delta,
		primBefore: primBefore,
		simBefore:  simBefore,
		primAfter:  s.primary.Selected(),
		simAfter:   s.similar.Selected(),
	})
	logging.Info("split items", "items", len(valid), "new", fresh)
	s.notify()
}

// Move sets the group label for the given clusters without touching the
// partition, then auto-advances: moved ids that were selected are replaced
// by the next eligible id in their worklist. A no-op with no resolvable
// ids or an empty label.
func (s *Session) Move(ids []clustering.ClusterID, label string) {
	targets := s.resolve(ids)
	if len(targets) == 0 || label == "" {
		logging.Debug("move is a no-op", "targets", len(targets), "label", label)
		return
	}

	primBefore, simBefore := s.primary.Selected(), s.similar.Selected()

	d := s.meta.Set(meta.GroupField, label, targets...)
	moved := make(map[clustering.ClusterID]bool, len(targets))
	for _, id := range targets {
		moved[id] = true
	}

	s.afterMutation()
	s.primary.Select(advance(s.primary, primBefore, moved, true)...)
	s.refreshSimilar()
	s.similar.Select(advance(s.similar, simBefore, moved, false)...)

	s.hist.Push(&command{
		name:       "move",
		s:          s,
		meta:       []meta.Delta{d},
		primBefore: primBefore,
		simBefore:  simBefore,
		primAfter:  s.primary.Selected(),
		simAfter:   s.similar.Selected(),
	})
	logging.Info("moved clusters", "label", label, "count", len(targets))
	s.notify()
}

// advance is the auto-advance policy, pure over its inputs: each moved id
// in the old selection is replaced by the next eligible id in the view's
// order. keepIfNone keeps the moved id when nothing eligible follows (the
// primary worklist does; the similarity worklist drops it).
func advance(v *table.View, sel []clustering.ClusterID, moved map[clustering.ClusterID]bool, keepIfNone bool) []clustering.ClusterID {
	exclude := make(map[clustering.ClusterID]bool, len(moved))
	for id := range moved {
		exclude[id] = true
	}
	var out []clustering.ClusterID
	for _, id := range sel {
		if !moved[id] {
			out = append(out, id)
			continue
		}
		if next, ok := v.NextAfter(id, exclude); ok {
			out = append(out, next)
			exclude[next] = true
		} else if keepIfNone {
			out = append(out, id)
		}
	}
	return out
}

// Undo reverts the latest command, restoring partition, metadata and the
// exact selection from before it ran. A no-op with an empty history.
func (s *Session) Undo() {
	cmd, ok := s.hist.Undo()
	if !ok {
		logging.Debug("nothing to undo")
		return
	}
	logging.Info("undid", "action", cmd.Name())
	s.notify()
}

// Redo re-applies the next command with the exact ids and selection it
// produced the first time. A no-op with no redo tail.
func (s *Session) Redo() {
	cmd, ok := s.hist.Redo()
	if !ok {
		logging.Debug("nothing to redo")
		return
	}
	logging.Info("redid", "action", cmd.Name())
	s.notify()
}

// Save hands the partition and metadata to the persistence collaborator.
// In-memory state is untouched either way.
func (s *Session) Save() error {
	if s.cfg.Saver == nil {
		return nil
	}
	id, err := s.cfg.Saver.SaveSnapshot(s.clu.Assignments(), s.meta.Dump())
	if err != nil {
		logging.Error("snapshot failed", "error", err)
		return fmt.Errorf("save snapshot: %w", err)
	}
	logging.Info("snapshot saved", "id", id)
	return nil
}

// Next advances the similarity worklist, or the primary one when nothing
// is selected yet.
func (s *Session) Next() {
	if len(s.primary.Selected()) == 0 {
		s.NextBest()
		return
	}
	if _, ok := s.similar.Next(); ok {
		s.notify()
	}
}

// Previous steps the similarity worklist backwards.
func (s *Session) Previous() {
	if len(s.primary.Selected()) == 0 {
		s.PreviousBest()
		return
	}
	if _, ok := s.similar.Previous(); ok {
		s.notify()
	}
}

// NextBest advances the primary worklist and re-ranks similarity against
// the new pick.
func (s *Session) NextBest() {
	if _, ok := s.primary.Next(); ok {
		s.refreshSimilar()
		s.similar.Select()
		s.notify()
	}
}

// PreviousBest steps the primary worklist backwards.
func (s *Session) PreviousBest() {
	if _, ok := s.primary.Previous(); ok {
		s.refreshSimilar()
		s.similar.Select()
		s.notify()
	}
}

// Reset selects the first id of the primary worklist and clears the
// similarity picks.
func (s *Session) Reset() {
	s.primary.Reset()
	s.refreshSimilar()
	s.similar.Select()
	s.notify()
}

// MoveBest labels the current primary picks and advances.
func (s *Session) MoveBest(label string) {
	s.Move(s.primary.Selected(), label)
}

// MoveSimilar labels the current similarity picks and advances.
func (s *Session) MoveSimilar(label string) {
	s.Move(s.similar.Selected(), label)
}

// MoveAll labels the union of primary and similarity picks and advances.
func (s *Session) MoveAll(label string) {
	s.Move(s.Selected(), label)
}
