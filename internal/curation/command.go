package curation

import (
	"github.com/spikeforge/curator/internal/clustering"
	"github.com/spikeforge/curator/internal/meta"
)

// command is one recorded action. It carries the partition delta, the
// metadata deltas, and the selections from immediately before and after
// the first execution; redo replays all of them verbatim (including the
// cluster ids allocated the first time), and undo restores the before
// state exactly.
type command struct {
	name string
	s    *Session

	clu  *clustering.Delta
	meta []meta.Delta

	primBefore []clustering.ClusterID
	simBefore  []clustering.ClusterID
	primAfter  []clustering.ClusterID
	simAfter   []clustering.ClusterID
}

func (c *command) Name() string { return c.name }

// Apply re-executes the command for redo. No ids are reallocated and the
// recorded post-action selection is restored rather than recomputed.
func (c *command) Apply() {
	if c.clu != nil {
		c.s.clu.Apply(*c.clu)
	}
	for _, d := range c.meta {
		c.s.meta.Apply(d)
	}
	c.s.restore(c.primAfter, c.simAfter)
}

// Revert undoes the command: deltas in reverse order, then the selection
// from before the action.
func (c *command) Revert() {
	for i := len(c.meta) - 1; i >= 0; i-- {
		c.s.meta.Revert(c.meta[i])
	}
	if c.clu != nil {
		c.s.clu.Revert(*c.clu)
	}
	c.s.restore(c.primBefore, c.simBefore)
}

// restore refreshes the worklists against the stores' current state and
// reinstates a recorded selection pair.
func (s *Session) restore(prim, sim []clustering.ClusterID) {
	s.afterMutation()
	s.primary.Select(prim...)
	s.refreshSimilar()
	s.similar.Select(sim...)
}
