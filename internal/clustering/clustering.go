// Package clustering maintains the partition of items (detected events)
// into clusters, and owns the monotonic cluster id allocator.
package clustering

import "sort"

// ClusterID identifies a cluster. Ids are never reused: the allocator only
// counts up, even across undo/redo, so an id observed once stays unique for
// the lifetime of the session.
type ClusterID int64

// ItemID indexes an atomic item. Items are dense: 0..NumItems()-1.
type ItemID int

// Delta records a reversible change to the partition: which items moved,
// and their cluster ids before and after. A Delta applied and then reverted
// leaves the partition exactly as it was.
type Delta struct {
	Items []ItemID
	Old   []ClusterID
	New   []ClusterID
}

// Clustering is the partition store. Not safe for concurrent use; the
// session owns one instance and mutates it synchronously.
type Clustering struct {
	assignments []ClusterID
	members     map[ClusterID][]ItemID
	next        ClusterID
}

// New builds a Clustering from an initial assignment vector (item i belongs
// to cluster assignments[i]). The allocator starts just past the largest
// initial id.
func New(assignments []ClusterID) *Clustering {
	c := &Clustering{
		assignments: make([]ClusterID, len(assignments)),
		members:     make(map[ClusterID][]ItemID),
	}
	copy(c.assignments, assignments)
	for i, id := range assignments {
		c.members[id] = append(c.members[id], ItemID(i))
		if id >= c.next {
			c.next = id + 1
		}
	}
	return c
}

// NumItems returns the number of items in the partition.
func (c *Clustering) NumItems() int { return len(c.assignments) }

// Has reports whether the id currently owns at least one item.
func (c *Clustering) Has(id ClusterID) bool { return len(c.members[id]) > 0 }

// Assignment returns the cluster the item currently belongs to.
func (c *Clustering) Assignment(item ItemID) ClusterID { return c.assignments[item] }

// Assignments returns a copy of the full assignment vector.
func (c *Clustering) Assignments() []ClusterID {
	out := make([]ClusterID, len(c.assignments))
	copy(out, c.assignments)
	return out
}

// ClusterIDs returns the distinct ids currently in use, ascending.
func (c *Clustering) ClusterIDs() []ClusterID {
	ids := make([]ClusterID, 0, len(c.members))
	for id, items := range c.members {
		if len(items) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Members returns the items currently in the cluster, ascending.
func (c *Clustering) Members(id ClusterID) []ItemID {
	src := c.members[id]
	out := make([]ItemID, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllocateIDs returns n fresh, strictly increasing ids and advances the
// counter. The counter is not undo state: reverting a Delta does not give
// the ids back.
func (c *Clustering) AllocateIDs(n int) []ClusterID {
	ids := make([]ClusterID, n)
	for i := range ids {
		ids[i] = c.next
		c.next++
	}
	return ids
}

// Assign rewrites the mapping for the given items and returns the Delta.
// targets must either have one entry per item or a single entry applied to
// all of them.
func (c *Clustering) Assign(items []ItemID, targets []ClusterID) Delta {
	d := Delta{
		Items: make([]ItemID, len(items)),
		Old:   make([]ClusterID, len(items)),
		New:   make([]ClusterID, len(items)),
	}
	copy(d.Items, items)
	for i, item := range items {
		d.Old[i] = c.assignments[item]
		if len(targets) == 1 {
			d.New[i] = targets[0]
		} else {
			d.New[i] = targets[i]
		}
	}
	c.Apply(d)
	return d
}

// Apply moves every item in the Delta to its New cluster. Used for the
// first execution and verbatim on redo.
func (c *Clustering) Apply(d Delta) {
	for i, item := range d.Items {
		c.move(item, d.New[i])
	}
}

// Revert moves every item in the Delta back to its Old cluster.
func (c *Clustering) Revert(d Delta) {
	for i, item := range d.Items {
		c.move(item, d.Old[i])
	}
}

func (c *Clustering) move(item ItemID, to ClusterID) {
	from := c.assignments[item]
	if from == to {
		return
	}
	c.assignments[item] = to
	old := c.members[from]
	for i, it := range old {
		if it == item {
			old[i] = old[len(old)-1]
			c.members[from] = old[:len(old)-1]
			break
		}
	}
	if len(c.members[from]) == 0 {
		delete(c.members, from)
	}
	c.members[to] = append(c.members[to], item)
}

// Merge reassigns every member of the input clusters to one fresh id.
// Returns the Delta and the allocated id.
func (c *Clustering) Merge(inputs []ClusterID) (Delta, ClusterID) {
	target := c.AllocateIDs(1)[0]
	var items []ItemID
	for _, id := range inputs {
		items = append(items, c.Members(id)...)
	}
	d := c.Assign(items, []ClusterID{target})
	return d, target
}

// Split reassigns each group of items to a fresh id. Clusters that lose
// only part of their membership have their remaining items reassigned to a
// fresh id as well, so every touched cluster id dies entirely and the
// original partition is fully accounted for. Returned ids are ordered:
// one per group first, then one per remainder in ascending old-cluster
// order.
func (c *Clustering) Split(groups [][]ItemID) (Delta, []ClusterID) {
	specified := make(map[ItemID]bool)
	touched := make(map[ClusterID]bool)
	for _, g := range groups {
		for _, item := range g {
			specified[item] = true
			touched[c.assignments[item]] = true
		}
	}

	var oldIDs []ClusterID
	for id := range touched {
		oldIDs = append(oldIDs, id)
	}
	sort.Slice(oldIDs, func(i, j int) bool { return oldIDs[i] < oldIDs[j] })

	var remainders [][]ItemID
	for _, id := range oldIDs {
		var rest []ItemID
		for _, item := range c.Members(id) {
			if !specified[item] {
				rest = append(rest, item)
			}
		}
		if len(rest) > 0 {
			remainders = append(remainders, rest)
		}
	}

	fresh := c.AllocateIDs(len(groups) + len(remainders))
	var items []ItemID
	var targets []ClusterID
	for i, g := range groups {
		for _, item := range g {
			items = append(items, item)
			targets = append(targets, fresh[i])
		}
	}
	for i, rest := range remainders {
		for _, item := range rest {
			items = append(items, item)
			targets = append(targets, fresh[len(groups)+i])
		}
	}

	d := c.Assign(items, targets)
	return d, fresh
}
