// Package meta holds the per-cluster metadata overlay: a small fixed set of
// fields with typed defaults, read through Get which never fails.
package meta

import (
	"github.com/spikeforge/curator/internal/clustering"
)

// GroupField is the quality label attached to every cluster.
const GroupField = "group"

// Recognized group labels. Unsorted is the default and is never stored
// explicitly by merge carry-over.
const (
	GroupUnsorted = "unsorted"
	GroupGood     = "good"
	GroupMUA      = "mua"
	GroupNoise    = "noise"
	GroupIgnored  = "ignored"
)

// Field declares one metadata field and its default value.
type Field struct {
	Name    string
	Default string
}

// Change records the previous state of one cluster's field value so a Delta
// can be reverted exactly, including the distinction between "stored as
// default" and "never stored".
type Change struct {
	ID     clustering.ClusterID
	Old    string
	HadOld bool
}

// Delta is a reversible metadata mutation: one field set to one value for a
// set of clusters.
type Delta struct {
	Field   string
	Value   string
	Changes []Change
}

// Meta is the metadata store.
type Meta struct {
	fields map[string]Field
	order  []string
	values map[string]map[clustering.ClusterID]string
}

// New builds a Meta with the given fields. With no fields it declares just
// the group field defaulting to unsorted.
func New(fields ...Field) *Meta {
	if len(fields) == 0 {
		fields = []Field{{Name: GroupField, Default: GroupUnsorted}}
	}
	m := &Meta{
		fields: make(map[string]Field),
		values: make(map[string]map[clustering.ClusterID]string),
	}
	for _, f := range fields {
		m.fields[f.Name] = f
		m.order = append(m.order, f.Name)
		m.values[f.Name] = make(map[clustering.ClusterID]string)
	}
	return m
}

// Get returns the stored value, or the field's default when the cluster has
// no entry. Unknown fields read as empty.
func (m *Meta) Get(field string, id clustering.ClusterID) string {
	vals, ok := m.values[field]
	if !ok {
		return ""
	}
	if v, ok := vals[id]; ok {
		return v
	}
	return m.fields[field].Default
}

// Set overwrites the field for every given cluster and returns the Delta.
func (m *Meta) Set(field, value string, ids ...clustering.ClusterID) Delta {
	d := Delta{Field: field, Value: value}
	for _, id := range ids {
		old, had := m.values[field][id]
		d.Changes = append(d.Changes, Change{ID: id, Old: old, HadOld: had})
	}
	m.Apply(d)
	return d
}

// Apply re-executes the Delta. Used for the first execution and on redo.
func (m *Meta) Apply(d Delta) {
	vals, ok := m.values[d.Field]
	if !ok {
		return
	}
	for _, ch := range d.Changes {
		vals[ch.ID] = d.Value
	}
}

// Revert restores every cluster in the Delta to its previous state.
func (m *Meta) Revert(d Delta) {
	vals, ok := m.values[d.Field]
	if !ok {
		return
	}
	for _, ch := range d.Changes {
		if ch.HadOld {
			vals[ch.ID] = ch.Old
		} else {
			delete(vals, ch.ID)
		}
	}
}

// Clear removes all stored fields for a cluster. Intended for permanently
// retired ids; history normally keeps ids alive, so callers rarely need it.
func (m *Meta) Clear(id clustering.ClusterID) {
	for _, vals := range m.values {
		delete(vals, id)
	}
}

// Dump returns all explicitly stored values, per cluster per field.
func (m *Meta) Dump() map[clustering.ClusterID]map[string]string {
	out := make(map[clustering.ClusterID]map[string]string)
	for _, name := range m.order {
		for id, v := range m.values[name] {
			if out[id] == nil {
				out[id] = make(map[string]string)
			}
			out[id][name] = v
		}
	}
	return out
}

// groupPriority ranks labels for merge carry-over. Higher wins; the default
// never carries.
var groupPriority = map[string]int{
	GroupGood:    4,
	GroupMUA:     3,
	GroupNoise:   2,
	GroupIgnored: 1,
}

// CarryLabel picks the group label a merged cluster inherits: the
// highest-priority non-default label among the inputs, ties favoring the
// earliest input. Returns the default when no input carries a label.
func CarryLabel(labels []string) string {
	best := GroupUnsorted
	bestPrio := 0
	for _, l := range labels {
		if p := groupPriority[l]; p > bestPrio {
			best = l
			bestPrio = p
		}
	}
	return best
}
