// Package table maintains a ranked, navigable view of cluster ids: an id
// sequence sorted by a named statistic column, a skip predicate for
// navigation, and the view's current selection.
package table

import (
	"sort"

	"github.com/spikeforge/curator/internal/clustering"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Column is a named statistic the view can sort by.
type Column struct {
	Name  string
	Value func(id clustering.ClusterID) float64
}

// View is one ranked worklist. Skipped ids stay in the sequence (they can
// still be selected explicitly) but navigation never lands on them.
type View struct {
	columns  map[string]Column
	sortCol  string
	dir      Direction
	skip     func(id clustering.ClusterID) bool
	ids      []clustering.ClusterID
	selected []clustering.ClusterID
}

// New creates a View with the given columns. The first column is the
// initial sort column, descending.
func New(columns ...Column) *View {
	v := &View{columns: make(map[string]Column), dir: Descending}
	for _, c := range columns {
		v.columns[c.Name] = c
		if v.sortCol == "" {
			v.sortCol = c.Name
		}
	}
	return v
}

// SetSort changes the sort column and direction and re-sorts. Unknown
// columns are ignored.
func (v *View) SetSort(column string, dir Direction) {
	if _, ok := v.columns[column]; !ok {
		return
	}
	v.sortCol = column
	v.dir = dir
	v.resort()
}

// SetSkip installs the navigation skip predicate. nil skips nothing.
func (v *View) SetSkip(fn func(id clustering.ClusterID) bool) {
	v.skip = fn
}

// SetIDs replaces the view's id universe and re-sorts. Selected ids no
// longer in the universe are dropped.
func (v *View) SetIDs(ids []clustering.ClusterID) {
	v.ids = make([]clustering.ClusterID, len(ids))
	copy(v.ids, ids)
	v.resort()

	kept := v.selected[:0]
	for _, id := range v.selected {
		if v.contains(id) {
			kept = append(kept, id)
		}
	}
	v.selected = kept
}

func (v *View) resort() {
	col, ok := v.columns[v.sortCol]
	if !ok {
		sort.Slice(v.ids, func(i, j int) bool { return v.ids[i] < v.ids[j] })
		return
	}
	sort.SliceStable(v.ids, func(i, j int) bool {
		a, b := col.Value(v.ids[i]), col.Value(v.ids[j])
		if a == b {
			return v.ids[i] < v.ids[j] // ties break by ascending id
		}
		if v.dir == Descending {
			return a > b
		}
		return a < b
	})
}

func (v *View) contains(id clustering.ClusterID) bool {
	for _, x := range v.ids {
		if x == id {
			return true
		}
	}
	return false
}

func (v *View) isSkipped(id clustering.ClusterID) bool {
	return v.skip != nil && v.skip(id)
}

// IDs returns the current sorted sequence.
func (v *View) IDs() []clustering.ClusterID {
	out := make([]clustering.ClusterID, len(v.ids))
	copy(out, v.ids)
	return out
}

// SortColumn returns the active sort column name.
func (v *View) SortColumn() string { return v.sortCol }

// Select sets the view's selection to exactly the given ids, in order.
// Ids outside the universe are ignored; duplicates collapse to the first
// occurrence.
func (v *View) Select(ids ...clustering.ClusterID) {
	v.selected = v.selected[:0]
	seen := make(map[clustering.ClusterID]bool)
	for _, id := range ids {
		if seen[id] || !v.contains(id) {
			continue
		}
		seen[id] = true
		v.selected = append(v.selected, id)
	}
}

// Selected returns the view's current selection in order.
func (v *View) Selected() []clustering.ClusterID {
	out := make([]clustering.ClusterID, len(v.selected))
	copy(out, v.selected)
	return out
}

// First returns the first non-skipped id in the sorted sequence.
func (v *View) First() (clustering.ClusterID, bool) {
	for _, id := range v.ids {
		if !v.isSkipped(id) {
			return id, true
		}
	}
	return 0, false
}

// NextAfter returns the first id after the given one in the sorted
// sequence that is neither skipped nor excluded. Pure query: the selection
// does not change.
func (v *View) NextAfter(id clustering.ClusterID, exclude map[clustering.ClusterID]bool) (clustering.ClusterID, bool) {
	pos := v.indexOf(id)
	if pos < 0 {
		return 0, false
	}
	for _, cand := range v.ids[pos+1:] {
		if v.isSkipped(cand) || exclude[cand] {
			continue
		}
		return cand, true
	}
	return 0, false
}

func (v *View) indexOf(id clustering.ClusterID) int {
	for i, x := range v.ids {
		if x == id {
			return i
		}
	}
	return -1
}

// Next moves the cursor to the next non-skipped id after the current
// selection (or to the first id with nothing selected) and selects it as a
// singleton. Returns false, leaving the selection alone, when there is no
// candidate.
func (v *View) Next() (clustering.ClusterID, bool) {
	return v.step(1)
}

// Previous is Next in the other direction.
func (v *View) Previous() (clustering.ClusterID, bool) {
	return v.step(-1)
}

func (v *View) step(dir int) (clustering.ClusterID, bool) {
	pos := -1
	if len(v.selected) > 0 {
		pos = v.indexOf(v.selected[len(v.selected)-1])
	}
	if pos < 0 {
		if dir < 0 {
			return 0, false
		}
		id, ok := v.First()
		if ok {
			v.Select(id)
		}
		return id, ok
	}
	for i := pos + dir; i >= 0 && i < len(v.ids); i += dir {
		if v.isSkipped(v.ids[i]) {
			continue
		}
		v.Select(v.ids[i])
		return v.ids[i], true
	}
	return 0, false
}

// Reset clears the selection and selects the first non-skipped id.
func (v *View) Reset() {
	v.selected = v.selected[:0]
	if id, ok := v.First(); ok {
		v.Select(id)
	}
}
