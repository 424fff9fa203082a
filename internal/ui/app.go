// Package ui is the terminal shell around a curation session: two ranked
// worklists, a status line, and keybindings that dispatch the session's
// actions. The shell never mutates state itself; every change goes through
// the session.
package ui

import (
	"fmt"
	"strconv"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/spikeforge/curator/internal/clustering"
	"github.com/spikeforge/curator/internal/curation"
	"github.com/spikeforge/curator/internal/meta"
)

// Stats is the slice of the stats provider the shell needs for rendering
// rows. *stats.Provider satisfies it.
type Stats interface {
	Count(id clustering.ClusterID) float64
	MaxAmplitude(id clustering.ClusterID) float64
	BestChannels(id clustering.ClusterID) []int
	Similarity(a, b clustering.ClusterID) float64
}

const (
	focusPrimary = iota
	focusSimilar
)

// App is the root Bubble Tea model. It holds the session directly: all
// actions are synchronous, so a key press runs the action to completion
// before the next message is handled.
type App struct {
	session *curation.Session
	stats   Stats
	keys    keyMap

	// autosave throttles snapshot writes after mutating actions.
	autosave *rate.Limiter

	primary btable.Model
	similar btable.Model
	focus   int

	width  int
	height int
	status string
	err    error
}

// NewApp builds the shell. autosave may be nil to disable it.
func NewApp(session *curation.Session, st Stats, autosave *rate.Limiter) App {
	primary := btable.New(
		btable.WithColumns([]btable.Column{
			{Title: "id", Width: 6},
			{Title: "group", Width: 9},
			{Title: "spikes", Width: 7},
			{Title: "quality", Width: 8},
			{Title: "ch", Width: 4},
		}),
		btable.WithFocused(true),
	)
	similar := btable.New(
		btable.WithColumns([]btable.Column{
			{Title: "id", Width: 6},
			{Title: "group", Width: 9},
			{Title: "similarity", Width: 11},
		}),
	)

	a := App{
		session:  session,
		stats:    st,
		keys:     defaultKeyMap(),
		autosave: autosave,
		primary:  primary,
		similar:  similar,
	}
	a.refresh()
	return a
}

// Init is part of tea.Model.
func (a App) Init() tea.Cmd { return nil }

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		h := msg.Height - 6
		if h < 3 {
			h = 3
		}
		a.primary.SetHeight(h)
		a.similar.SetHeight(h)
		return a, nil

	case SelectionChanged:
		a.refresh()
		return a, nil

	case SaveDone:
		if msg.Err != nil {
			a.err = msg.Err
		} else {
			a.err = nil
			a.status = "snapshot saved"
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Next):
		a.session.Next()
	case key.Matches(msg, a.keys.Previous):
		a.session.Previous()
	case key.Matches(msg, a.keys.NextBest):
		a.session.NextBest()
	case key.Matches(msg, a.keys.PreviousBest):
		a.session.PreviousBest()
	case key.Matches(msg, a.keys.Reset):
		a.session.Reset()

	case key.Matches(msg, a.keys.Merge):
		a.session.Merge()
		return a.afterMutation("merged")
	case key.Matches(msg, a.keys.Undo):
		a.session.Undo()
		return a.afterMutation("undid")
	case key.Matches(msg, a.keys.Redo):
		a.session.Redo()
		return a.afterMutation("redid")

	case key.Matches(msg, a.keys.BestGood):
		a.session.MoveBest(meta.GroupGood)
		return a.afterMutation("best → good")
	case key.Matches(msg, a.keys.BestMUA):
		a.session.MoveBest(meta.GroupMUA)
		return a.afterMutation("best → mua")
	case key.Matches(msg, a.keys.BestNoise):
		a.session.MoveBest(meta.GroupNoise)
		return a.afterMutation("best → noise")

	case key.Matches(msg, a.keys.SimGood):
		a.session.MoveSimilar(meta.GroupGood)
		return a.afterMutation("similar → good")
	case key.Matches(msg, a.keys.SimMUA):
		a.session.MoveSimilar(meta.GroupMUA)
		return a.afterMutation("similar → mua")
	case key.Matches(msg, a.keys.SimNoise):
		a.session.MoveSimilar(meta.GroupNoise)
		return a.afterMutation("similar → noise")

	case key.Matches(msg, a.keys.AllGood):
		a.session.MoveAll(meta.GroupGood)
		return a.afterMutation("all → good")
	case key.Matches(msg, a.keys.AllMUA):
		a.session.MoveAll(meta.GroupMUA)
		return a.afterMutation("all → mua")
	case key.Matches(msg, a.keys.AllNoise):
		a.session.MoveAll(meta.GroupNoise)
		return a.afterMutation("all → noise")

	case key.Matches(msg, a.keys.Save):
		err := a.session.Save()
		return a, func() tea.Msg { return SaveDone{Err: err} }

	case msg.String() == "tab":
		a.toggleFocus()
		return a, nil

	case msg.String() == "enter":
		a.selectCursorRow()
		a.refresh()
		return a, nil
	}

	// Remaining keys (cursor movement) go to the focused table.
	var cmd tea.Cmd
	if a.focus == focusPrimary {
		a.primary, cmd = a.primary.Update(msg)
	} else {
		a.similar, cmd = a.similar.Update(msg)
	}
	a.refresh()
	return a, cmd
}

// afterMutation refreshes the tables and, when the autosave limiter
// allows, writes a snapshot.
func (a App) afterMutation(status string) (tea.Model, tea.Cmd) {
	a.status = status
	a.refresh()
	if a.autosave != nil && a.autosave.Allow() {
		err := a.session.Save()
		return a, func() tea.Msg { return SaveDone{Err: err} }
	}
	return a, nil
}

func (a *App) toggleFocus() {
	if a.focus == focusPrimary {
		a.focus = focusSimilar
		a.primary.Blur()
		a.similar.Focus()
	} else {
		a.focus = focusPrimary
		a.similar.Blur()
		a.primary.Focus()
	}
}

// selectCursorRow turns the focused table's cursor row into a session
// selection.
func (a *App) selectCursorRow() {
	if a.focus == focusPrimary {
		ids := a.session.PrimaryView().IDs()
		if c := a.primary.Cursor(); c >= 0 && c < len(ids) {
			a.session.Select(ids[c])
		}
		return
	}
	ids := a.session.SimilarView().IDs()
	if c := a.similar.Cursor(); c >= 0 && c < len(ids) {
		a.session.SelectSimilar(ids[c])
	}
}

// refresh rebuilds both tables from the session's current state.
func (a *App) refresh() {
	m := a.session.Meta()

	primIDs := a.session.PrimaryView().IDs()
	rows := make([]btable.Row, len(primIDs))
	for i, id := range primIDs {
		ch := "-"
		if best := a.stats.BestChannels(id); len(best) > 0 {
			ch = strconv.Itoa(best[0])
		}
		rows[i] = btable.Row{
			strconv.FormatInt(int64(id), 10),
			renderGroup(m.Get(meta.GroupField, id)),
			strconv.Itoa(int(a.stats.Count(id))),
			fmt.Sprintf("%.3f", a.stats.MaxAmplitude(id)),
			ch,
		}
	}
	a.primary.SetRows(rows)
	a.moveCursor(&a.primary, primIDs, a.session.PrimaryView().Selected())

	simIDs := a.session.SimilarView().IDs()
	simRows := make([]btable.Row, len(simIDs))
	prim := a.session.PrimaryView().Selected()
	for i, id := range simIDs {
		sim := "-"
		if len(prim) > 0 {
			sim = fmt.Sprintf("%.4f", a.stats.Similarity(prim[0], id))
		}
		simRows[i] = btable.Row{
			strconv.FormatInt(int64(id), 10),
			renderGroup(m.Get(meta.GroupField, id)),
			sim,
		}
	}
	a.similar.SetRows(simRows)
	a.moveCursor(&a.similar, simIDs, a.session.SimilarView().Selected())
}

func (a *App) moveCursor(t *btable.Model, ids, selected []clustering.ClusterID) {
	if len(selected) == 0 {
		return
	}
	for i, id := range ids {
		if id == selected[0] {
			t.SetCursor(i)
			return
		}
	}
}

// View renders the two worklists side by side with a status line.
func (a App) View() string {
	left := paneStyle
	right := paneStyle
	if a.focus == focusPrimary {
		left = focusedPaneStyle
	} else {
		right = focusedPaneStyle
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		left.Render(titleStyle.Render("clusters")+"\n"+a.primary.View()),
		right.Render(titleStyle.Render("similar")+"\n"+a.similar.View()),
	)

	status := fmt.Sprintf("selected %v · history %d", a.session.Selected(), a.session.HistoryLen())
	if a.session.CanUndo() {
		status += " · undo:u"
	}
	if a.session.CanRedo() {
		status += " · redo:r"
	}
	if a.status != "" {
		status += " · " + a.status
	}
	line := statusStyle.Render(status)
	if a.err != nil {
		line = errorStyle.Render("error: " + a.err.Error())
	}

	return panes + "\n" + line
}
