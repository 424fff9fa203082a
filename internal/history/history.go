// Package history provides the linear undo/redo stack of reversible
// commands over the partition, metadata and selection.
package history

// Command is one executed, reversible action. Apply re-executes it exactly
// as recorded (same allocated ids, same resulting selection); Revert
// restores the state from immediately before it ran.
type Command interface {
	Name() string
	Apply()
	Revert()
}

// History is the command stack with a cursor. Commands past the cursor are
// redoable; pushing a new command truncates them (no branching).
//
// A positive capacity bounds the stack: pushing past it evicts the oldest
// undoable command. This is a deliberate deviation from an unbounded
// history and means very old actions become permanent.
type History struct {
	commands []Command
	cursor   int
	capacity int
}

// New creates a History. capacity <= 0 means unbounded.
func New(capacity int) *History {
	return &History{capacity: capacity}
}

// Push records an already-executed command, discarding any redo tail.
func (h *History) Push(cmd Command) {
	h.commands = append(h.commands[:h.cursor], cmd)
	h.cursor++
	if h.capacity > 0 && len(h.commands) > h.capacity {
		n := len(h.commands) - h.capacity
		h.commands = append([]Command(nil), h.commands[n:]...)
		h.cursor -= n
	}
}

// Undo reverts the command before the cursor. Returns false with nothing
// to undo.
func (h *History) Undo() (Command, bool) {
	if h.cursor == 0 {
		return nil, false
	}
	h.cursor--
	cmd := h.commands[h.cursor]
	cmd.Revert()
	return cmd, true
}

// Redo re-applies the command at the cursor. Returns false with nothing
// to redo.
func (h *History) Redo() (Command, bool) {
	if h.cursor >= len(h.commands) {
		return nil, false
	}
	cmd := h.commands[h.cursor]
	h.cursor++
	cmd.Apply()
	return cmd, true
}

// CanUndo reports whether Undo would act.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would act.
func (h *History) CanRedo() bool { return h.cursor < len(h.commands) }

// Len returns the number of recorded commands.
func (h *History) Len() int { return len(h.commands) }

// Position returns the cursor: how many commands are currently applied.
func (h *History) Position() int { return h.cursor }
