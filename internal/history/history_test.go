package history

import "testing"

// counter is a Command that tracks a running value for testing.
type counter struct {
	name  string
	value *int
	delta int
}

func (c *counter) Name() string { return c.name }
func (c *counter) Apply()       { *c.value += c.delta }
func (c *counter) Revert()      { *c.value -= c.delta }

func push(h *History, value *int, name string, delta int) {
	cmd := &counter{name: name, value: value, delta: delta}
	cmd.Apply()
	h.Push(cmd)
}

func TestUndoRedo(t *testing.T) {
	h := New(0)
	value := 0

	push(h, &value, "a", 1)
	push(h, &value, "b", 10)
	if value != 11 {
		t.Fatalf("expected 11, got %d", value)
	}

	if cmd, ok := h.Undo(); !ok || cmd.Name() != "b" {
		t.Fatalf("expected to undo b, got %v %v", cmd, ok)
	}
	if value != 1 {
		t.Errorf("expected 1 after undo, got %d", value)
	}

	if _, ok := h.Redo(); !ok {
		t.Fatal("expected redo to act")
	}
	if value != 11 {
		t.Errorf("expected 11 after redo, got %d", value)
	}
}

func TestEmptyNoOps(t *testing.T) {
	h := New(0)

	if _, ok := h.Undo(); ok {
		t.Error("undo on empty history should be a no-op")
	}
	if _, ok := h.Redo(); ok {
		t.Error("redo on empty history should be a no-op")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history should report nothing to undo/redo")
	}
}

func TestPushTruncatesRedoTail(t *testing.T) {
	h := New(0)
	value := 0

	push(h, &value, "a", 1)
	push(h, &value, "b", 10)
	h.Undo()

	push(h, &value, "c", 100)
	if value != 101 {
		t.Fatalf("expected 101, got %d", value)
	}
	if h.CanRedo() {
		t.Error("push should discard the redo tail")
	}
	if h.Len() != 2 {
		t.Errorf("expected 2 commands, got %d", h.Len())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	h := New(2)
	value := 0

	push(h, &value, "a", 1)
	push(h, &value, "b", 10)
	push(h, &value, "c", 100)

	if h.Len() != 2 {
		t.Fatalf("expected capacity 2, got %d", h.Len())
	}

	// Only c and b can be undone; a is permanent.
	h.Undo()
	h.Undo()
	if _, ok := h.Undo(); ok {
		t.Error("oldest command should have been evicted")
	}
	if value != 1 {
		t.Errorf("expected 1 (a is permanent), got %d", value)
	}
}
