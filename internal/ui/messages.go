package ui

// SelectionChanged is emitted by the session listener so the app refreshes
// its tables outside the key-handling path.
type SelectionChanged struct{}

// SaveDone reports the outcome of a snapshot save.
type SaveDone struct {
	Err error
}
