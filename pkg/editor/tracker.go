package editor

import "sync"

// Observation is what a host reports after every editor update: the full text,
// the cursor as a rune offset, and the input kinds behind the update.
type Observation struct {
	Text           string
	Cursor         int
	Inputs         []InputKind
	Focused        bool
	Selection      bool
	MultipleCursor bool
}

// Tracker turns successive observations into DocumentChange values by remembering
// the previous snapshot. The first observation after New or Reset is reported as
// unchanged.
type Tracker struct {
	mu      sync.Mutex
	last    Snapshot
	started bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SnapshotAt splits text at a rune offset, clamping out-of-range cursors.
func SnapshotAt(text string, cursor int) Snapshot {
	runes := []rune(text)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}
	return Snapshot{Prefix: string(runes[:cursor]), Suffix: string(runes[cursor:])}
}

// Observe records obs and returns the change relative to the previous observation.
func (t *Tracker) Observe(obs Observation) DocumentChange {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := SnapshotAt(obs.Text, obs.Cursor)
	previous := t.last
	if !t.started {
		previous = current
		t.started = true
	}
	t.last = current

	return DocumentChange{
		Current:        current,
		Previous:       previous,
		Inputs:         obs.Inputs,
		Focused:        obs.Focused,
		DocChanged:     previous.Text() != current.Text(),
		Selection:      obs.Selection,
		MultipleCursor: obs.MultipleCursor,
	}
}

// Last returns the most recent snapshot.
func (t *Tracker) Last() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Reset forgets the previous snapshot, e.g. when the active file changes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = Snapshot{}
	t.started = false
}
