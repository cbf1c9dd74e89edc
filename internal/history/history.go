package history

import "sync"

// DefaultLimit is the number of snapshots kept before the oldest are pruned.
const DefaultLimit = 50

// Entry is one full-canvas snapshot.
type Entry struct {
	Label    string
	Snapshot []byte
}

// Stack is a linear undo history. Pushing after an undo discards the redo branch.
type Stack struct {
	mu      sync.Mutex
	entries []Entry
	index   int
	limit   int
}

// New returns an empty stack keeping at most limit entries (DefaultLimit if <= 1).
func New(limit int) *Stack {
	if limit <= 1 {
		limit = DefaultLimit
	}
	return &Stack{index: -1, limit: limit}
}

// Push appends a snapshot after the current position.
func (s *Stack) Push(label string, snapshot []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries[:s.index+1], Entry{Label: label, Snapshot: snapshot})
	s.index = len(s.entries) - 1
	s.pruneIfNeeded()
}

func (s *Stack) pruneIfNeeded() {
	over := len(s.entries) - s.limit
	if over <= 0 {
		return
	}
	s.entries = append([]Entry(nil), s.entries[over:]...)
	s.index -= over
}

// Reset drops all entries and starts over from snapshot.
func (s *Stack) Reset(snapshot []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []Entry{{Label: "initial", Snapshot: snapshot}}
	s.index = 0
}

// Undo moves back one entry and returns its snapshot.
func (s *Stack) Undo() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index <= 0 {
		return nil, false
	}
	s.index--
	return s.entries[s.index].Snapshot, true
}

// Redo moves forward one entry and returns its snapshot.
func (s *Stack) Redo() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.entries)-1 {
		return nil, false
	}
	s.index++
	return s.entries[s.index].Snapshot, true
}

func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index < len(s.entries)-1
}

// Len returns the number of stored entries, including any redo branch.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Index returns the current position.
func (s *Stack) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the snapshot at the current position.
func (s *Stack) Current() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 {
		return Entry{}, false
	}
	return s.entries[s.index], true
}
