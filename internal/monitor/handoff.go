package monitor

import "sync"

// Mailbox is a single-slot handoff from the monitoring loop to a reader.
// Put never blocks and overwrites any value the reader has not taken yet.
type Mailbox[T any] struct {
	mu    sync.Mutex
	v     T
	ok    bool
	ready chan struct{}
}

// NewMailbox returns an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put replaces the stored value and wakes a waiting reader.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.v, m.ok = v, true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Latest returns the most recent value, if any.
func (m *Mailbox[T]) Latest() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v, m.ok
}

// Ready receives after every Put that the reader has not yet observed.
// Several Puts between reads collapse into one signal.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}
