package mqtt

import "sync"

// mailbox holds the most recent value for one topic. A newer value simply
// overwrites an unread one; the loop only ever wants the latest sample.
// The paho client delivers on its own goroutines while the loop reads, so
// access is locked.
type mailbox[T any] struct {
	mu    sync.Mutex
	val   T
	fresh bool
}

// put stores a value, replacing any unread one.
func (m *mailbox[T]) put(v T) {
	m.mu.Lock()
	m.val = v
	m.fresh = true
	m.mu.Unlock()
}

// take returns the stored value if one arrived since the last take.
func (m *mailbox[T]) take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.fresh {
		var zero T
		return zero, false
	}
	m.fresh = false
	return m.val, true
}
