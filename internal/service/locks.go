package service

import (
	"sync"

	"github.com/google/uuid"
)

// orderLocks serializes mutations per order id: at most one in-flight
// transition per order, full parallelism across orders. Entries are
// refcounted so the map does not grow with order churn.
type orderLocks struct {
	mu   sync.Mutex
	held map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{held: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the per-order lock and returns its release func.
func (l *orderLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.held[id]
	if !ok {
		entry = &lockEntry{}
		l.held[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
