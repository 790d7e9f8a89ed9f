// Package guard provides a named try-lock shared by the sync and
// migration engines so the two can never touch the store concurrently.
package guard

import "sync"

// Gate is a non-blocking mutual exclusion primitive. TryAcquire either
// takes the gate immediately or reports who holds it.
type Gate struct {
	mu     sync.Mutex
	holder string
}

func NewGate() *Gate {
	return &Gate{}
}

// TryAcquire takes the gate for the named owner. It never blocks;
// callers that lose the race fail fast.
func (g *Gate) TryAcquire(owner string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder != "" {
		return false
	}
	g.holder = owner
	return true
}

// Release frees the gate. Releasing an unheld gate is a no-op.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.holder = ""
}

// Holder returns the current owner name, or empty when free.
func (g *Gate) Holder() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder
}
