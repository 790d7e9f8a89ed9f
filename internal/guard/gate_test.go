package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	gate := NewGate()

	t.Run("free gate acquires", func(t *testing.T) {
		assert.Empty(t, gate.Holder())
		assert.True(t, gate.TryAcquire("sync"))
		assert.Equal(t, "sync", gate.Holder())
	})

	t.Run("held gate rejects other owners", func(t *testing.T) {
		assert.False(t, gate.TryAcquire("migration"))
		assert.Equal(t, "sync", gate.Holder(), "loser must not steal the gate")
	})

	t.Run("held gate rejects reentry", func(t *testing.T) {
		assert.False(t, gate.TryAcquire("sync"))
	})

	t.Run("release frees the gate", func(t *testing.T) {
		gate.Release()
		assert.Empty(t, gate.Holder())
		assert.True(t, gate.TryAcquire("migration"))
		gate.Release()
	})

	t.Run("releasing an unheld gate is a no-op", func(t *testing.T) {
		gate.Release()
		gate.Release()
		assert.True(t, gate.TryAcquire("sync"))
		gate.Release()
	})
}

func TestGate_ConcurrentAcquire(t *testing.T) {
	gate := NewGate()

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryAcquire("worker") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one goroutine should win the gate")
	assert.Equal(t, "worker", gate.Holder())
}
