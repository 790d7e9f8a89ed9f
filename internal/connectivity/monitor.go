// Package connectivity tracks the online/offline state of the device
// and fans transitions out to subscribers (the sync scheduler).
package connectivity

import (
	"context"
	"log"
	"sync"
	"time"
)

// Monitor exposes the current connectivity state with
// subscribe/unsubscribe semantics. Callbacks fire on transitions only.
type Monitor interface {
	Online() bool
	Subscribe(fn func(online bool)) int
	Unsubscribe(id int)
}

// Signal is a manually driven Monitor. The host environment (or a
// prober) pushes transitions into it.
type Signal struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(online bool)
}

// NewSignal creates a Signal with the given initial state.
func NewSignal(online bool) *Signal {
	return &Signal{
		online: online,
		subs:   make(map[int]func(online bool)),
	}
}

func (s *Signal) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Set records a new state and notifies subscribers when it changed.
func (s *Signal) Set(online bool) {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers a transition callback and returns its id.
func (s *Signal) Subscribe(fn func(online bool)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.subs[s.nextID] = fn
	return s.nextID
}

// Unsubscribe removes a previously registered callback.
func (s *Signal) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Pinger is anything that can cheaply confirm the remote end is
// reachable. The remote API client implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober drives a Signal by periodically pinging the remote API.
type Prober struct {
	signal   *Signal
	pinger   Pinger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewProber creates a prober feeding the given signal.
func NewProber(signal *Signal, pinger Pinger, interval time.Duration) *Prober {
	return &Prober{
		signal:   signal,
		pinger:   pinger,
		interval: interval,
	}
}

// Start begins probing in the background. Starting an already running
// prober is a no-op.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	probeCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go p.loop(probeCtx)
}

// Stop halts probing. The signal keeps its last observed state.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
}

func (p *Prober) loop(ctx context.Context) {
	p.probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Prober) probe(ctx context.Context) {
	err := p.pinger.Ping(ctx)
	online := err == nil
	if online != p.signal.Online() {
		if online {
			log.Printf("Connectivity: remote reachable, going online")
		} else {
			log.Printf("Connectivity: remote unreachable, going offline: %v", err)
		}
	}
	p.signal.Set(online)
}
