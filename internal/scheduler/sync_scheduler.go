// Package scheduler drives periodic background sync. The timer runs
// only while the device is online; connectivity transitions start and
// stop it.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldkit/curator/internal/connectivity"
	"github.com/fieldkit/curator/internal/syncengine"
)

// SyncScheduler manages the periodic queue drain.
type SyncScheduler struct {
	engine   *syncengine.Engine
	monitor  connectivity.Monitor
	interval time.Duration
	enabled  func() bool

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	subID      int
	cancelFunc context.CancelFunc
}

// NewSyncScheduler creates a scheduler draining every interval. The
// enabled func is consulted on every tick, so a durable override can
// pause and resume draining without a restart; nil means always on.
func NewSyncScheduler(engine *syncengine.Engine, monitor connectivity.Monitor, interval time.Duration, enabled func() bool) *SyncScheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SyncScheduler{
		engine:   engine,
		monitor:  monitor,
		interval: interval,
		enabled:  enabled,
	}
}

// Start subscribes to connectivity transitions and begins the timer if
// currently online. Starting an already started scheduler is a no-op.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.subID = s.monitor.Subscribe(func(online bool) {
		if online {
			s.startTimer()
		} else {
			s.stopTimer()
		}
	})

	s.isRunning = true
	if s.monitor.Online() {
		if err := s.startTimerLocked(); err != nil {
			s.monitor.Unsubscribe(s.subID)
			s.isRunning = false
			s.cancelFunc()
			s.cancelFunc = nil
			return err
		}
	} else {
		log.Printf("Sync scheduler: started while offline, timer paused")
	}

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop unsubscribes from connectivity and halts the timer, waiting for
// a running drain to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.monitor.Unsubscribe(s.subID)
	s.stopTimerLocked()
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	log.Printf("Sync scheduler: stopped")
}

// IsRunning returns whether the scheduler is active (timer may still
// be paused by connectivity).
func (s *SyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// TimerActive returns whether the periodic timer is currently ticking.
func (s *SyncScheduler) TimerActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cron != nil
}

// RunNow triggers an immediate drain in the background.
func (s *SyncScheduler) RunNow() {
	go s.runSync()
}

func (s *SyncScheduler) startTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	if err := s.startTimerLocked(); err != nil {
		log.Printf("Sync scheduler: failed to start timer: %v", err)
	}
}

// startTimerLocked starts a fresh cron instance, cancelling any prior
// one so a single timer exists at a time.
func (s *SyncScheduler) startTimerLocked() error {
	s.stopTimerLocked()

	c := cron.New()
	entryID, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}

	s.cron = c
	s.entryID = entryID
	c.Start()
	log.Printf("Sync scheduler: online, draining every %s", s.interval)
	return nil
}

func (s *SyncScheduler) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		log.Printf("Sync scheduler: offline, timer paused")
	}
	s.stopTimerLocked()
}

func (s *SyncScheduler) stopTimerLocked() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
}

// runSync performs one background drain. Losing the gate to another
// sync or to migration is normal and only logged.
func (s *SyncScheduler) runSync() {
	if s.enabled != nil && !s.enabled() {
		log.Printf("Background sync: skipped (disabled)")
		return
	}

	result, err := s.engine.SyncPendingItems(context.Background())
	switch {
	case err == syncengine.ErrAlreadySyncing:
		log.Printf("Background sync: skipped (already syncing)")
	case err == syncengine.ErrOffline:
		log.Printf("Background sync: skipped (offline)")
	case err != nil:
		log.Printf("Background sync: failed: %v", err)
	case result.Total() > 0 || result.Dropped > 0:
		log.Printf("Background sync: pushed %d entities, %d curations (%d dropped, %d errors)",
			result.Entities, result.Curations, result.Dropped, len(result.Errors))
	}
}
