package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/connectivity"
	"github.com/fieldkit/curator/internal/entities"
	"github.com/fieldkit/curator/internal/guard"
	"github.com/fieldkit/curator/internal/remote"
	"github.com/fieldkit/curator/internal/syncengine"
)

// emptyQueue always reports nothing pending, so scheduled drains are
// cheap no-ops and tests can focus on timer lifecycle.
type emptyQueue struct {
	mu    sync.Mutex
	lists int
}

func (q *emptyQueue) ListPending() ([]entities.SyncQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists++
	return nil, nil
}

func (q *emptyQueue) Remove(id uint) error { return nil }

func (q *emptyQueue) RecordFailure(id uint, syncErr error) (int, error) { return 0, nil }

func (q *emptyQueue) listCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lists
}

type nopEntityRepo struct{}

func (nopEntityRepo) GetByEntityID(string) (*entities.Entity, error) { return nil, gorm.ErrRecordNotFound }

func (nopEntityRepo) Create(*gorm.DB, *entities.Entity) error { return nil }

func (nopEntityRepo) UpdateFields(*gorm.DB, string, map[string]any) error { return nil }

func (nopEntityRepo) Delete(*gorm.DB, string) error { return nil }

type nopCurationRepo struct{}

func (nopCurationRepo) GetByCurationID(string) (*entities.Curation, error) {
	return nil, gorm.ErrRecordNotFound
}

func (nopCurationRepo) Create(*gorm.DB, *entities.Curation) error { return nil }

func (nopCurationRepo) UpdateFields(*gorm.DB, string, map[string]any) error { return nil }

func (nopCurationRepo) Delete(*gorm.DB, string) error { return nil }

type nopRemote struct{}

func (nopRemote) ListEntities(context.Context, remote.ListOptions) (*remote.EntityPage, error) {
	return &remote.EntityPage{}, nil
}

func (nopRemote) CreateEntity(ctx context.Context, e remote.Entity) (*remote.Entity, error) {
	return &e, nil
}

func (nopRemote) UpdateEntity(ctx context.Context, id string, e remote.Entity) (*remote.Entity, error) {
	return &e, nil
}

func (nopRemote) DeleteEntity(context.Context, string) error { return nil }

func (nopRemote) ListCurations(context.Context, remote.ListOptions) (*remote.CurationPage, error) {
	return &remote.CurationPage{}, nil
}

func (nopRemote) CreateCuration(ctx context.Context, c remote.Curation) (*remote.Curation, error) {
	return &c, nil
}

func (nopRemote) UpdateCuration(ctx context.Context, id string, c remote.Curation) (*remote.Curation, error) {
	return &c, nil
}

func (nopRemote) DeleteCuration(context.Context, string) error { return nil }

func setupScheduler(t *testing.T, signal *connectivity.Signal, interval time.Duration) (*SyncScheduler, *emptyQueue) {
	queue := &emptyQueue{}
	engine := syncengine.NewEngine(syncengine.Config{}, queue, nopEntityRepo{}, nopCurationRepo{}, nopRemote{}, signal, guard.NewGate(), nil, nil)
	return NewSyncScheduler(engine, signal, interval, nil), queue
}

func TestSchedulerLifecycle(t *testing.T) {
	signal := connectivity.NewSignal(true)
	scheduler, _ := setupScheduler(t, signal, time.Hour)

	assert.False(t, scheduler.IsRunning())

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())
	assert.True(t, scheduler.TimerActive())

	// Second start is a no-op.
	require.NoError(t, scheduler.Start(context.Background()))

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())
	assert.False(t, scheduler.TimerActive())

	// Second stop is a no-op.
	scheduler.Stop()
}

func TestScheduler_StartsOfflineWithPausedTimer(t *testing.T) {
	signal := connectivity.NewSignal(false)
	scheduler, _ := setupScheduler(t, signal, time.Hour)

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.True(t, scheduler.IsRunning())
	assert.False(t, scheduler.TimerActive(), "no timer while offline")
}

func TestScheduler_FollowsConnectivity(t *testing.T) {
	signal := connectivity.NewSignal(false)
	scheduler, _ := setupScheduler(t, signal, time.Hour)

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	signal.Set(true)
	assert.True(t, scheduler.TimerActive(), "going online starts the timer")

	signal.Set(false)
	assert.False(t, scheduler.TimerActive(), "going offline pauses the timer")

	signal.Set(true)
	assert.True(t, scheduler.TimerActive())
}

func TestScheduler_StoppedIgnoresConnectivity(t *testing.T) {
	signal := connectivity.NewSignal(false)
	scheduler, _ := setupScheduler(t, signal, time.Hour)

	require.NoError(t, scheduler.Start(context.Background()))
	scheduler.Stop()

	signal.Set(true)
	assert.False(t, scheduler.TimerActive())
}

func TestScheduler_ContextCancelStops(t *testing.T) {
	signal := connectivity.NewSignal(true)
	scheduler, _ := setupScheduler(t, signal, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && scheduler.IsRunning() {
		time.Sleep(5 * time.Millisecond)
	}
	assert.False(t, scheduler.IsRunning())
}

func TestScheduler_RunNowDrains(t *testing.T) {
	signal := connectivity.NewSignal(true)
	scheduler, queue := setupScheduler(t, signal, time.Hour)

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	scheduler.RunNow()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && queue.listCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, queue.listCount(), 1)
}

func TestScheduler_DisabledSkipsDrain(t *testing.T) {
	signal := connectivity.NewSignal(true)
	queue := &emptyQueue{}
	engine := syncengine.NewEngine(syncengine.Config{}, queue, nopEntityRepo{}, nopCurationRepo{}, nopRemote{}, signal, guard.NewGate(), nil, nil)
	scheduler := NewSyncScheduler(engine, signal, time.Hour, func() bool { return false })

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	scheduler.RunNow()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, queue.listCount(), "a disabled override skips the drain")
}
