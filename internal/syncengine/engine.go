// Package syncengine reconciles the local store with the remote
// authoritative API: it drains the outbound sync queue, then pulls
// remote changes and merges them in with a last-writer-wins rule.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fieldkit/curator/internal/connectivity"
	"github.com/fieldkit/curator/internal/entities"
	"github.com/fieldkit/curator/internal/guard"
	"github.com/fieldkit/curator/internal/remote"
)

// ErrAlreadySyncing is returned when a sync is requested while another
// sync (or the migration engine) holds the store.
var ErrAlreadySyncing = errors.New("sync already in progress")

// ErrOffline is returned when a sync is requested without connectivity.
var ErrOffline = errors.New("device is offline")

// RemoteAPI is the remote client surface the engine consumes.
type RemoteAPI interface {
	ListEntities(ctx context.Context, opts remote.ListOptions) (*remote.EntityPage, error)
	CreateEntity(ctx context.Context, entity remote.Entity) (*remote.Entity, error)
	UpdateEntity(ctx context.Context, entityID string, entity remote.Entity) (*remote.Entity, error)
	DeleteEntity(ctx context.Context, entityID string) error
	ListCurations(ctx context.Context, opts remote.ListOptions) (*remote.CurationPage, error)
	CreateCuration(ctx context.Context, curation remote.Curation) (*remote.Curation, error)
	UpdateCuration(ctx context.Context, curationID string, curation remote.Curation) (*remote.Curation, error)
	DeleteCuration(ctx context.Context, curationID string) error
}

// Auditor records user-surfaced sync outcomes. Implementations must
// not block.
type Auditor interface {
	LogSync(action, description string, pushed, pulled int, err error)
	LogQueueDrop(kind entities.ResourceKind, targetID, reason string)
}

// StatusRecorder persists the outcome of the last sync and remembers
// when the previous one finished.
type StatusRecorder interface {
	SetSyncStatus(status, message string, pushed, pulled int) error
	GetLastSyncAt() *time.Time
}

// Config tunes the engine. Zero values fall back to the defaults.
type Config struct {
	BatchSize  int           // queue items per upload batch
	BatchPause time.Duration // pause between upload batches
	MaxRetries int           // failures before an item is dropped
	PageSize   int           // download page size
	QuickLimit int           // items attempted by QuickSync
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:  10,
		BatchPause: 200 * time.Millisecond,
		MaxRetries: 3,
		PageSize:   100,
		QuickLimit: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.BatchPause <= 0 {
		c.BatchPause = d.BatchPause
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.QuickLimit <= 0 {
		c.QuickLimit = d.QuickLimit
	}
	return c
}

// Engine coordinates uploads and downloads. All public operations are
// mutually exclusive through the shared gate, which the migration
// engine holds while it runs.
type Engine struct {
	cfg       Config
	queue     QueueStore
	entities  EntityRepository
	curations CurationRepository
	remote    RemoteAPI
	monitor   connectivity.Monitor
	gate      *guard.Gate
	status    StatusRecorder
	audit     Auditor
}

// NewEngine creates a sync engine. status and audit may be nil.
func NewEngine(cfg Config, queue QueueStore, entityRepo EntityRepository, curationRepo CurationRepository, remoteAPI RemoteAPI, monitor connectivity.Monitor, gate *guard.Gate, status StatusRecorder, auditor Auditor) *Engine {
	return &Engine{
		cfg:       cfg.withDefaults(),
		queue:     queue,
		entities:  entityRepo,
		curations: curationRepo,
		remote:    remoteAPI,
		monitor:   monitor,
		gate:      gate,
		status:    status,
		audit:     auditor,
	}
}

// FullSyncResult aggregates both halves of a full sync.
type FullSyncResult struct {
	Upload   UploadResult   `json:"upload"`
	Download DownloadResult `json:"download"`
}

// IsSyncing reports whether a sync or migration currently holds the store.
func (e *Engine) IsSyncing() bool {
	return e.gate.Holder() != ""
}

// FullSync uploads all pending mutations, then downloads and merges
// remote changes. The download is incremental: it narrows to records
// changed since the last recorded sync, or everything when none is
// recorded. FullSync fails fast when offline or when another sync is
// in flight.
func (e *Engine) FullSync(ctx context.Context) (*FullSyncResult, error) {
	if !e.monitor.Online() {
		return nil, ErrOffline
	}
	if !e.gate.TryAcquire("full_sync") {
		return nil, ErrAlreadySyncing
	}
	defer e.gate.Release()

	started := time.Now()
	result := &FullSyncResult{}

	// Read the previous sync time before recording a new outcome, so
	// the download only pulls records changed since then.
	since := e.lastSyncAt()

	upload, err := e.syncPendingItems(ctx)
	if err != nil {
		e.recordOutcome("failed", fmt.Sprintf("upload failed: %v", err), 0, 0)
		e.logSync("full_sync", "upload failed", 0, 0, err)
		return nil, err
	}
	result.Upload = upload

	download, err := e.downloadServerChanges(ctx, DownloadOptions{UpdatedAfter: since})
	if err != nil {
		e.recordOutcome("failed", fmt.Sprintf("download failed: %v", err), upload.Total(), 0)
		e.logSync("full_sync", "download failed", upload.Total(), 0, err)
		return nil, err
	}
	result.Download = download

	msg := fmt.Sprintf("pushed %d, pulled %d in %v",
		upload.Total(), download.Total(), time.Since(started).Round(time.Millisecond))
	e.recordOutcome("success", msg, upload.Total(), download.Total())
	e.logSync("full_sync", msg, upload.Total(), download.Total(), nil)

	return result, nil
}

// SyncPendingItems drains the outbound queue. Unlike FullSync it does
// not download; the background scheduler calls it on every tick.
func (e *Engine) SyncPendingItems(ctx context.Context) (UploadResult, error) {
	if !e.monitor.Online() {
		return UploadResult{}, ErrOffline
	}
	if !e.gate.TryAcquire("background_sync") {
		return UploadResult{}, ErrAlreadySyncing
	}
	defer e.gate.Release()

	return e.syncPendingItems(ctx)
}

// DownloadServerChanges pulls remote listings and merges them into the
// local store, entities before curations.
func (e *Engine) DownloadServerChanges(ctx context.Context, opts DownloadOptions) (DownloadResult, error) {
	if !e.monitor.Online() {
		return DownloadResult{}, ErrOffline
	}
	if !e.gate.TryAcquire("download") {
		return DownloadResult{}, ErrAlreadySyncing
	}
	defer e.gate.Release()

	return e.downloadServerChanges(ctx, opts)
}

// QuickSync opportunistically uploads at most the first few pending
// items after a user action. It swallows every error: a quick sync that
// loses the gate, is offline, or fails mid-item simply gives up and
// leaves the queue for the next full drain.
func (e *Engine) QuickSync(ctx context.Context) {
	if !e.monitor.Online() {
		return
	}
	if !e.gate.TryAcquire("quick_sync") {
		return
	}
	defer e.gate.Release()

	items, err := e.queue.ListPending()
	if err != nil {
		log.Printf("Quick sync: failed to list queue: %v", err)
		return
	}
	if len(items) > e.cfg.QuickLimit {
		items = items[:e.cfg.QuickLimit]
	}

	for _, item := range items {
		if err := e.uploadItem(ctx, item); err != nil {
			log.Printf("Quick sync: item %d (%s %s) failed: %v", item.ID, item.Action, item.ResourceType, err)
			continue
		}
		if err := e.queue.Remove(item.ID); err != nil {
			log.Printf("Quick sync: failed to dequeue item %d: %v", item.ID, err)
		}
	}
}

func (e *Engine) recordOutcome(status, message string, pushed, pulled int) {
	if e.status == nil {
		return
	}
	if err := e.status.SetSyncStatus(status, message, pushed, pulled); err != nil {
		log.Printf("Sync: failed to record status: %v", err)
	}
}

func (e *Engine) logSync(action, description string, pushed, pulled int, err error) {
	if e.audit == nil {
		return
	}
	e.audit.LogSync(action, description, pushed, pulled, err)
}

func (e *Engine) lastSyncAt() *time.Time {
	if e.status == nil {
		return nil
	}
	return e.status.GetLastSyncAt()
}
