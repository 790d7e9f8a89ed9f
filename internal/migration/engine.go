// Package migration performs the one-time transform of a legacy local
// database (restaurants/concepts/curators) into the current schema.
// The transform is best-effort at record granularity and gated by a
// durable completion flag so it runs at most once per installation.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	curationdb "github.com/fieldkit/curator/internal/database/curations"
	curatordb "github.com/fieldkit/curator/internal/database/curators"
	entitydb "github.com/fieldkit/curator/internal/database/entities"
	"github.com/fieldkit/curator/internal/database/legacy"
	"github.com/fieldkit/curator/internal/guard"
	"github.com/fieldkit/curator/internal/settingsstore"
)

// ErrStoreBusy is returned when the sync engine holds the store while
// a migration is requested.
var ErrStoreBusy = errors.New("store is busy, cannot run migration")

// progressEvery is how many processed records of each kind separate
// progress notifications.
const progressEvery = 10

// Auditor records migration outcomes. Implementations must not block.
type Auditor interface {
	LogMigration(action, description string, err error)
}

// ProgressFunc is called as records of each kind are processed.
type ProgressFunc func(kind string, processed, total int)

// Status is the in-process view of a migration run. It resets per
// process lifetime; the durable completion flag lives in the settings
// store.
type Status struct {
	IsRunning      bool     `json:"is_running"`
	HasRun         bool     `json:"has_run"`
	TotalSource    int      `json:"total_source"`
	MigratedSource int      `json:"migrated_source"`
	Errors         []string `json:"errors,omitempty"`
}

// Engine runs the legacy transform.
type Engine struct {
	legacyPaths []string
	entities    *entitydb.Repository
	curations   *curationdb.Repository
	curators    *curatordb.Repository
	settings    *settingsstore.SettingsStore
	gate        *guard.Gate
	audit       Auditor
	progress    ProgressFunc

	mu     sync.Mutex
	status Status
}

// NewEngine creates a migration engine. audit and progress may be nil.
func NewEngine(legacyPaths []string, entityRepo *entitydb.Repository, curationRepo *curationdb.Repository, curatorRepo *curatordb.Repository, settings *settingsstore.SettingsStore, gate *guard.Gate, auditor Auditor, progress ProgressFunc) *Engine {
	e := &Engine{
		legacyPaths: legacyPaths,
		entities:    entityRepo,
		curations:   curationRepo,
		curators:    curatorRepo,
		settings:    settings,
		gate:        gate,
		audit:       auditor,
		progress:    progress,
	}
	if e.progress == nil {
		e.progress = func(kind string, processed, total int) {
			log.Printf("Migration: %s %d/%d", kind, processed, total)
		}
	}
	return e
}

// Status returns a snapshot of the current run state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.status
	snapshot.Errors = append([]string(nil), e.status.Errors...)
	return snapshot
}

// Run executes the migration once. A prior durable completion makes it
// a no-op. Per-record failures are collected and do not abort the run;
// an engine-level failure aborts without setting the completion flag,
// so the whole migration is retried on the next startup.
func (e *Engine) Run(ctx context.Context) error {
	if e.settings.IsMigrationComplete() {
		log.Printf("Migration: already complete, skipping")
		e.setHasRun()
		return nil
	}

	if !e.gate.TryAcquire("migration") {
		return ErrStoreBusy
	}
	defer e.gate.Release()

	e.begin()

	err := e.run(ctx)
	e.finish(err)
	if err != nil {
		e.logAudit("legacy_migration", "migration aborted", err)
		return err
	}
	return nil
}

func (e *Engine) run(ctx context.Context) error {
	store, err := legacy.Detect(e.legacyPaths)
	if err != nil {
		return fmt.Errorf("legacy detection failed: %w", err)
	}
	if store == nil {
		log.Printf("Migration: no legacy data found")
		if err := e.settings.SetMigrationComplete("no legacy data"); err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}
		e.logAudit("legacy_migration", "no legacy data", nil)
		return nil
	}
	defer store.Close()

	log.Printf("Migration: legacy database detected at %s", store.Path())

	if err := e.countSource(store); err != nil {
		return err
	}

	// Order matters: curations need entity IDs, entities need curator IDs.
	if err := e.migrateCurators(ctx, store); err != nil {
		return err
	}
	legacyIndex, err := e.migrateRestaurants(ctx, store)
	if err != nil {
		return err
	}
	if err := e.migrateConcepts(ctx, store, legacyIndex); err != nil {
		return err
	}

	if err := e.settings.SetMigrationComplete(fmt.Sprintf("migrated from %s", store.Path())); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}

	status := e.Status()
	summary := fmt.Sprintf("migrated %d/%d legacy records (%d errors) from %s",
		status.MigratedSource, status.TotalSource, len(status.Errors), store.Path())
	log.Printf("Migration: %s", summary)
	e.logAudit("legacy_migration", summary, nil)
	return nil
}

func (e *Engine) countSource(store *legacy.Store) error {
	restaurants, err := store.CountRestaurants()
	if err != nil {
		return fmt.Errorf("failed to count legacy restaurants: %w", err)
	}
	var concepts, curators int64
	if store.HasTable("concepts") {
		if concepts, err = store.CountConcepts(); err != nil {
			return fmt.Errorf("failed to count legacy concepts: %w", err)
		}
	}
	if store.HasTable("curators") {
		if curators, err = store.CountCurators(); err != nil {
			return fmt.Errorf("failed to count legacy curators: %w", err)
		}
	}

	e.mu.Lock()
	e.status.TotalSource = int(restaurants + concepts + curators)
	e.mu.Unlock()
	return nil
}

func (e *Engine) begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = Status{IsRunning: true}
}

func (e *Engine) finish(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.IsRunning = false
	e.status.HasRun = true
	if err != nil {
		e.status.Errors = append(e.status.Errors, err.Error())
	}
}

func (e *Engine) setHasRun() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.HasRun = true
}

func (e *Engine) recordError(context string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.Errors = append(e.status.Errors, fmt.Sprintf("%s: %v", context, err))
}

func (e *Engine) recordMigrated() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.MigratedSource++
}

func (e *Engine) logAudit(action, description string, err error) {
	if e.audit == nil {
		return
	}
	e.audit.LogMigration(action, description, err)
}
