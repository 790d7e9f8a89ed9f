package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/curator/internal/database"
	"github.com/fieldkit/curator/internal/database/settings"
	"github.com/fieldkit/curator/internal/migration"
	"github.com/fieldkit/curator/internal/settingsstore"
)

type fakeMigrator struct {
	mu     sync.Mutex
	status migration.Status
	runs   int
	runErr error
}

func (f *fakeMigrator) Run(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return f.runErr
}

func (f *fakeMigrator) Status() migration.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeMigrator) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func setupMigrationRouter(t *testing.T, migrator Migrator) (*gin.Engine, *settingsstore.SettingsStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "migration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := settingsstore.New(settings.NewRepository(db.DB))
	controller := NewMigrationController(migrator, store)

	router := gin.New()
	router.GET("/api/migration/status", controller.GetStatus)
	router.POST("/api/migration/run", controller.TriggerMigration)
	return router, store
}

func TestGetMigrationStatus(t *testing.T) {
	migrator := &fakeMigrator{status: migration.Status{
		HasRun:         true,
		TotalSource:    10,
		MigratedSource: 8,
		Errors:         []string{"concept 3: parent restaurant 7 not migrated"},
	}}
	router, store := setupMigrationRouter(t, migrator)
	require.NoError(t, store.SetMigrationComplete("migrated from ./legacy.db"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/migration/status", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Migration settingsstore.MigrationInfo `json:"migration"`
		Progress  migration.Status            `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Migration.Complete)
	assert.Equal(t, "migrated from ./legacy.db", response.Migration.Reason)
	assert.Equal(t, 10, response.Progress.TotalSource)
	assert.Equal(t, 8, response.Progress.MigratedSource)
	assert.Len(t, response.Progress.Errors, 1)
}

func TestTriggerMigration(t *testing.T) {
	migrator := &fakeMigrator{}
	router, _ := setupMigrationRouter(t, migrator)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/migration/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && migrator.runCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, migrator.runCount())
}

func TestTriggerMigration_AlreadyComplete(t *testing.T) {
	migrator := &fakeMigrator{}
	router, store := setupMigrationRouter(t, migrator)
	require.NoError(t, store.SetMigrationComplete("done"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/migration/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, migrator.runCount(), "a completed migration is never re-run")
}

func TestTriggerMigration_AlreadyRunning(t *testing.T) {
	migrator := &fakeMigrator{status: migration.Status{IsRunning: true}}
	router, _ := setupMigrationRouter(t, migrator)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/migration/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, migrator.runCount())
}
