package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldkit/curator/internal/migration"
	"github.com/fieldkit/curator/internal/settingsstore"
)

// Migrator is the part of the migration engine the HTTP layer drives.
type Migrator interface {
	Run(ctx context.Context) error
	Status() migration.Status
}

type MigrationController struct {
	engine   Migrator
	settings *settingsstore.SettingsStore
}

func NewMigrationController(engine Migrator, settings *settingsstore.SettingsStore) *MigrationController {
	return &MigrationController{
		engine:   engine,
		settings: settings,
	}
}

// GetStatus reports migration progress and the durable completion flag.
// GET /api/migration/status
func (controller *MigrationController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"migration": controller.settings.GetMigrationInfo(),
		"progress":  controller.engine.Status(),
	})
}

// TriggerMigration starts the legacy import in the background. The
// engine itself refuses to run twice, so repeated calls are safe.
// POST /api/migration/run
func (controller *MigrationController) TriggerMigration(c *gin.Context) {
	if controller.settings.IsMigrationComplete() {
		respondSuccess(c, "migration already complete")
		return
	}
	if controller.engine.Status().IsRunning {
		respondError(c, http.StatusConflict, "migration already in progress")
		return
	}

	go func() {
		if err := controller.engine.Run(context.Background()); err != nil {
			if errors.Is(err, migration.ErrStoreBusy) {
				log.Printf("Migration skipped: %v", err)
				return
			}
			log.Printf("Migration failed: %v", err)
		}
	}()

	respondAccepted(c, "migration started", nil)
}
