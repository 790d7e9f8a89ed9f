package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldkit/curator/internal/connectivity"
	"github.com/fieldkit/curator/internal/settingsstore"
	"github.com/fieldkit/curator/internal/syncengine"
)

// Syncer is the part of the sync engine the HTTP layer drives.
type Syncer interface {
	FullSync(ctx context.Context) (*syncengine.FullSyncResult, error)
	DownloadServerChanges(ctx context.Context, opts syncengine.DownloadOptions) (syncengine.DownloadResult, error)
	IsSyncing() bool
}

// SettingsAuditor records operator settings changes.
type SettingsAuditor interface {
	LogSettings(action, description string)
}

type SyncController struct {
	engine   Syncer
	settings *settingsstore.SettingsStore
	queue    QueueReader
	monitor  connectivity.Monitor
	audit    SettingsAuditor
}

func NewSyncController(engine Syncer, settings *settingsstore.SettingsStore, queue QueueReader, monitor connectivity.Monitor, auditor SettingsAuditor) *SyncController {
	return &SyncController{
		engine:   engine,
		settings: settings,
		queue:    queue,
		monitor:  monitor,
		audit:    auditor,
	}
}

// TriggerSync runs a full sync cycle: upload pending mutations, then
// download and merge remote changes.
// POST /api/sync
func (controller *SyncController) TriggerSync(c *gin.Context) {
	result, err := controller.engine.FullSync(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, syncengine.ErrAlreadySyncing):
			respondError(c, http.StatusConflict, "sync already in progress")
		case errors.Is(err, syncengine.ErrOffline):
			respondError(c, http.StatusServiceUnavailable, "device is offline")
		default:
			respondInternalError(c, err, "full sync")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerDownload pulls and merges remote changes without uploading.
// POST /api/sync/download
func (controller *SyncController) TriggerDownload(c *gin.Context) {
	opts := syncengine.DownloadOptions{}
	if raw := c.Query("updated_after"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, "updated_after must be RFC3339")
			return
		}
		opts.UpdatedAfter = &ts
	}

	result, err := controller.engine.DownloadServerChanges(c.Request.Context(), opts)
	if err != nil {
		switch {
		case errors.Is(err, syncengine.ErrAlreadySyncing):
			respondError(c, http.StatusConflict, "sync already in progress")
		case errors.Is(err, syncengine.ErrOffline):
			respondError(c, http.StatusServiceUnavailable, "device is offline")
		default:
			respondInternalError(c, err, "download changes")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStatus reports the sync engine state: last outcome, queue depth,
// connectivity, and whether a sync is currently running.
// GET /api/sync/status
func (controller *SyncController) GetStatus(c *gin.Context) {
	pending, err := controller.queue.CountPending()
	if err != nil {
		respondInternalError(c, err, "count pending queue items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":       controller.settings.GetSyncEnabled(),
		"online":        controller.monitor.Online(),
		"syncing":       controller.engine.IsSyncing(),
		"pending_items": pending,
		"last_sync":     controller.settings.GetSyncStatus(),
	})
}

type syncSettingsInput struct {
	Enabled  *bool  `json:"enabled"`
	Interval string `json:"interval"`
}

// UpdateSettings stores operator overrides for background sync. The
// scheduler picks the enabled flag up on its next tick.
// PUT /api/sync/settings
func (controller *SyncController) UpdateSettings(c *gin.Context) {
	var input syncSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if input.Enabled == nil && input.Interval == "" {
		respondBadRequest(c, "nothing to update")
		return
	}

	var interval time.Duration
	if input.Interval != "" {
		d, err := time.ParseDuration(input.Interval)
		if err != nil || d <= 0 {
			respondBadRequest(c, "interval must be a positive duration")
			return
		}
		interval = d
	}

	if input.Enabled != nil {
		if err := controller.settings.SetSyncEnabled(*input.Enabled); err != nil {
			respondInternalError(c, err, "save sync settings")
			return
		}
		controller.logSettings("sync_enabled", fmt.Sprintf("Background sync set to %t", *input.Enabled))
	}
	if interval > 0 {
		if err := controller.settings.SetSyncInterval(interval); err != nil {
			respondInternalError(c, err, "save sync settings")
			return
		}
		controller.logSettings("sync_interval", "Sync interval set to "+interval.String())
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":  controller.settings.GetSyncEnabled(),
		"interval": controller.settings.GetSyncInterval(0).String(),
	})
}

// ResetSettings drops the stored overrides, reverting sync behaviour
// to environment values and defaults.
// DELETE /api/sync/settings
func (controller *SyncController) ResetSettings(c *gin.Context) {
	if err := controller.settings.ClearSyncSettings(); err != nil {
		respondInternalError(c, err, "clear sync settings")
		return
	}
	controller.logSettings("sync_settings_reset", "Sync overrides cleared")

	c.JSON(http.StatusOK, gin.H{"enabled": controller.settings.GetSyncEnabled()})
}

func (controller *SyncController) logSettings(action, description string) {
	if controller.audit != nil {
		controller.audit.LogSettings(action, description)
	}
}
