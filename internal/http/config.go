package http

import (
	"github.com/fieldkit/curator/internal/capture"
	"github.com/fieldkit/curator/internal/connectivity"
	"github.com/fieldkit/curator/internal/database"
	"github.com/fieldkit/curator/internal/settingsstore"
)

// RouterConfig contains all dependencies needed to create the HTTP
// router. This replaces a long parameter list in NewRouter.
type RouterConfig struct {
	// Core dependencies
	Database       *database.Database
	CaptureService *capture.Service
	SettingsStore  *settingsstore.SettingsStore

	// Read stores
	EntityReader   EntityReader
	CurationReader CurationReader
	QueueReader    QueueReader
	AuditReader    AuditReader

	// Sync
	SyncEngine Syncer
	Monitor    connectivity.Monitor
	Auditor    SettingsAuditor

	// Legacy migration
	MigrationEngine Migrator

	// Application info
	Version string
}
