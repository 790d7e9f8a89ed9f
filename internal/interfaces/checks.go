package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/fieldkit/curator/internal/audit"
	"github.com/fieldkit/curator/internal/capture"
	"github.com/fieldkit/curator/internal/connectivity"
	auditdb "github.com/fieldkit/curator/internal/database/audit"
	curationdb "github.com/fieldkit/curator/internal/database/curations"
	entitydb "github.com/fieldkit/curator/internal/database/entities"
	"github.com/fieldkit/curator/internal/database/syncqueue"
	"github.com/fieldkit/curator/internal/http"
	"github.com/fieldkit/curator/internal/migration"
	"github.com/fieldkit/curator/internal/remote"
	"github.com/fieldkit/curator/internal/settingsstore"
	"github.com/fieldkit/curator/internal/syncengine"
	"github.com/fieldkit/curator/internal/tasks"
)

// =============================================================================
// Sync Engine Stores
// =============================================================================

var _ syncengine.QueueStore = (*syncqueue.Repository)(nil)
var _ syncengine.EntityRepository = (*entitydb.Repository)(nil)
var _ syncengine.CurationRepository = (*curationdb.Repository)(nil)

// RemoteAPI implementations
var _ syncengine.RemoteAPI = (*remote.Client)(nil)

// Sync outcome recording and auditing
var _ syncengine.StatusRecorder = (*settingsstore.SettingsStore)(nil)
var _ syncengine.Auditor = (*audit.Service)(nil)
var _ migration.Auditor = (*audit.Service)(nil)
var _ capture.Auditor = (*audit.Service)(nil)

// =============================================================================
// Connectivity
// =============================================================================

var _ connectivity.Monitor = (*connectivity.Signal)(nil)
var _ connectivity.Pinger = (*remote.Client)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.EntityReader = (*entitydb.Repository)(nil)
var _ http.CurationReader = (*curationdb.Repository)(nil)
var _ http.QueueReader = (*syncqueue.Repository)(nil)
var _ http.AuditReader = (*auditdb.Repository)(nil)
var _ http.Syncer = (*syncengine.Engine)(nil)
var _ http.Migrator = (*migration.Engine)(nil)
var _ http.SettingsAuditor = (*audit.Service)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.QuickSyncer = (*syncengine.Engine)(nil)
var _ tasks.AuditEventCleaner = (*auditdb.Repository)(nil)
