package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version)
	entitiesController := NewEntitiesController(cfg.CaptureService, cfg.EntityReader, cfg.CurationReader)
	curationsController := NewCurationsController(cfg.CaptureService, cfg.CurationReader)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Entity capture endpoints
	router.GET("/api/entities", entitiesController.ListEntities)
	router.GET("/api/entities/:id", entitiesController.GetEntity)
	router.POST("/api/entities", entitiesController.CreateEntity)
	router.PATCH("/api/entities/:id", entitiesController.UpdateEntity)
	router.DELETE("/api/entities/:id", entitiesController.DeleteEntity)

	// Curation endpoints
	router.GET("/api/curations", curationsController.ListCurations)
	router.GET("/api/curations/:id", curationsController.GetCuration)
	router.POST("/api/curations", curationsController.CreateCuration)
	router.PATCH("/api/curations/:id", curationsController.UpdateCuration)
	router.DELETE("/api/curations/:id", curationsController.DeleteCuration)

	// Sync endpoints
	if cfg.SyncEngine != nil {
		syncController := NewSyncController(cfg.SyncEngine, cfg.SettingsStore, cfg.QueueReader, cfg.Monitor, cfg.Auditor)
		router.POST("/api/sync", syncController.TriggerSync)
		router.POST("/api/sync/download", syncController.TriggerDownload)
		router.GET("/api/sync/status", syncController.GetStatus)
		router.PUT("/api/sync/settings", syncController.UpdateSettings)
		router.DELETE("/api/sync/settings", syncController.ResetSettings)
	}

	// Legacy migration endpoints
	if cfg.MigrationEngine != nil {
		migrationController := NewMigrationController(cfg.MigrationEngine, cfg.SettingsStore)
		router.GET("/api/migration/status", migrationController.GetStatus)
		router.POST("/api/migration/run", migrationController.TriggerMigration)
	}

	// Audit log endpoints
	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader)
		router.GET("/api/audit", auditController.GetAuditEvents)
	}

	return router
}
