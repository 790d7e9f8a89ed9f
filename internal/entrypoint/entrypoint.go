package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldkit/curator/internal/audit"
	"github.com/fieldkit/curator/internal/capture"
	"github.com/fieldkit/curator/internal/config"
	"github.com/fieldkit/curator/internal/connectivity"
	"github.com/fieldkit/curator/internal/database"
	auditdb "github.com/fieldkit/curator/internal/database/audit"
	curationdb "github.com/fieldkit/curator/internal/database/curations"
	curatordb "github.com/fieldkit/curator/internal/database/curators"
	entitydb "github.com/fieldkit/curator/internal/database/entities"
	"github.com/fieldkit/curator/internal/database/settings"
	"github.com/fieldkit/curator/internal/database/syncqueue"
	"github.com/fieldkit/curator/internal/guard"
	http_controllers "github.com/fieldkit/curator/internal/http"
	"github.com/fieldkit/curator/internal/migration"
	"github.com/fieldkit/curator/internal/remote"
	"github.com/fieldkit/curator/internal/scheduler"
	"github.com/fieldkit/curator/internal/settingsstore"
	"github.com/fieldkit/curator/internal/syncengine"
	"github.com/fieldkit/curator/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown: wait for interrupt, then give in-flight work a
	// bounded window to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop scheduler and task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// quickSyncNotifier enqueues a quick sync task after each capture.
type quickSyncNotifier struct {
	client *tasks.Client
}

func (n *quickSyncNotifier) MutationQueued() {
	if n.client == nil {
		return
	}
	if _, err := n.client.Add(tasks.QuickSyncTask{Reason: "capture"}).Save(); err != nil {
		log.Printf("WARNING: Failed to enqueue quick sync task: %v", err)
	}
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Curator v%s", version)

	if cfg.Remote.BaseURL == "" {
		log.Printf("WARNING: Remote API URL is not set. Captures stay queued locally until 'REMOTE_API_URL' is configured.")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Domain repositories
	entityRepo := entitydb.NewRepository(db.DB)
	curationRepo := curationdb.NewRepository(db.DB)
	curatorRepo := curatordb.NewRepository(db.DB)
	queueRepo := syncqueue.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	auditRepo := auditdb.NewRepository(db.DB)

	settingsStore := settingsstore.New(settingsRepo)
	auditService := audit.NewService(auditRepo)

	// Remote API client and connectivity tracking. The probe flips the
	// signal as the remote becomes reachable or drops away.
	remoteClient := remote.NewClient(remote.Config{
		BaseURL: cfg.Remote.BaseURL,
		Token:   cfg.Remote.Token,
		Timeout: cfg.Remote.Timeout,
	})

	connSignal := connectivity.NewSignal(false)
	prober := connectivity.NewProber(connSignal, remoteClient, cfg.Sync.ProbeInterval)
	proberCtx, proberCancel := context.WithCancel(context.Background())
	prober.Start(proberCtx)

	// Single gate shared by sync and migration: the local store serves
	// one bulk writer at a time.
	gate := guard.NewGate()

	// Sync engine
	engine := syncengine.NewEngine(
		syncengine.Config{
			BatchSize:  cfg.Sync.BatchSize,
			BatchPause: cfg.Sync.BatchPause,
			MaxRetries: cfg.Sync.MaxRetries,
			PageSize:   cfg.Sync.PageSize,
			QuickLimit: cfg.Sync.QuickLimit,
		},
		queueRepo,
		entityRepo,
		curationRepo,
		remoteClient,
		connSignal,
		gate,
		settingsStore,
		auditService,
	)

	// Legacy migration runs before background sync so migrated records
	// are queued and merged like any other capture.
	migrationEngine := migration.NewEngine(
		cfg.Migration.LegacyPaths,
		entityRepo,
		curationRepo,
		curatorRepo,
		settingsStore,
		gate,
		auditService,
		nil,
	)
	if !settingsStore.IsMigrationComplete() {
		if err := migrationEngine.Run(context.Background()); err != nil {
			// Migration failures are retried on next start; captures keep working.
			log.Printf("WARNING: Legacy migration did not complete: %v", err)
		}
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewQuickSyncQueue(engine),
			tasks.NewCleanupAuditEventsQueue(auditRepo),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		// Schedule periodic audit log cleanup
		if _, err := taskClient.Add(tasks.CleanupAuditEventsTask{
			RetentionDays: cfg.Audit.RetentionDays,
		}).Save(); err != nil {
			log.Printf("WARNING: Failed to schedule audit cleanup: %v", err)
		}
	}

	// Capture service; each successful capture nudges a quick sync and
	// leaves an audit trace.
	captureService := capture.NewService(db, entityRepo, curationRepo, queueRepo, &quickSyncNotifier{client: taskClient}, auditService)

	// Periodic background drain, driven by connectivity transitions.
	// Every tick consults the durable enabled override (database >
	// SYNC_ENABLED > on), so toggling it via the settings endpoint
	// takes effect without a restart.
	interval := settingsStore.GetSyncInterval(cfg.Sync.Interval)
	syncScheduler := scheduler.NewSyncScheduler(engine, connSignal, interval, settingsStore.GetSyncEnabled)
	if !settingsStore.GetSyncEnabled() {
		log.Printf("Background sync disabled")
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: Failed to start sync scheduler: %v", err)
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:        db,
		CaptureService:  captureService,
		SettingsStore:   settingsStore,
		EntityReader:    entityRepo,
		CurationReader:  curationRepo,
		QueueReader:     queueRepo,
		AuditReader:     auditRepo,
		SyncEngine:      engine,
		Monitor:         connSignal,
		Auditor:         auditService,
		MigrationEngine: migrationEngine,
		Version:         version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		syncScheduler.Stop()
		prober.Stop()
		proberCancel()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
