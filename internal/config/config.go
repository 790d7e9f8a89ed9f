package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Remote
		Sync
		Migration
		Tasks
		Audit
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Remote struct {
		BaseURL string
		Token   string
		Timeout time.Duration
	}
	// Sync tunes the engine. The enabled flag is not here: the
	// settings store resolves it (database override > SYNC_ENABLED >
	// on).
	Sync struct {
		Interval      time.Duration // background drain period
		BatchSize     int           // queue items per upload batch
		BatchPause    time.Duration // pause between upload batches
		MaxRetries    int           // failures before an item is dropped
		PageSize      int           // download page size
		QuickLimit    int           // items attempted by a quick sync
		ProbeInterval time.Duration // connectivity probe period
	}
	Migration struct {
		LegacyPaths []string // candidate legacy database files, probed in order
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		CleanupInterval   time.Duration
		ReleaseAfter      time.Duration
		RetentionDuration time.Duration
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8388)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("legacy_database_paths", DefaultLegacyDatabasePaths)
	v.SetDefault("audit_retention_days", 30)

	// Remote API defaults
	v.SetDefault("remote_api_url", "")
	v.SetDefault("remote_api_token", "")
	v.SetDefault("remote_api_timeout", "30s")

	// Sync defaults
	v.SetDefault("sync_interval", "30s")
	v.SetDefault("sync_batch_size", 10)
	v.SetDefault("sync_batch_pause", "200ms")
	v.SetDefault("sync_max_retries", 3)
	v.SetDefault("sync_page_size", 100)
	v.SetDefault("sync_quick_limit", 3)
	v.SetDefault("sync_probe_interval", "15s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Remote: Remote{
			BaseURL: v.GetString("REMOTE_API_URL"),
			Token:   v.GetString("REMOTE_API_TOKEN"),
			Timeout: v.GetDuration("REMOTE_API_TIMEOUT"),
		},
		Sync: Sync{
			Interval:      v.GetDuration("SYNC_INTERVAL"),
			BatchSize:     v.GetInt("SYNC_BATCH_SIZE"),
			BatchPause:    v.GetDuration("SYNC_BATCH_PAUSE"),
			MaxRetries:    v.GetInt("SYNC_MAX_RETRIES"),
			PageSize:      v.GetInt("SYNC_PAGE_SIZE"),
			QuickLimit:    v.GetInt("SYNC_QUICK_LIMIT"),
			ProbeInterval: v.GetDuration("SYNC_PROBE_INTERVAL"),
		},
		Migration: Migration{
			LegacyPaths: splitPaths(v.GetString("LEGACY_DATABASE_PATHS")),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
