package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
)

// QuickSyncer drains a small number of pending sync items opportunistically.
// Failures are logged and absorbed by the engine itself.
type QuickSyncer interface {
	QuickSync(ctx context.Context)
}

// QuickSyncTask pushes a handful of queued mutations to the remote API
// shortly after a capture, without waiting for the periodic timer.
type QuickSyncTask struct {
	Reason string `json:"reason"`
}

// Config returns the queue configuration for quick sync tasks.
func (t QuickSyncTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "quick_sync",
		MaxAttempts: 1,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// QuickSyncProcessor creates a processor function for QuickSyncTask.
func QuickSyncProcessor(syncer QuickSyncer) backlite.QueueProcessor[QuickSyncTask] {
	return func(ctx context.Context, task QuickSyncTask) error {
		if syncer == nil {
			return fmt.Errorf("quick syncer not configured")
		}

		syncer.QuickSync(ctx)
		return nil
	}
}

// NewQuickSyncQueue creates a backlite queue for quick sync tasks.
func NewQuickSyncQueue(syncer QuickSyncer) backlite.Queue {
	return backlite.NewQueue(QuickSyncProcessor(syncer))
}
