// Package syncqueue provides database operations for the outbound sync queue.
//
// The queue is an append-only durable log of local mutations awaiting
// confirmation by the remote store. Enqueue takes the caller's database
// handle so the queue append can share a transaction with the record
// write it represents.
//
// # Usage
//
//	repo := syncqueue.NewRepository(db)
//	id, err := repo.Enqueue(tx, entities.ResourceEntity, entities.ActionCreate, entityID, payload)
package syncqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/entities"
)

// Repository handles all sync queue database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sync queue repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Enqueue appends a pending mutation to the queue. The write goes
// through tx, which callers set to the transaction wrapping the local
// record mutation so both commit or roll back together. Passing nil
// uses the repository's own handle.
func (r *Repository) Enqueue(tx *gorm.DB, kind entities.ResourceKind, action entities.SyncAction, targetID string, payload any) (uint, error) {
	if tx == nil {
		tx = r.db
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode queue payload: %w", err)
	}

	item := entities.SyncQueueItem{
		ResourceType: kind,
		Action:       action,
		TargetID:     targetID,
		Payload:      string(body),
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.Create(&item).Error; err != nil {
		return 0, err
	}
	return item.ID, nil
}

// ListPending returns all queued items in FIFO order.
func (r *Repository) ListPending() ([]entities.SyncQueueItem, error) {
	var items []entities.SyncQueueItem
	err := r.db.Order("created_at ASC, id ASC").Find(&items).Error
	return items, err
}

// Remove deletes a confirmed or abandoned item from the queue.
func (r *Repository) Remove(id uint) error {
	return r.db.Delete(&entities.SyncQueueItem{}, id).Error
}

// RecordFailure increments the item's retry counter and stores the
// error text, returning the new count. The caller decides when the
// count has exhausted the retry budget.
func (r *Repository) RecordFailure(id uint, syncErr error) (int, error) {
	var item entities.SyncQueueItem
	if err := r.db.First(&item, id).Error; err != nil {
		return 0, err
	}

	item.RetryCount++
	err := r.db.Model(&entities.SyncQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count": item.RetryCount,
			"last_error":  syncErr.Error(),
		}).Error
	if err != nil {
		return 0, err
	}
	return item.RetryCount, nil
}

// CountPending returns the number of items awaiting upload.
func (r *Repository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&entities.SyncQueueItem{}).Count(&count).Error
	return count, err
}
