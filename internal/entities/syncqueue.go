package entities

import "time"

// SyncQueueItem is one pending outbound mutation. Items are drained in
// FIFO order by the sync engine; an item survives failures until its
// retry count reaches the configured maximum, after which it is dropped
// and the loss surfaced through the audit log.
type SyncQueueItem struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ResourceType ResourceKind `gorm:"index;size:20" json:"resource_type"`
	Action       SyncAction   `gorm:"size:10" json:"action"`
	TargetID     string       `gorm:"index;size:64" json:"target_id"`   // global id of the record
	Payload      string       `gorm:"type:text" json:"payload"`         // JSON snapshot at enqueue time
	RetryCount   int          `gorm:"default:0" json:"retry_count"`
	LastError    string       `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}

func (SyncQueueItem) TableName() string {
	return "sync_queue"
}
