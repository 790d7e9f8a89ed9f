package entities

import "time"

type AuditEventType string

const (
	AuditEventCapture   AuditEventType = "capture"
	AuditEventDelete    AuditEventType = "delete"
	AuditEventSync      AuditEventType = "sync"
	AuditEventQueueDrop AuditEventType = "queue_drop"
	AuditEventMigration AuditEventType = "migration"
	AuditEventSettings  AuditEventType = "settings"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	EventType    AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action       string         `gorm:"size:100" json:"action"`      // e.g., "full_sync", "entity_create"
	Description  string         `gorm:"size:500" json:"description"` // Human-readable summary
	ResourceType string         `gorm:"size:50" json:"resource_type"`
	ResourceID   string         `gorm:"index;size:64" json:"resource_id,omitempty"`
	Metadata     string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status       AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg     string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
