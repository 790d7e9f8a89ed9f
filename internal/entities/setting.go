package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Legacy migration settings
	SettingKeyMigrationComplete    = "legacy_migration_complete"
	SettingKeyMigrationCompletedAt = "legacy_migration_completed_at"
	SettingKeyMigrationReason      = "legacy_migration_reason"

	// Sync settings
	SettingKeySyncEnabled     = "sync_enabled"
	SettingKeySyncInterval    = "sync_interval"
	SettingKeySyncLastAt      = "sync_last_at"
	SettingKeySyncLastStatus  = "sync_last_status"
	SettingKeySyncLastMessage = "sync_last_message"
	SettingKeySyncLastPushed  = "sync_last_pushed"
	SettingKeySyncLastPulled  = "sync_last_pulled"
)
