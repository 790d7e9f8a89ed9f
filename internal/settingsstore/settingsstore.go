// Package settingsstore exposes durable application flags over the
// settings table. Read precedence is database > environment > default.
package settingsstore

import (
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/database/settings"
	"github.com/fieldkit/curator/internal/entities"
)

type SettingsStore struct {
	repo *settings.Repository
}

func New(repo *settings.Repository) *SettingsStore {
	return &SettingsStore{repo: repo}
}

// IsMigrationComplete reports whether the legacy migration has already
// run to completion on this installation. The flag gates the migration
// engine so the transform body runs at most once.
func (s *SettingsStore) IsMigrationComplete() bool {
	setting, err := s.repo.GetSetting(entities.SettingKeyMigrationComplete)
	if err != nil {
		return false
	}
	return setting.Value == "true" || setting.Value == "1"
}

// SetMigrationComplete durably marks the migration as done, recording
// when and why. It is set only after a fully successful run (or when
// no legacy data exists), never on a partially failed one.
func (s *SettingsStore) SetMigrationComplete(reason string) error {
	if err := s.repo.SetSetting(entities.SettingKeyMigrationComplete, "true"); err != nil {
		return err
	}
	if err := s.repo.SetSetting(entities.SettingKeyMigrationCompletedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.repo.SetSetting(entities.SettingKeyMigrationReason, reason)
}

// ClearMigrationFlag removes the completion flag so the migration can
// run again. Intended for operator use; the engine never calls it.
func (s *SettingsStore) ClearMigrationFlag() error {
	keys := []string{
		entities.SettingKeyMigrationComplete,
		entities.SettingKeyMigrationCompletedAt,
		entities.SettingKeyMigrationReason,
	}
	for _, key := range keys {
		if err := s.repo.DeleteSetting(key); err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
	}
	return nil
}

// MigrationInfo describes the recorded completion state.
type MigrationInfo struct {
	Complete    bool       `json:"complete"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

func (s *SettingsStore) GetMigrationInfo() MigrationInfo {
	info := MigrationInfo{Complete: s.IsMigrationComplete()}

	if setting, err := s.repo.GetSetting(entities.SettingKeyMigrationCompletedAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			info.CompletedAt = &ts
		}
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeyMigrationReason); err == nil {
		info.Reason = setting.Value
	}
	return info
}

// GetSyncEnabled returns whether background sync is enabled
// (database > env > default true).
func (s *SettingsStore) GetSyncEnabled() bool {
	setting, err := s.repo.GetSetting(entities.SettingKeySyncEnabled)
	if err == nil && setting.Value != "" {
		return setting.Value == "true" || setting.Value == "1"
	}
	if envVal := os.Getenv("SYNC_ENABLED"); envVal != "" {
		return envVal == "true" || envVal == "1"
	}
	return true
}

// SetSyncEnabled saves the enabled setting to the database.
func (s *SettingsStore) SetSyncEnabled(enabled bool) error {
	return s.repo.SetSetting(entities.SettingKeySyncEnabled, strconv.FormatBool(enabled))
}

// SetSyncInterval saves the drain period override to the database.
func (s *SettingsStore) SetSyncInterval(interval time.Duration) error {
	return s.repo.SetSetting(entities.SettingKeySyncInterval, interval.String())
}

// GetSyncInterval returns the background drain period
// (database > env > fallback).
func (s *SettingsStore) GetSyncInterval(fallback time.Duration) time.Duration {
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncInterval); err == nil && setting.Value != "" {
		if d, err := time.ParseDuration(setting.Value); err == nil {
			return d
		}
	}
	if envVal := os.Getenv("SYNC_INTERVAL"); envVal != "" {
		if d, err := time.ParseDuration(envVal); err == nil {
			return d
		}
	}
	return fallback
}

// SyncStatus is the durably recorded outcome of the last sync.
type SyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"` // "success", "failed", ""
	Message    string     `json:"message,omitempty"`
	Pushed     int        `json:"pushed,omitempty"`
	Pulled     int        `json:"pulled,omitempty"`
}

// SetSyncStatus updates the recorded outcome of the last sync.
func (s *SettingsStore) SetSyncStatus(status, message string, pushed, pulled int) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.repo.SetSetting(entities.SettingKeySyncLastAt, now); err != nil {
		return err
	}
	if err := s.repo.SetSetting(entities.SettingKeySyncLastStatus, status); err != nil {
		return err
	}
	if err := s.repo.SetSetting(entities.SettingKeySyncLastMessage, message); err != nil {
		return err
	}
	if err := s.repo.SetSetting(entities.SettingKeySyncLastPushed, strconv.Itoa(pushed)); err != nil {
		return err
	}
	return s.repo.SetSetting(entities.SettingKeySyncLastPulled, strconv.Itoa(pulled))
}

// GetSyncStatus returns the last recorded sync outcome.
func (s *SettingsStore) GetSyncStatus() SyncStatus {
	status := SyncStatus{}

	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastSyncAt = &ts
		}
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastMessage); err == nil {
		status.Message = setting.Value
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastPushed); err == nil && setting.Value != "" {
		if n, err := strconv.Atoi(setting.Value); err == nil {
			status.Pushed = n
		}
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastPulled); err == nil && setting.Value != "" {
		if n, err := strconv.Atoi(setting.Value); err == nil {
			status.Pulled = n
		}
	}
	return status
}

// GetLastSyncAt returns the last sync timestamp, used for incremental
// downloads.
func (s *SettingsStore) GetLastSyncAt() *time.Time {
	setting, err := s.repo.GetSetting(entities.SettingKeySyncLastAt)
	if err != nil || setting.Value == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, setting.Value)
	if err != nil {
		return nil
	}
	return &ts
}

// ClearSyncSettings clears database overrides, reverting to env/default.
func (s *SettingsStore) ClearSyncSettings() error {
	keys := []string{
		entities.SettingKeySyncEnabled,
		entities.SettingKeySyncInterval,
	}
	for _, key := range keys {
		if err := s.repo.DeleteSetting(key); err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
	}
	return nil
}
