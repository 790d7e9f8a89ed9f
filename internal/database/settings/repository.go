// Package settings stores durable key/value flags. The settingsstore
// package layers typed accessors on top; nothing else should write
// settings rows directly.
package settings

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldkit/curator/internal/entities"
)

// Repository persists settings rows keyed by their unique name.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting writes a setting, replacing the value when the key
// already exists.
func (r *Repository) SetSetting(key, value string) error {
	setting := entities.Setting{Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// DeleteSetting removes a setting by key. Deleting an absent key is
// not an error.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}
