// Package entities provides database operations for entity records.
package entities

import (
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/entities"
)

// Repository handles all entity database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new entity repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new entity. The write goes through tx when the
// caller needs it to share a transaction with a queue append; passing
// nil uses the repository's own handle.
func (r *Repository) Create(tx *gorm.DB, entity *entities.Entity) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entity).Error
}

// GetByEntityID retrieves an entity by its global identifier.
func (r *Repository) GetByEntityID(entityID string) (*entities.Entity, error) {
	var entity entities.Entity
	err := r.db.Where("entity_id = ?", entityID).First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// FindByNameAndType looks up an entity by exact, case-sensitive name
// and type. This is the dedup key used during legacy migration.
func (r *Repository) FindByNameAndType(name, entityType string) (*entities.Entity, error) {
	var entity entities.Entity
	err := r.db.Where("name = ? AND type = ?", name, entityType).First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// UpdateFields applies a partial update to the entity with the given
// global identifier. Used by the sync engine to stamp canonical state
// and to merge downloaded records, so updated_at must be included in
// fields by the caller when it should change.
func (r *Repository) UpdateFields(tx *gorm.DB, entityID string, fields map[string]any) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&entities.Entity{}).
		Where("entity_id = ?", entityID).
		Updates(fields).Error
}

// Delete removes the entity with the given global identifier.
func (r *Repository) Delete(tx *gorm.DB, entityID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Where("entity_id = ?", entityID).Delete(&entities.Entity{}).Error
}

// List returns entities ordered by most recently updated.
func (r *Repository) List(limit, offset int) ([]entities.Entity, error) {
	var out []entities.Entity
	q := r.db.Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListMigrated returns entities carrying legacy migration metadata.
// The LIKE filter narrows the scan; callers verify by decoding the
// metadata document.
func (r *Repository) ListMigrated() ([]entities.Entity, error) {
	var out []entities.Entity
	err := r.db.Where("metadata LIKE ?", "%migration_info%").Find(&out).Error
	return out, err
}

// Count returns the total number of entities.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Entity{}).Count(&count).Error
	return count, err
}
