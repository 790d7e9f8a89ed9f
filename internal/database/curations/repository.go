// Package curations provides database operations for curation records.
package curations

import (
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/entities"
)

// Repository handles all curation database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new curation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new curation, through tx when the caller shares a
// transaction with a queue append.
func (r *Repository) Create(tx *gorm.DB, curation *entities.Curation) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(curation).Error
}

// GetByCurationID retrieves a curation by its global identifier.
func (r *Repository) GetByCurationID(curationID string) (*entities.Curation, error) {
	var curation entities.Curation
	err := r.db.Where("curation_id = ?", curationID).First(&curation).Error
	if err != nil {
		return nil, err
	}
	return &curation, nil
}

// UpdateFields applies a partial update keyed by global identifier.
func (r *Repository) UpdateFields(tx *gorm.DB, curationID string, fields map[string]any) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&entities.Curation{}).
		Where("curation_id = ?", curationID).
		Updates(fields).Error
}

// Delete removes the curation with the given global identifier.
func (r *Repository) Delete(tx *gorm.DB, curationID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Where("curation_id = ?", curationID).Delete(&entities.Curation{}).Error
}

// ListByEntity returns all curations attached to an entity.
func (r *Repository) ListByEntity(entityID string) ([]entities.Curation, error) {
	var out []entities.Curation
	err := r.db.Where("entity_id = ?", entityID).Order("created_at ASC").Find(&out).Error
	return out, err
}

// List returns curations ordered by most recently updated.
func (r *Repository) List(limit, offset int) ([]entities.Curation, error) {
	var out []entities.Curation
	q := r.db.Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&out).Error
	return out, err
}

// Count returns the total number of curations.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Curation{}).Count(&count).Error
	return count, err
}
