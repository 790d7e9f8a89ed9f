// Package curators provides database operations for curator records.
package curators

import (
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/entities"
)

// Repository handles all curator database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new curator repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new curator.
func (r *Repository) Create(curator *entities.Curator) error {
	return r.db.Create(curator).Error
}

// GetByCuratorID retrieves a curator by its global identifier.
func (r *Repository) GetByCuratorID(curatorID string) (*entities.Curator, error) {
	var curator entities.Curator
	err := r.db.Where("curator_id = ?", curatorID).First(&curator).Error
	if err != nil {
		return nil, err
	}
	return &curator, nil
}

// List returns all curators.
func (r *Repository) List() ([]entities.Curator, error) {
	var out []entities.Curator
	err := r.db.Order("created_at ASC").Find(&out).Error
	return out, err
}

// Count returns the total number of curators.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Curator{}).Count(&count).Error
	return count, err
}
