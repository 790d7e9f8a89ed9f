package syncengine

import (
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/entities"
)

// Local store surfaces consumed by the engine, declared here so tests
// can substitute fakes. The gorm repositories under internal/database
// are the production implementations; see internal/interfaces.

// QueueStore is the sync queue surface.
type QueueStore interface {
	ListPending() ([]entities.SyncQueueItem, error)
	Remove(id uint) error
	RecordFailure(id uint, syncErr error) (int, error)
}

// EntityRepository is the local entity record surface.
type EntityRepository interface {
	GetByEntityID(entityID string) (*entities.Entity, error)
	Create(tx *gorm.DB, entity *entities.Entity) error
	UpdateFields(tx *gorm.DB, entityID string, fields map[string]any) error
	Delete(tx *gorm.DB, entityID string) error
}

// CurationRepository is the local curation record surface.
type CurationRepository interface {
	GetByCurationID(curationID string) (*entities.Curation, error)
	Create(tx *gorm.DB, curation *entities.Curation) error
	UpdateFields(tx *gorm.DB, curationID string, fields map[string]any) error
	Delete(tx *gorm.DB, curationID string) error
}
