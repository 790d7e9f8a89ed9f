package entities

import (
	"time"
)

// ResourceKind identifies the kind of record a sync operation targets.
// The set is closed: the sync engine switches exhaustively over it.
type ResourceKind string

const (
	ResourceEntity   ResourceKind = "entity"
	ResourceCuration ResourceKind = "curation"
)

// SyncAction is the mutation type carried by a queue item.
type SyncAction string

const (
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionDelete SyncAction = "delete"
)

type EntityStatus string

const (
	EntityStatusActive   EntityStatus = "active"
	EntityStatusDraft    EntityStatus = "draft"
	EntityStatusArchived EntityStatus = "archived"
)

// Entity is a curated place record. EntityID is the global identifier
// shared with the remote store; exactly one row exists per EntityID.
//
// CreatedAt/UpdatedAt are sync-protocol timestamps used by the
// last-writer-wins merge, so gorm's automatic time tracking is disabled
// and the code sets them explicitly.
type Entity struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	EntityID  string       `gorm:"uniqueIndex;size:64" json:"entity_id"`
	Type      string       `gorm:"index;size:50" json:"type"` // e.g., "restaurant"
	Name      string       `gorm:"index;size:512" json:"name"`
	Status    EntityStatus `gorm:"size:20;default:'active'" json:"status"`
	CreatedBy string       `gorm:"index;size:64" json:"created_by"` // curator_id
	Payload   string       `gorm:"type:text" json:"payload,omitempty"`  // JSON: address, contact, ...
	Metadata  string       `gorm:"type:text" json:"metadata,omitempty"` // JSON: migration_info, google_places, michelin
	Version   string       `gorm:"size:128" json:"version,omitempty"`   // remote concurrency token
	CreatedAt time.Time    `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time    `gorm:"index;autoUpdateTime:false" json:"updated_at"`
}

func (Entity) TableName() string {
	return "entities"
}

// Curation is a tagged concept annotation attached to an Entity.
type Curation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CurationID string    `gorm:"uniqueIndex;size:64" json:"curation_id"`
	EntityID   string    `gorm:"index;size:64" json:"entity_id"` // FK to Entity.EntityID
	CuratorID  string    `gorm:"index;size:64" json:"curator_id"`
	Category   string    `gorm:"size:100" json:"category"`
	Concept    string    `gorm:"size:256" json:"concept"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`
	Tags       string    `gorm:"type:text" json:"tags,omitempty"` // JSON array of strings
	Version    string    `gorm:"size:128" json:"version,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt  time.Time `gorm:"index;autoUpdateTime:false" json:"updated_at"`
}

func (Curation) TableName() string {
	return "curations"
}

type CuratorStatus string

const (
	CuratorStatusActive   CuratorStatus = "active"
	CuratorStatusInactive CuratorStatus = "inactive"
)

// Curator is the person producing entities and curations. CuratorID is
// the join key referenced by Entity.CreatedBy and Curation.CuratorID.
type Curator struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	CuratorID  string        `gorm:"uniqueIndex;size:64" json:"curator_id"`
	Name       string        `gorm:"size:256" json:"name"`
	Email      string        `gorm:"size:255" json:"email"`
	Status     CuratorStatus `gorm:"size:20;default:'active'" json:"status"`
	Metadata   string        `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	LastActive *time.Time    `json:"last_active,omitempty"`
}

func (Curator) TableName() string {
	return "curators"
}
