// Package capture owns local record mutations. Every mutation writes
// the record and appends the matching sync queue item inside one
// transaction, so the store and the queue can never diverge.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/database"
	curationdb "github.com/fieldkit/curator/internal/database/curations"
	entitydb "github.com/fieldkit/curator/internal/database/entities"
	"github.com/fieldkit/curator/internal/database/syncqueue"
	"github.com/fieldkit/curator/internal/entities"
)

// ErrUnknownEntity is returned when a curation references an entity
// that does not exist locally.
var ErrUnknownEntity = errors.New("curation references unknown entity")

// SyncNotifier is told after each successful mutation so an
// opportunistic quick sync can be scheduled. Implementations must not
// block.
type SyncNotifier interface {
	MutationQueued()
}

// Auditor records successful mutations. Implementations must not block.
type Auditor interface {
	LogCapture(kind entities.ResourceKind, action entities.SyncAction, targetID, name string)
	LogDelete(kind entities.ResourceKind, targetID, name string)
}

// Service handles entity and curation capture.
type Service struct {
	db        *database.Database
	entities  *entitydb.Repository
	curations *curationdb.Repository
	queue     *syncqueue.Repository
	notifier  SyncNotifier
	audit     Auditor
}

// NewService creates a capture service. notifier and auditor may be nil.
func NewService(db *database.Database, entityRepo *entitydb.Repository, curationRepo *curationdb.Repository, queue *syncqueue.Repository, notifier SyncNotifier, auditor Auditor) *Service {
	return &Service{
		db:        db,
		entities:  entityRepo,
		curations: curationRepo,
		queue:     queue,
		notifier:  notifier,
		audit:     auditor,
	}
}

// EntityInput carries the fields a curator fills in.
type EntityInput struct {
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	CreatedBy string         `json:"created_by"`
	Payload   map[string]any `json:"payload"`
}

// CurationInput carries the fields of a concept annotation.
type CurationInput struct {
	EntityID  string   `json:"entity_id"`
	CuratorID string   `json:"curator_id"`
	Category  string   `json:"category"`
	Concept   string   `json:"concept"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
}

// CreateEntity stores a new entity and queues its upload.
func (s *Service) CreateEntity(input EntityInput) (*entities.Entity, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("entity name is required")
	}

	now := time.Now().UTC()
	status := entities.EntityStatus(input.Status)
	if status == "" {
		status = entities.EntityStatusActive
	}

	entity := &entities.Entity{
		EntityID:  "entity_" + uuid.NewString(),
		Type:      input.Type,
		Name:      input.Name,
		Status:    status,
		CreatedBy: input.CreatedBy,
		Payload:   encodeJSON(input.Payload),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.entities.Create(tx, entity); err != nil {
			return err
		}
		_, err := s.queue.Enqueue(tx, entities.ResourceEntity, entities.ActionCreate, entity.EntityID, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mutationQueued()
	s.logCapture(entities.ResourceEntity, entities.ActionCreate, entity.EntityID, entity.Name)
	return entity, nil
}

// UpdateEntity applies changed fields and queues the upload.
func (s *Service) UpdateEntity(entityID string, input EntityInput) (*entities.Entity, error) {
	entity, err := s.entities.GetByEntityID(entityID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		entity.Name = input.Name
	}
	if input.Type != "" {
		entity.Type = input.Type
	}
	if input.Status != "" {
		entity.Status = entities.EntityStatus(input.Status)
	}
	if input.Payload != nil {
		entity.Payload = encodeJSON(input.Payload)
	}
	entity.UpdatedAt = time.Now().UTC()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{
			"name":       entity.Name,
			"type":       entity.Type,
			"status":     entity.Status,
			"payload":    entity.Payload,
			"updated_at": entity.UpdatedAt,
		}
		if err := s.entities.UpdateFields(tx, entityID, fields); err != nil {
			return err
		}
		_, err := s.queue.Enqueue(tx, entities.ResourceEntity, entities.ActionUpdate, entityID, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mutationQueued()
	s.logCapture(entities.ResourceEntity, entities.ActionUpdate, entityID, entity.Name)
	return entity, nil
}

// DeleteEntity removes the entity locally and queues the remote delete.
func (s *Service) DeleteEntity(entityID string) error {
	entity, err := s.entities.GetByEntityID(entityID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.entities.Delete(tx, entityID); err != nil {
			return err
		}
		_, err := s.queue.Enqueue(tx, entities.ResourceEntity, entities.ActionDelete, entityID,
			map[string]string{"entity_id": entityID})
		return err
	})
	if err != nil {
		return err
	}

	s.mutationQueued()
	s.logDelete(entities.ResourceEntity, entityID, entity.Name)
	return nil
}

// CreateCuration stores a new curation and queues its upload. The
// referenced entity must already exist locally.
func (s *Service) CreateCuration(input CurationInput) (*entities.Curation, error) {
	if _, err := s.entities.GetByEntityID(input.EntityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownEntity
		}
		return nil, err
	}

	now := time.Now().UTC()
	curation := &entities.Curation{
		CurationID: "curation_" + uuid.NewString(),
		EntityID:   input.EntityID,
		CuratorID:  input.CuratorID,
		Category:   input.Category,
		Concept:    input.Concept,
		Notes:      input.Notes,
		Tags:       encodeJSON(input.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.curations.Create(tx, curation); err != nil {
			return err
		}
		_, err := s.queue.Enqueue(tx, entities.ResourceCuration, entities.ActionCreate, curation.CurationID, curation)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mutationQueued()
	s.logCapture(entities.ResourceCuration, entities.ActionCreate, curation.CurationID, curation.Concept)
	return curation, nil
}

// UpdateCuration applies changed fields and queues the upload.
func (s *Service) UpdateCuration(curationID string, input CurationInput) (*entities.Curation, error) {
	curation, err := s.curations.GetByCurationID(curationID)
	if err != nil {
		return nil, err
	}

	if input.Category != "" {
		curation.Category = input.Category
	}
	if input.Concept != "" {
		curation.Concept = input.Concept
	}
	if input.Notes != "" {
		curation.Notes = input.Notes
	}
	if input.Tags != nil {
		curation.Tags = encodeJSON(input.Tags)
	}
	curation.UpdatedAt = time.Now().UTC()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{
			"category":   curation.Category,
			"concept":    curation.Concept,
			"notes":      curation.Notes,
			"tags":       curation.Tags,
			"updated_at": curation.UpdatedAt,
		}
		if err := s.curations.UpdateFields(tx, curationID, fields); err != nil {
			return err
		}
		_, err := s.queue.Enqueue(tx, entities.ResourceCuration, entities.ActionUpdate, curationID, curation)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mutationQueued()
	s.logCapture(entities.ResourceCuration, entities.ActionUpdate, curationID, curation.Concept)
	return curation, nil
}

// DeleteCuration removes the curation locally and queues the remote delete.
func (s *Service) DeleteCuration(curationID string) error {
	curation, err := s.curations.GetByCurationID(curationID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.curations.Delete(tx, curationID); err != nil {
			return err
		}
		_, err := s.queue.Enqueue(tx, entities.ResourceCuration, entities.ActionDelete, curationID,
			map[string]string{"curation_id": curationID})
		return err
	})
	if err != nil {
		return err
	}

	s.mutationQueued()
	s.logDelete(entities.ResourceCuration, curationID, curation.Concept)
	return nil
}

func (s *Service) mutationQueued() {
	if s.notifier != nil {
		s.notifier.MutationQueued()
	}
}

func (s *Service) logCapture(kind entities.ResourceKind, action entities.SyncAction, targetID, name string) {
	if s.audit != nil {
		s.audit.LogCapture(kind, action, targetID, name)
	}
}

func (s *Service) logDelete(kind entities.ResourceKind, targetID, name string) {
	if s.audit != nil {
		s.audit.LogDelete(kind, targetID, name)
	}
}

func encodeJSON(v any) string {
	if v == nil {
		return ""
	}
	body, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(body)
}
