package http

import (
	"time"

	"github.com/fieldkit/curator/internal/entities"
)

// This file consolidates the store and service interfaces used by HTTP
// controllers. Each controller depends only on the methods it calls.

// EntityReader provides read access to captured entities.
type EntityReader interface {
	GetByEntityID(entityID string) (*entities.Entity, error)
	List(limit, offset int) ([]entities.Entity, error)
	Count() (int64, error)
}

// CurationReader provides read access to curations.
type CurationReader interface {
	GetByCurationID(curationID string) (*entities.Curation, error)
	ListByEntity(entityID string) ([]entities.Curation, error)
	List(limit, offset int) ([]entities.Curation, error)
	Count() (int64, error)
}

// QueueReader exposes the depth of the pending sync queue.
type QueueReader interface {
	CountPending() (int64, error)
}

// AuditReader provides read access to the audit log.
type AuditReader interface {
	GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetRecentEvents(since time.Time) ([]entities.AuditEvent, error)
}
