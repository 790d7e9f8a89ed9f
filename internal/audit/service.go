// Package audit records user-visible outcomes of capture, sync and
// migration as non-blocking events in the local store.
package audit

import (
	"encoding/json"
	"log"

	"github.com/fieldkit/curator/internal/database/audit"
	"github.com/fieldkit/curator/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogSync records the outcome of a sync operation with its push and
// pull counts attached as metadata.
func (s *Service) LogSync(action, description string, pushed, pulled int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSync,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogWithMetadata(event, map[string]any{"pushed": pushed, "pulled": pulled})
}

// LogQueueDrop records a queue item abandoned after its retry budget
// was spent. This is the surfaced trace of accepted data loss.
func (s *Service) LogQueueDrop(kind entities.ResourceKind, targetID, reason string) {
	event := &entities.AuditEvent{
		EventType:    entities.AuditEventQueueDrop,
		Action:       string(kind) + "_dropped",
		Description:  truncate(reason, 500),
		ResourceType: string(kind),
		ResourceID:   targetID,
		Status:       entities.AuditStatusFailed,
	}
	s.LogAsync(event)
}

// LogMigration records a migration outcome.
func (s *Service) LogMigration(action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMigration,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogCapture records a local record mutation.
func (s *Service) LogCapture(kind entities.ResourceKind, action entities.SyncAction, targetID, name string) {
	event := &entities.AuditEvent{
		EventType:    entities.AuditEventCapture,
		Action:       string(kind) + "_" + string(action),
		Description:  truncate(name, 500),
		ResourceType: string(kind),
		ResourceID:   targetID,
		Status:       entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(kind entities.ResourceKind, targetID, name string) {
	event := &entities.AuditEvent{
		EventType:    entities.AuditEventDelete,
		Action:       string(kind) + "_delete",
		Description:  "Deleted " + string(kind) + ": " + name,
		ResourceType: string(kind),
		ResourceID:   targetID,
		Status:       entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(action, description string) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogWithMetadata records an event with a JSON metadata document.
func (s *Service) LogWithMetadata(event *entities.AuditEvent, metadata map[string]any) {
	if mdBytes, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(mdBytes)
	}
	s.LogAsync(event)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
