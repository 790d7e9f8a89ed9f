package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/entities"
	"github.com/fieldkit/curator/internal/remote"
)

// DownloadOptions narrows what a download pulls.
type DownloadOptions struct {
	UpdatedAfter *time.Time
}

// DownloadResult reports one merge pass.
type DownloadResult struct {
	Entities  int      `json:"entities"`  // entities inserted or overwritten
	Curations int      `json:"curations"` // curations inserted or overwritten
	Deferred  int      `json:"deferred"`  // curations waiting for their entity
	Errors    []string `json:"errors,omitempty"`
}

// Total returns the number of merged records.
func (r DownloadResult) Total() int {
	return r.Entities + r.Curations
}

// downloadServerChanges lists remote entities then curations and
// merges each into the local store. Entities go first so curation
// merges can resolve their entity reference. Downloaded records are
// already canonical and never re-enter the sync queue.
func (e *Engine) downloadServerChanges(ctx context.Context, opts DownloadOptions) (DownloadResult, error) {
	result := DownloadResult{}

	listOpts := remote.ListOptions{
		UpdatedAfter: opts.UpdatedAfter,
		PageSize:     e.cfg.PageSize,
	}

	for {
		page, err := e.remote.ListEntities(ctx, listOpts)
		if err != nil {
			return result, fmt.Errorf("failed to list remote entities: %w", err)
		}

		for _, re := range page.Entities {
			merged, err := e.mergeEntity(re)
			if err != nil {
				return result, fmt.Errorf("failed to merge entity %s: %w", re.EntityID, err)
			}
			if merged {
				result.Entities++
			}
		}

		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		listOpts.Cursor = *page.NextCursor
	}

	listOpts.Cursor = ""
	for {
		page, err := e.remote.ListCurations(ctx, listOpts)
		if err != nil {
			return result, fmt.Errorf("failed to list remote curations: %w", err)
		}

		for _, rc := range page.Curations {
			merged, deferred, err := e.mergeCuration(rc)
			if err != nil {
				return result, fmt.Errorf("failed to merge curation %s: %w", rc.CurationID, err)
			}
			if deferred {
				result.Deferred++
			} else if merged {
				result.Curations++
			}
		}

		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		listOpts.Cursor = *page.NextCursor
	}

	return result, nil
}

// mergeEntity applies the last-writer-wins rule: unknown global IDs
// are inserted verbatim; known ones are overwritten only when the
// remote timestamp is strictly newer.
func (e *Engine) mergeEntity(re remote.Entity) (bool, error) {
	local, err := e.entities.GetByEntityID(re.EntityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record := fromRemoteEntity(re)
		return true, e.entities.Create(nil, &record)
	}
	if err != nil {
		return false, err
	}

	if !re.UpdatedAt.After(local.UpdatedAt) {
		return false, nil
	}

	return true, e.entities.UpdateFields(nil, re.EntityID, map[string]any{
		"type":       re.Type,
		"name":       re.Name,
		"status":     entities.EntityStatus(re.Status),
		"created_by": re.CreatedBy,
		"payload":    string(re.Payload),
		"metadata":   string(re.Metadata),
		"version":    re.Version,
		"updated_at": re.UpdatedAt,
	})
}

// mergeCuration applies the same rule, except that a curation whose
// entity is not yet known locally is deferred rather than inserted
// with a dangling reference; the next download picks it up once its
// entity has arrived.
func (e *Engine) mergeCuration(rc remote.Curation) (merged, deferred bool, err error) {
	local, err := e.curations.GetByCurationID(rc.CurationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if _, err := e.entities.GetByEntityID(rc.EntityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Sync: deferring curation %s (entity %s not yet local)", rc.CurationID, rc.EntityID)
				return false, true, nil
			}
			return false, false, err
		}
		record := fromRemoteCuration(rc)
		return true, false, e.curations.Create(nil, &record)
	}
	if err != nil {
		return false, false, err
	}

	if !rc.UpdatedAt.After(local.UpdatedAt) {
		return false, false, nil
	}

	return true, false, e.curations.UpdateFields(nil, rc.CurationID, map[string]any{
		"entity_id":  rc.EntityID,
		"curator_id": rc.CuratorID,
		"category":   rc.Category,
		"concept":    rc.Concept,
		"notes":      rc.Notes,
		"tags":       encodeTags(rc.Tags),
		"version":    rc.Version,
		"updated_at": rc.UpdatedAt,
	})
}

func fromRemoteEntity(re remote.Entity) entities.Entity {
	return entities.Entity{
		EntityID:  re.EntityID,
		Type:      re.Type,
		Name:      re.Name,
		Status:    entities.EntityStatus(re.Status),
		CreatedBy: re.CreatedBy,
		Payload:   string(re.Payload),
		Metadata:  string(re.Metadata),
		Version:   re.Version,
		CreatedAt: re.CreatedAt,
		UpdatedAt: re.UpdatedAt,
	}
}

func fromRemoteCuration(rc remote.Curation) entities.Curation {
	return entities.Curation{
		CurationID: rc.CurationID,
		EntityID:   rc.EntityID,
		CuratorID:  rc.CuratorID,
		Category:   rc.Category,
		Concept:    rc.Concept,
		Notes:      rc.Notes,
		Tags:       encodeTags(rc.Tags),
		Version:    rc.Version,
		CreatedAt:  rc.CreatedAt,
		UpdatedAt:  rc.UpdatedAt,
	}
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	body, err := json.Marshal(tags)
	if err != nil {
		return ""
	}
	return string(body)
}
