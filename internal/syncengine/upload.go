package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fieldkit/curator/internal/entities"
	"github.com/fieldkit/curator/internal/remote"
)

// UploadResult reports one queue drain.
type UploadResult struct {
	Entities  int      `json:"entities"`  // confirmed entity uploads
	Curations int      `json:"curations"` // confirmed curation uploads
	Dropped   int      `json:"dropped"`   // items abandoned permanently
	Errors    []string `json:"errors,omitempty"`
}

// Total returns the number of confirmed uploads.
func (r UploadResult) Total() int {
	return r.Entities + r.Curations
}

// syncPendingItems drains the queue in FIFO order, in fixed-size
// batches with a short pause between them. A failing item never stops
// the batch; it stays queued with an incremented retry count until the
// retry budget is spent, at which point it is dropped and the loss
// surfaced through the audit log.
func (e *Engine) syncPendingItems(ctx context.Context) (UploadResult, error) {
	result := UploadResult{}

	items, err := e.queue.ListPending()
	if err != nil {
		return result, fmt.Errorf("failed to list pending items: %w", err)
	}
	if len(items) == 0 {
		return result, nil
	}

	log.Printf("Sync: draining %d pending items", len(items))

	for start := 0; start < len(items); start += e.cfg.BatchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(e.cfg.BatchPause):
			}
		}

		end := start + e.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}

		for _, item := range items[start:end] {
			err := e.uploadItem(ctx, item)
			if err == nil {
				if err := e.queue.Remove(item.ID); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("item %d: failed to dequeue: %v", item.ID, err))
					continue
				}
				switch item.ResourceType {
				case entities.ResourceEntity:
					result.Entities++
				case entities.ResourceCuration:
					result.Curations++
				}
				continue
			}

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}

			if remote.IsValidation(err) {
				// Permanent rejection: retrying an invalid payload can never succeed.
				e.dropItem(item, fmt.Sprintf("rejected by remote: %v", err), &result)
				continue
			}

			retries, recErr := e.queue.RecordFailure(item.ID, err)
			if recErr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("item %d: failed to record failure: %v", item.ID, recErr))
				continue
			}
			if retries >= e.cfg.MaxRetries {
				e.dropItem(item, fmt.Sprintf("dropped after %d attempts: %v", retries, err), &result)
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("item %d (%s %s %s): %v", item.ID, item.Action, item.ResourceType, item.TargetID, err))
		}
	}

	return result, nil
}

// dropItem permanently abandons a queue item. This is accepted data
// loss and is always surfaced through the result and the audit log.
func (e *Engine) dropItem(item entities.SyncQueueItem, reason string, result *UploadResult) {
	if err := e.queue.Remove(item.ID); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("item %d: failed to drop: %v", item.ID, err))
		return
	}
	result.Dropped++
	result.Errors = append(result.Errors, fmt.Sprintf("item %d (%s %s %s): %s", item.ID, item.Action, item.ResourceType, item.TargetID, reason))
	log.Printf("Sync: WARNING - dropping item %d (%s %s %s): %s", item.ID, item.Action, item.ResourceType, item.TargetID, reason)
	if e.audit != nil {
		e.audit.LogQueueDrop(item.ResourceType, item.TargetID, reason)
	}
}

// uploadItem dispatches a single queue item to the matching remote
// call and stamps the local record with the canonical state the remote
// returns.
func (e *Engine) uploadItem(ctx context.Context, item entities.SyncQueueItem) error {
	switch item.ResourceType {
	case entities.ResourceEntity:
		return e.uploadEntityItem(ctx, item)
	case entities.ResourceCuration:
		return e.uploadCurationItem(ctx, item)
	default:
		return fmt.Errorf("unknown resource type %q", item.ResourceType)
	}
}

func (e *Engine) uploadEntityItem(ctx context.Context, item entities.SyncQueueItem) error {
	switch item.Action {
	case entities.ActionCreate, entities.ActionUpdate:
		var snapshot entities.Entity
		if err := json.Unmarshal([]byte(item.Payload), &snapshot); err != nil {
			return &remote.ValidationError{Message: fmt.Sprintf("undecodable queue payload: %v", err)}
		}

		var canonical *remote.Entity
		var err error
		if item.Action == entities.ActionCreate {
			canonical, err = e.remote.CreateEntity(ctx, toRemoteEntity(snapshot))
		} else {
			canonical, err = e.remote.UpdateEntity(ctx, item.TargetID, toRemoteEntity(snapshot))
		}
		if err != nil {
			return err
		}
		return e.stampEntity(item.TargetID, canonical)

	case entities.ActionDelete:
		err := e.remote.DeleteEntity(ctx, item.TargetID)
		if errors.Is(err, remote.ErrNotFound) {
			// Already gone remotely; the delete is confirmed.
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown action %q", item.Action)
	}
}

func (e *Engine) uploadCurationItem(ctx context.Context, item entities.SyncQueueItem) error {
	switch item.Action {
	case entities.ActionCreate, entities.ActionUpdate:
		var snapshot entities.Curation
		if err := json.Unmarshal([]byte(item.Payload), &snapshot); err != nil {
			return &remote.ValidationError{Message: fmt.Sprintf("undecodable queue payload: %v", err)}
		}

		var canonical *remote.Curation
		var err error
		if item.Action == entities.ActionCreate {
			canonical, err = e.remote.CreateCuration(ctx, toRemoteCuration(snapshot))
		} else {
			canonical, err = e.remote.UpdateCuration(ctx, item.TargetID, toRemoteCuration(snapshot))
		}
		if err != nil {
			return err
		}
		return e.stampCuration(item.TargetID, canonical)

	case entities.ActionDelete:
		err := e.remote.DeleteCuration(ctx, item.TargetID)
		if errors.Is(err, remote.ErrNotFound) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown action %q", item.Action)
	}
}

// stampEntity writes the canonical identifier, version and timestamp
// the remote returned onto the local record.
func (e *Engine) stampEntity(targetID string, canonical *remote.Entity) error {
	fields := map[string]any{
		"version":    canonical.Version,
		"updated_at": canonical.UpdatedAt,
	}
	if canonical.EntityID != "" && canonical.EntityID != targetID {
		fields["entity_id"] = canonical.EntityID
	}
	return e.entities.UpdateFields(nil, targetID, fields)
}

func (e *Engine) stampCuration(targetID string, canonical *remote.Curation) error {
	fields := map[string]any{
		"version":    canonical.Version,
		"updated_at": canonical.UpdatedAt,
	}
	if canonical.CurationID != "" && canonical.CurationID != targetID {
		fields["curation_id"] = canonical.CurationID
	}
	return e.curations.UpdateFields(nil, targetID, fields)
}

func toRemoteEntity(local entities.Entity) remote.Entity {
	return remote.Entity{
		EntityID:  local.EntityID,
		Type:      local.Type,
		Name:      local.Name,
		Status:    string(local.Status),
		CreatedBy: local.CreatedBy,
		Payload:   rawJSON(local.Payload),
		Metadata:  rawJSON(local.Metadata),
		Version:   local.Version,
		CreatedAt: local.CreatedAt,
		UpdatedAt: local.UpdatedAt,
	}
}

func toRemoteCuration(local entities.Curation) remote.Curation {
	var tags []string
	if local.Tags != "" {
		_ = json.Unmarshal([]byte(local.Tags), &tags)
	}
	return remote.Curation{
		CurationID: local.CurationID,
		EntityID:   local.EntityID,
		CuratorID:  local.CuratorID,
		Category:   local.Category,
		Concept:    local.Concept,
		Notes:      local.Notes,
		Tags:       tags,
		Version:    local.Version,
		CreatedAt:  local.CreatedAt,
		UpdatedAt:  local.UpdatedAt,
	}
}

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
