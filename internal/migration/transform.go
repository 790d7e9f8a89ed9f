package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/database/legacy"
	"github.com/fieldkit/curator/internal/entities"
)

// entityMetadata is the metadata document attached to migrated
// entities. migration_info carries the legacy restaurant ID, the join
// key the concept transform depends on.
type entityMetadata struct {
	MigrationInfo *migrationInfo  `json:"migration_info,omitempty"`
	GooglePlaces  json.RawMessage `json:"google_places,omitempty"`
	Michelin      json.RawMessage `json:"michelin,omitempty"`
}

type migrationInfo struct {
	LegacyID   uint      `json:"legacy_id"`
	Source     string    `json:"source"`
	MigratedAt time.Time `json:"migrated_at"`
}

// entityPayload is the structured payload synthesized from the flat
// legacy restaurant columns.
type entityPayload struct {
	Address addressInfo `json:"address"`
	Contact contactInfo `json:"contact"`
}

type addressInfo struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

type contactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

func curatorIDForLegacy(legacyID uint) string {
	return fmt.Sprintf("curator_%d", legacyID)
}

func curationIDForLegacy(legacyID uint) string {
	return fmt.Sprintf("curation_legacy_%d", legacyID)
}

// migrateCurators copies legacy curators with deterministic derived
// IDs. Existing derived IDs are skipped so a re-run after a partial
// failure never duplicates.
func (e *Engine) migrateCurators(ctx context.Context, store *legacy.Store) error {
	if !store.HasTable("curators") {
		log.Printf("Migration: legacy database has no curators table, skipping")
		return nil
	}

	legacyCurators, err := store.Curators()
	if err != nil {
		return fmt.Errorf("failed to read legacy curators: %w", err)
	}

	for i, lc := range legacyCurators {
		if err := ctx.Err(); err != nil {
			return err
		}

		curatorID := curatorIDForLegacy(lc.ID)
		if _, err := e.curators.GetByCuratorID(curatorID); err == nil {
			e.recordMigrated()
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.recordError(fmt.Sprintf("curator %d", lc.ID), err)
			continue
		}

		name := lc.Name
		if name == "" {
			name = "Unknown Curator"
		}
		email := lc.Email
		if email == "" {
			email = fmt.Sprintf("%s@unknown.local", curatorID)
		}

		curator := &entities.Curator{
			CuratorID: curatorID,
			Name:      name,
			Email:     email,
			Status:    entities.CuratorStatusActive,
		}
		if err := e.curators.Create(curator); err != nil {
			e.recordError(fmt.Sprintf("curator %d", lc.ID), err)
			continue
		}
		e.recordMigrated()

		if (i+1)%progressEvery == 0 {
			e.progress("curators", i+1, len(legacyCurators))
		}
	}

	return nil
}

// migrateRestaurants transforms legacy restaurants into entities,
// deduplicating by exact case-sensitive (name, type). It returns the
// legacy-ID index the concept transform joins on, seeded from any
// entities migrated by an earlier partial run.
func (e *Engine) migrateRestaurants(ctx context.Context, store *legacy.Store) (map[uint]string, error) {
	index, err := e.loadMigratedIndex()
	if err != nil {
		return nil, err
	}

	restaurants, err := store.Restaurants()
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy restaurants: %w", err)
	}

	now := time.Now().UTC()
	for i, lr := range restaurants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, done := index[lr.ID]; done {
			e.recordMigrated()
			continue
		}

		existing, err := e.entities.FindByNameAndType(lr.Name, "restaurant")
		if err == nil {
			// Same name and type already captured: reuse its global
			// ID rather than creating a duplicate entity.
			index[lr.ID] = existing.EntityID
			e.recordMigrated()
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.recordError(fmt.Sprintf("restaurant %d (%s)", lr.ID, lr.Name), err)
			continue
		}

		metadata := entityMetadata{
			MigrationInfo: &migrationInfo{
				LegacyID:   lr.ID,
				Source:     store.Path(),
				MigratedAt: now,
			},
			GooglePlaces: rawOrNil(lr.GooglePlaces),
			Michelin:     rawOrNil(lr.Michelin),
		}
		payload := entityPayload{
			Address: addressInfo{Street: lr.Address, City: lr.City, Country: lr.Country},
			Contact: contactInfo{Phone: lr.Phone, Website: lr.Website},
		}

		entity := &entities.Entity{
			EntityID:  "entity_" + uuid.NewString(),
			Type:      "restaurant",
			Name:      lr.Name,
			Status:    entities.EntityStatusActive,
			CreatedBy: curatorIDForLegacy(lr.CuratorID),
			Payload:   mustJSON(payload),
			Metadata:  mustJSON(metadata),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.entities.Create(nil, entity); err != nil {
			e.recordError(fmt.Sprintf("restaurant %d (%s)", lr.ID, lr.Name), err)
			continue
		}
		index[lr.ID] = entity.EntityID
		e.recordMigrated()

		if (i+1)%progressEvery == 0 {
			e.progress("restaurants", i+1, len(restaurants))
		}
	}

	return index, nil
}

// migrateConcepts transforms legacy concepts into curations. A concept
// whose parent restaurant never migrated is skipped with a warning; a
// parent is never invented.
func (e *Engine) migrateConcepts(ctx context.Context, store *legacy.Store, index map[uint]string) error {
	if !store.HasTable("concepts") {
		log.Printf("Migration: legacy database has no concepts table, skipping")
		return nil
	}

	concepts, err := store.Concepts()
	if err != nil {
		return fmt.Errorf("failed to read legacy concepts: %w", err)
	}

	now := time.Now().UTC()
	for i, lc := range concepts {
		if err := ctx.Err(); err != nil {
			return err
		}

		entityID, ok := index[lc.RestaurantID]
		if !ok {
			log.Printf("Migration: WARNING - concept %d references unknown restaurant %d, skipping", lc.ID, lc.RestaurantID)
			e.recordError(fmt.Sprintf("concept %d", lc.ID), fmt.Errorf("parent restaurant %d not migrated", lc.RestaurantID))
			continue
		}

		curationID := curationIDForLegacy(lc.ID)
		if _, err := e.curations.GetByCurationID(curationID); err == nil {
			e.recordMigrated()
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.recordError(fmt.Sprintf("concept %d", lc.ID), err)
			continue
		}

		curation := &entities.Curation{
			CurationID: curationID,
			EntityID:   entityID,
			CuratorID:  curatorIDForLegacy(lc.CuratorID),
			Category:   lc.Category,
			Concept:    lc.Concept,
			Notes:      lc.Notes,
			Tags:       lc.Tags,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := e.curations.Create(nil, curation); err != nil {
			e.recordError(fmt.Sprintf("concept %d", lc.ID), err)
			continue
		}
		e.recordMigrated()

		if (i+1)%progressEvery == 0 {
			e.progress("concepts", i+1, len(concepts))
		}
	}

	return nil
}

// loadMigratedIndex rebuilds the legacy-ID index from entities already
// carrying migration metadata, so a retried migration resumes instead
// of duplicating.
func (e *Engine) loadMigratedIndex() (map[uint]string, error) {
	index := make(map[uint]string)

	migrated, err := e.entities.ListMigrated()
	if err != nil {
		return nil, fmt.Errorf("failed to list migrated entities: %w", err)
	}
	for _, entity := range migrated {
		var meta entityMetadata
		if err := json.Unmarshal([]byte(entity.Metadata), &meta); err != nil {
			continue
		}
		if meta.MigrationInfo != nil {
			index[meta.MigrationInfo.LegacyID] = entity.EntityID
		}
	}
	return index, nil
}

func rawOrNil(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return nil
	}
	return json.RawMessage(s)
}

func mustJSON(v any) string {
	body, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(body)
}
