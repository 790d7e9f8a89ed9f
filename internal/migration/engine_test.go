package migration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldkit/curator/internal/database"
	curationdb "github.com/fieldkit/curator/internal/database/curations"
	curatordb "github.com/fieldkit/curator/internal/database/curators"
	entitydb "github.com/fieldkit/curator/internal/database/entities"
	settingsdb "github.com/fieldkit/curator/internal/database/settings"
	"github.com/fieldkit/curator/internal/entities"
	"github.com/fieldkit/curator/internal/guard"
	"github.com/fieldkit/curator/internal/settingsstore"
)

type testHarness struct {
	entities  *entitydb.Repository
	curations *curationdb.Repository
	curators  *curatordb.Repository
	settings  *settingsstore.SettingsStore
	gate      *guard.Gate
}

func setupTestHarness(t *testing.T) *testHarness {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "current.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &testHarness{
		entities:  entitydb.NewRepository(db.DB),
		curations: curationdb.NewRepository(db.DB),
		curators:  curatordb.NewRepository(db.DB),
		settings:  settingsstore.New(settingsdb.NewRepository(db.DB)),
		gate:      guard.NewGate(),
	}
}

func (h *testHarness) newEngine(legacyPaths []string) *Engine {
	return NewEngine(legacyPaths, h.entities, h.curations, h.curators, h.settings, h.gate, nil, nil)
}

// writeLegacyDB creates a legacy-schema fixture and returns its path.
func writeLegacyDB(t *testing.T, curators []entities.LegacyCurator, restaurants []entities.LegacyRestaurant, concepts []entities.LegacyConcept) string {
	path := filepath.Join(t.TempDir(), "legacy.db")

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.LegacyCurator{}, &entities.LegacyRestaurant{}, &entities.LegacyConcept{})
	require.NoError(t, err)

	for i := range curators {
		require.NoError(t, db.Create(&curators[i]).Error)
	}
	for i := range restaurants {
		require.NoError(t, db.Create(&restaurants[i]).Error)
	}
	for i := range concepts {
		require.NoError(t, db.Create(&concepts[i]).Error)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	return path
}

func standardFixture(t *testing.T) string {
	return writeLegacyDB(t,
		[]entities.LegacyCurator{
			{Name: "Alex", Email: "alex@example.com"},
			{Name: "", Email: ""},
		},
		[]entities.LegacyRestaurant{
			{Name: "Noma", Address: "Refshalevej 96", City: "Copenhagen", Country: "Denmark", Phone: "+45 3296 3297", CuratorID: 1, Michelin: `{"stars":3}`},
			{Name: "Alchemist", City: "Copenhagen", CuratorID: 2},
		},
		[]entities.LegacyConcept{
			{RestaurantID: 1, CuratorID: 1, Category: "cuisine", Concept: "new nordic", Notes: "fermentation lab", Tags: `["tasting menu"]`},
			{RestaurantID: 2, CuratorID: 2, Category: "experience", Concept: "immersive dining"},
		},
	)
}

func TestRun_TransformsLegacyData(t *testing.T) {
	h := setupTestHarness(t)
	engine := h.newEngine([]string{standardFixture(t)})

	require.NoError(t, engine.Run(context.Background()))

	status := engine.Status()
	assert.False(t, status.IsRunning)
	assert.True(t, status.HasRun)
	assert.Equal(t, 6, status.TotalSource)
	assert.Equal(t, 6, status.MigratedSource)
	assert.Empty(t, status.Errors)

	assert.True(t, h.settings.IsMigrationComplete())

	t.Run("curators get derived ids", func(t *testing.T) {
		curator, err := h.curators.GetByCuratorID("curator_1")
		require.NoError(t, err)
		assert.Equal(t, "Alex", curator.Name)

		// Blank legacy fields receive placeholders.
		unknown, err := h.curators.GetByCuratorID("curator_2")
		require.NoError(t, err)
		assert.Equal(t, "Unknown Curator", unknown.Name)
		assert.Equal(t, "curator_2@unknown.local", unknown.Email)
	})

	t.Run("restaurants become entities", func(t *testing.T) {
		entity, err := h.entities.FindByNameAndType("Noma", "restaurant")
		require.NoError(t, err)
		assert.Equal(t, "curator_1", entity.CreatedBy)
		assert.Equal(t, entities.EntityStatusActive, entity.Status)
		assert.Contains(t, entity.Payload, "Refshalevej 96")
		assert.Contains(t, entity.Payload, "+45 3296 3297")
		assert.Contains(t, entity.Metadata, "migration_info")
		assert.Contains(t, entity.Metadata, `"stars":3`)
	})

	t.Run("concepts become curations", func(t *testing.T) {
		curation, err := h.curations.GetByCurationID("curation_legacy_1")
		require.NoError(t, err)

		parent, err := h.entities.FindByNameAndType("Noma", "restaurant")
		require.NoError(t, err)
		assert.Equal(t, parent.EntityID, curation.EntityID)
		assert.Equal(t, "curator_1", curation.CuratorID)
		assert.Equal(t, "new nordic", curation.Concept)
		assert.Equal(t, "fermentation lab", curation.Notes)
		assert.Contains(t, curation.Tags, "tasting menu")
	})
}

func TestRun_Idempotent(t *testing.T) {
	h := setupTestHarness(t)
	engine := h.newEngine([]string{standardFixture(t)})

	require.NoError(t, engine.Run(context.Background()))

	before, err := h.entities.Count()
	require.NoError(t, err)

	// The durable flag short-circuits the second run entirely.
	require.NoError(t, engine.Run(context.Background()))

	after, err := h.entities.Count()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	curatorCount, err := h.curators.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), curatorCount)
}

func TestRun_ResumesAfterClearedFlag(t *testing.T) {
	h := setupTestHarness(t)
	fixture := standardFixture(t)

	require.NoError(t, h.newEngine([]string{fixture}).Run(context.Background()))
	require.NoError(t, h.settings.ClearMigrationFlag())

	// A forced re-run finds every record already present and migrates
	// nothing new.
	require.NoError(t, h.newEngine([]string{fixture}).Run(context.Background()))

	entityCount, err := h.entities.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), entityCount)

	curationCount, err := h.curations.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), curationCount)
}

func TestRun_DedupsByNameAndType(t *testing.T) {
	h := setupTestHarness(t)

	// The entity was already captured by hand before migration ran.
	existing := &entities.Entity{
		EntityID: "entity_manual",
		Type:     "restaurant",
		Name:     "Noma",
		Status:   entities.EntityStatusActive,
	}
	require.NoError(t, h.entities.Create(nil, existing))

	fixture := writeLegacyDB(t,
		nil,
		[]entities.LegacyRestaurant{{Name: "Noma", City: "Copenhagen", CuratorID: 1}},
		[]entities.LegacyConcept{{RestaurantID: 1, Category: "cuisine", Concept: "new nordic"}},
	)

	require.NoError(t, h.newEngine([]string{fixture}).Run(context.Background()))

	count, err := h.entities.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "matching name and type must not duplicate")

	// The concept attaches to the pre-existing entity.
	curation, err := h.curations.GetByCurationID("curation_legacy_1")
	require.NoError(t, err)
	assert.Equal(t, "entity_manual", curation.EntityID)
}

func TestRun_SkipsOrphanConcepts(t *testing.T) {
	h := setupTestHarness(t)

	fixture := writeLegacyDB(t,
		nil,
		[]entities.LegacyRestaurant{{Name: "Noma", CuratorID: 1}},
		[]entities.LegacyConcept{
			{RestaurantID: 1, Category: "cuisine", Concept: "kept"},
			{RestaurantID: 99, Category: "cuisine", Concept: "orphan"},
		},
	)

	require.NoError(t, h.newEngine([]string{fixture}).Run(context.Background()))

	count, err := h.curations.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "orphan concepts are skipped, never given an invented parent")
}

func TestRun_OrphanConceptRecordedAsError(t *testing.T) {
	h := setupTestHarness(t)

	fixture := writeLegacyDB(t,
		nil,
		[]entities.LegacyRestaurant{{Name: "Noma", CuratorID: 1}},
		[]entities.LegacyConcept{{RestaurantID: 99, Category: "cuisine", Concept: "orphan"}},
	)

	engine := h.newEngine([]string{fixture})
	require.NoError(t, engine.Run(context.Background()))

	status := engine.Status()
	assert.Equal(t, 1, status.MigratedSource)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], "restaurant 99")

	// Record-level failures still complete the migration.
	assert.True(t, h.settings.IsMigrationComplete())
}

func TestRun_NoLegacyData(t *testing.T) {
	h := setupTestHarness(t)
	engine := h.newEngine([]string{filepath.Join(t.TempDir(), "nowhere.db")})

	require.NoError(t, engine.Run(context.Background()))

	assert.True(t, h.settings.IsMigrationComplete())
	info := h.settings.GetMigrationInfo()
	assert.Equal(t, "no legacy data", info.Reason)

	count, err := h.entities.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRun_StoreBusy(t *testing.T) {
	h := setupTestHarness(t)
	engine := h.newEngine([]string{standardFixture(t)})

	require.True(t, h.gate.TryAcquire("full_sync"))
	defer h.gate.Release()

	err := engine.Run(context.Background())
	assert.ErrorIs(t, err, ErrStoreBusy)
	assert.False(t, h.settings.IsMigrationComplete())
}

func TestRun_CancelledContext(t *testing.T) {
	h := setupTestHarness(t)
	engine := h.newEngine([]string{standardFixture(t)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.Run(ctx)
	require.Error(t, err)
	assert.False(t, h.settings.IsMigrationComplete(), "an aborted run must not set the completion flag")
	assert.False(t, h.gate.Holder() != "", "the gate must be released on abort")
}

func TestRun_ProgressCallback(t *testing.T) {
	h := setupTestHarness(t)

	restaurants := make([]entities.LegacyRestaurant, 25)
	for i := range restaurants {
		restaurants[i] = entities.LegacyRestaurant{Name: "Restaurant " + string(rune('A'+i)), CuratorID: 1}
	}
	fixture := writeLegacyDB(t, nil, restaurants, nil)

	var calls []int
	progress := func(kind string, processed, total int) {
		if kind == "restaurants" {
			calls = append(calls, processed)
		}
	}
	engine := NewEngine([]string{fixture}, h.entities, h.curations, h.curators, h.settings, h.gate, nil, progress)

	require.NoError(t, engine.Run(context.Background()))
	assert.Equal(t, []int{10, 20}, calls)
}
