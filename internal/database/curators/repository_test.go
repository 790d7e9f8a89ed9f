package curators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldkit/curator/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Curator{})
	require.NoError(t, err)

	return NewRepository(db)
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Create(&entities.Curator{
		CuratorID: "cur-1",
		Name:      "Alex Reyes",
		Email:     "alex@example.com",
		Status:    entities.CuratorStatusActive,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := repo.GetByCuratorID("cur-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex Reyes", got.Name)
	assert.Equal(t, entities.CuratorStatusActive, got.Status)

	_, err = repo.GetByCuratorID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreate_DuplicateCuratorID(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.Create(&entities.Curator{CuratorID: "cur-1", Name: "First"}))
	err := repo.Create(&entities.Curator{CuratorID: "cur-1", Name: "Second"})
	assert.Error(t, err)
}

func TestListAndCount(t *testing.T) {
	repo := setupTestRepo(t)

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(&entities.Curator{CuratorID: "cur-2", Name: "Later", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(&entities.Curator{CuratorID: "cur-1", Name: "Earlier", CreatedAt: base}))

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "cur-1", all[0].CuratorID, "oldest first")

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
