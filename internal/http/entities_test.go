package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/curator/internal/capture"
	"github.com/fieldkit/curator/internal/database"
	curationdb "github.com/fieldkit/curator/internal/database/curations"
	entitydb "github.com/fieldkit/curator/internal/database/entities"
	"github.com/fieldkit/curator/internal/database/syncqueue"
	"github.com/fieldkit/curator/internal/entities"
)

func setupCaptureRouter(t *testing.T) (*gin.Engine, *syncqueue.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "capture.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	entityRepo := entitydb.NewRepository(db.DB)
	curationRepo := curationdb.NewRepository(db.DB)
	queue := syncqueue.NewRepository(db.DB)
	captureService := capture.NewService(db, entityRepo, curationRepo, queue, nil, nil)

	router := NewRouter(RouterConfig{
		Database:       db,
		CaptureService: captureService,
		EntityReader:   entityRepo,
		CurationReader: curationRepo,
		QueueReader:    queue,
		Version:        "test",
	})
	return router, queue
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestEntitiesController_Create(t *testing.T) {
	t.Run("creates entity and queues upload", func(t *testing.T) {
		router, queue := setupCaptureRouter(t)

		w := postJSON(t, router, "/api/entities", capture.EntityInput{
			Type:      "restaurant",
			Name:      "Noma",
			CreatedBy: "curator_1",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var created entities.Entity
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.EntityID)
		assert.Equal(t, "Noma", created.Name)

		pending, err := queue.CountPending()
		require.NoError(t, err)
		assert.Equal(t, int64(1), pending)
	})

	t.Run("rejects entity without a name", func(t *testing.T) {
		router, queue := setupCaptureRouter(t)

		w := postJSON(t, router, "/api/entities", capture.EntityInput{Type: "restaurant"})

		assert.Equal(t, http.StatusBadRequest, w.Code)

		pending, err := queue.CountPending()
		require.NoError(t, err)
		assert.Zero(t, pending)
	})
}

func TestEntitiesController_Get(t *testing.T) {
	t.Run("returns entity with its curations", func(t *testing.T) {
		router, _ := setupCaptureRouter(t)

		w := postJSON(t, router, "/api/entities", capture.EntityInput{Type: "restaurant", Name: "Noma"})
		require.Equal(t, http.StatusCreated, w.Code)

		var created entities.Entity
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		w = postJSON(t, router, "/api/curations", capture.CurationInput{
			EntityID: created.EntityID,
			Category: "cuisine",
			Concept:  "nordic",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/entities/"+created.EntityID, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Entity    entities.Entity     `json:"entity"`
			Curations []entities.Curation `json:"curations"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, created.EntityID, response.Entity.EntityID)
		assert.Len(t, response.Curations, 1)
	})

	t.Run("returns 404 for unknown entity", func(t *testing.T) {
		router, _ := setupCaptureRouter(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/entities/entity_missing", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCurationsController_Create(t *testing.T) {
	t.Run("rejects curation for unknown entity", func(t *testing.T) {
		router, queue := setupCaptureRouter(t)

		w := postJSON(t, router, "/api/curations", capture.CurationInput{
			EntityID: "entity_missing",
			Category: "cuisine",
			Concept:  "nordic",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)

		pending, err := queue.CountPending()
		require.NoError(t, err)
		assert.Zero(t, pending)
	})
}

func TestEntitiesController_List(t *testing.T) {
	router, _ := setupCaptureRouter(t)

	for _, name := range []string{"Noma", "Geranium", "Alchemist"} {
		w := postJSON(t, router, "/api/entities", capture.EntityInput{Type: "restaurant", Name: name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/entities?limit=2", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(3), response.Total)
	assert.True(t, response.HasMore)
}

func TestEntitiesController_Delete(t *testing.T) {
	router, queue := setupCaptureRouter(t)

	w := postJSON(t, router, "/api/entities", capture.EntityInput{Type: "restaurant", Name: "Noma"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created entities.Entity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/entities/"+created.EntityID, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// create + delete both queued
	pending, err := queue.CountPending()
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
}
