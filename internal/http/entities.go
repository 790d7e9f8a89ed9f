package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/capture"
)

type EntitiesController struct {
	capture   *capture.Service
	entities  EntityReader
	curations CurationReader
}

func NewEntitiesController(captureService *capture.Service, entityReader EntityReader, curationReader CurationReader) *EntitiesController {
	return &EntitiesController{
		capture:   captureService,
		entities:  entityReader,
		curations: curationReader,
	}
}

// ListEntities returns a paginated list of captured entities.
// GET /api/entities
func (controller *EntitiesController) ListEntities(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	list, err := controller.entities.List(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list entities")
		return
	}
	total, err := controller.entities.Count()
	if err != nil {
		respondInternalError(c, err, "count entities")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    list,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(list)) < total,
	})
}

// GetEntity returns a single entity with its curations.
// GET /api/entities/:id
func (controller *EntitiesController) GetEntity(c *gin.Context) {
	entityID := c.Param("id")

	entity, err := controller.entities.GetByEntityID(entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "entity")
			return
		}
		respondInternalError(c, err, "get entity")
		return
	}

	curations, err := controller.curations.ListByEntity(entityID)
	if err != nil {
		respondInternalError(c, err, "list entity curations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entity": entity, "curations": curations})
}

// CreateEntity captures a new entity and queues its upload.
// POST /api/entities
func (controller *EntitiesController) CreateEntity(c *gin.Context) {
	var input capture.EntityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	entity, err := controller.capture.CreateEntity(input)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	respondCreated(c, entity)
}

// UpdateEntity applies field changes to an entity and queues the update.
// PATCH /api/entities/:id
func (controller *EntitiesController) UpdateEntity(c *gin.Context) {
	entityID := c.Param("id")

	var input capture.EntityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	entity, err := controller.capture.UpdateEntity(entityID, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "entity")
			return
		}
		respondInternalError(c, err, "update entity")
		return
	}

	c.JSON(http.StatusOK, entity)
}

// DeleteEntity removes an entity locally and queues the deletion.
// DELETE /api/entities/:id
func (controller *EntitiesController) DeleteEntity(c *gin.Context) {
	entityID := c.Param("id")

	if err := controller.capture.DeleteEntity(entityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "entity")
			return
		}
		respondInternalError(c, err, "delete entity")
		return
	}

	respondSuccess(c, "entity deleted")
}
