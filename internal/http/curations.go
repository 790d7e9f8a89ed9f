package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fieldkit/curator/internal/capture"
)

type CurationsController struct {
	capture   *capture.Service
	curations CurationReader
}

func NewCurationsController(captureService *capture.Service, curationReader CurationReader) *CurationsController {
	return &CurationsController{
		capture:   captureService,
		curations: curationReader,
	}
}

// ListCurations returns a paginated list of curations.
// GET /api/curations
func (controller *CurationsController) ListCurations(c *gin.Context) {
	if entityID := c.Query("entity_id"); entityID != "" {
		list, err := controller.curations.ListByEntity(entityID)
		if err != nil {
			respondInternalError(c, err, "list curations by entity")
			return
		}
		c.JSON(http.StatusOK, gin.H{"curations": list, "count": len(list)})
		return
	}

	limit, offset := parsePagination(c, 50, 200)

	list, err := controller.curations.List(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list curations")
		return
	}
	total, err := controller.curations.Count()
	if err != nil {
		respondInternalError(c, err, "count curations")
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

// GetCuration returns a single curation.
// GET /api/curations/:id
func (controller *CurationsController) GetCuration(c *gin.Context) {
	curation, err := controller.curations.GetByCurationID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "curation")
			return
		}
		respondInternalError(c, err, "get curation")
		return
	}

	c.JSON(http.StatusOK, curation)
}

// CreateCuration attaches a concept annotation to an entity.
// POST /api/curations
func (controller *CurationsController) CreateCuration(c *gin.Context) {
	var input capture.CurationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	curation, err := controller.capture.CreateCuration(input)
	if err != nil {
		if errors.Is(err, capture.ErrUnknownEntity) {
			respondBadRequest(c, err.Error())
			return
		}
		respondBadRequest(c, err.Error())
		return
	}

	respondCreated(c, curation)
}

// UpdateCuration applies field changes to a curation and queues the update.
// PATCH /api/curations/:id
func (controller *CurationsController) UpdateCuration(c *gin.Context) {
	var input capture.CurationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	curation, err := controller.capture.UpdateCuration(c.Param("id"), input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "curation")
			return
		}
		respondInternalError(c, err, "update curation")
		return
	}

	c.JSON(http.StatusOK, curation)
}

// DeleteCuration removes a curation locally and queues the deletion.
// DELETE /api/curations/:id
func (controller *CurationsController) DeleteCuration(c *gin.Context) {
	if err := controller.capture.DeleteCuration(c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "curation")
			return
		}
		respondInternalError(c, err, "delete curation")
		return
	}

	respondSuccess(c, "curation deleted")
}
