package availability

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/handler"
	availabilityService "github.com/jwalitptl/scheduling-api/internal/service/availability"
)

type Handler struct {
	generator *availabilityService.Generator
}

func NewHandler(generator *availabilityService.Generator) *Handler {
	return &Handler{generator: generator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/practitioners/:id/availability", h.ListAvailable)
}

// ListAvailable returns the offerable start times for one practitioner day,
// optionally restricted to an appointment category.
func (h *Handler) ListAvailable(c *gin.Context) {
	practitionerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid practitioner ID"))
		return
	}

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("date query parameter is required"))
		return
	}

	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
			return
		}
		categoryID = &id
	}

	day, err := h.generator.ListAvailable(c.Request.Context(), practitionerID, date, categoryID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(day))
}
