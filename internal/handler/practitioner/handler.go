package practitioner

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/handler"
	practitionerService "github.com/jwalitptl/scheduling-api/internal/service/practitioner"
)

type Handler struct {
	service *practitionerService.Service
}

func NewHandler(service *practitionerService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	practitioners := r.Group("/practitioners")
	{
		practitioners.POST("", h.CreatePractitioner)
		practitioners.GET("", h.ListPractitioners)
		practitioners.GET("/:id", h.GetPractitioner)
	}
}

func (h *Handler) CreatePractitioner(c *gin.Context) {
	var req practitionerService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	practitioner, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(practitioner))
}

func (h *Handler) GetPractitioner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid practitioner ID"))
		return
	}

	practitioner, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(practitioner))
}

func (h *Handler) ListPractitioners(c *gin.Context) {
	practitioners, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(practitioners))
}
