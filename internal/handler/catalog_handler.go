package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/pkg/response"
)

// CatalogHandler handles HTTP requests for the public service catalog.
type CatalogHandler struct {
	service *application.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the public catalog routes.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/services")
	{
		services.GET("", h.ListServices)
		services.GET("/:slug", h.GetService)
	}
}

// ListServices handles GET /api/v1/services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	dtos, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dtos)
}

// GetService handles GET /api/v1/services/:slug
func (h *CatalogHandler) GetService(c *gin.Context) {
	dto, err := h.service.GetService(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
