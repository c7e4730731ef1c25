package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/pkg/auth"
	"github.com/sparklean/service-booking/internal/pkg/middleware"
	"github.com/sparklean/service-booking/internal/pkg/response"
)

// CleanerHandler handles HTTP requests for the cleaner job views.
type CleanerHandler struct {
	service *application.BookingService
}

// NewCleanerHandler creates a new CleanerHandler.
func NewCleanerHandler(service *application.BookingService) *CleanerHandler {
	return &CleanerHandler{service: service}
}

// RegisterRoutes registers cleaner routes.
func (h *CleanerHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	jobs := r.Group("/cleaner")
	jobs.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleCleaner))
	{
		jobs.GET("/jobs", h.ListJobs)
		jobs.POST("/jobs/:id/complete", h.CompleteJob)
	}
}

// ListJobs handles GET /api/v1/cleaner/jobs
func (h *CleanerHandler) ListJobs(c *gin.Context) {
	cleanerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	page, limit := pagination(c)

	dtos, total, err := h.service.ListCleanerJobs(c.Request.Context(), cleanerID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// CompleteJob handles POST /api/v1/cleaner/jobs/:id/complete
func (h *CleanerHandler) CompleteJob(c *gin.Context) {
	cleanerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.service.CompleteBooking(c.Request.Context(), cleanerID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
