package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/pkg/auth"
	"github.com/sparklean/service-booking/internal/pkg/middleware"
	"github.com/sparklean/service-booking/internal/pkg/response"
)

// BookingHandler handles HTTP requests for the booking wizard.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers customer booking routes.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", middleware.RequireRole(auth.RoleCustomer), h.StartBooking)
		bookings.GET("/mine", middleware.RequireRole(auth.RoleCustomer), h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id/service", middleware.RequireRole(auth.RoleCustomer), h.ChangeService)
		bookings.PUT("/:id/property", middleware.RequireRole(auth.RoleCustomer), h.SetProperty)
		bookings.PUT("/:id/schedule", middleware.RequireRole(auth.RoleCustomer), h.SetSchedule)
		bookings.PUT("/:id/cleaner", middleware.RequireRole(auth.RoleCustomer), h.AssignCleaner)
		bookings.POST("/:id/promo", middleware.RequireRole(auth.RoleCustomer), h.ApplyPromo)
		bookings.DELETE("/:id/promo", middleware.RequireRole(auth.RoleCustomer), h.RemovePromo)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// StartBooking handles POST /api/v1/bookings
func (h *BookingHandler) StartBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.StartBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.StartBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// ListMyBookings handles GET /api/v1/bookings/mine
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	page, limit := pagination(c)

	dtos, total, err := h.service.ListMyBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	role, _ := middleware.GetUserRole(c)
	dto, err := h.service.GetBooking(c.Request.Context(), userID, role == auth.RoleAdmin, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ChangeService handles PUT /api/v1/bookings/:id/service
func (h *BookingHandler) ChangeService(c *gin.Context) {
	userID, id, ok := h.authAndID(c)
	if !ok {
		return
	}

	var req application.ChangeServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ChangeService(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// SetProperty handles PUT /api/v1/bookings/:id/property
func (h *BookingHandler) SetProperty(c *gin.Context) {
	userID, id, ok := h.authAndID(c)
	if !ok {
		return
	}

	var req application.SetPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.SetProperty(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// SetSchedule handles PUT /api/v1/bookings/:id/schedule
func (h *BookingHandler) SetSchedule(c *gin.Context) {
	userID, id, ok := h.authAndID(c)
	if !ok {
		return
	}

	var req application.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.SetSchedule(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// AssignCleaner handles PUT /api/v1/bookings/:id/cleaner
func (h *BookingHandler) AssignCleaner(c *gin.Context) {
	userID, id, ok := h.authAndID(c)
	if !ok {
		return
	}

	var req struct {
		CleanerID string `json:"cleaner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cleanerID, err := uuid.Parse(req.CleanerID)
	if err != nil {
		response.BadRequest(c, "invalid cleaner ID")
		return
	}

	dto, err := h.service.AssignCleaner(c.Request.Context(), userID, id, cleanerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ApplyPromo handles POST /api/v1/bookings/:id/promo
func (h *BookingHandler) ApplyPromo(c *gin.Context) {
	userID, id, ok := h.authAndID(c)
	if !ok {
		return
	}
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		response.BadRequest(c, "missing "+middleware.HeaderSessionID+" header")
		return
	}

	var req application.ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ApplyPromo(c.Request.Context(), userID, sessionID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// RemovePromo handles DELETE /api/v1/bookings/:id/promo
func (h *BookingHandler) RemovePromo(c *gin.Context) {
	userID, id, ok := h.authAndID(c)
	if !ok {
		return
	}

	dto, err := h.service.RemovePromo(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, id, ok := h.authAndID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	role, _ := middleware.GetUserRole(c)
	if err := h.service.CancelBooking(c.Request.Context(), userID, role == auth.RoleAdmin, id, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"cancelled": true})
}

func (h *BookingHandler) authAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
