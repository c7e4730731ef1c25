package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/pkg/auth"
	"github.com/sparklean/service-booking/internal/pkg/middleware"
	"github.com/sparklean/service-booking/internal/pkg/response"
)

// AdminHandler handles HTTP requests for back-office operations.
type AdminHandler struct {
	catalog  *application.CatalogService
	promos   *application.PromoService
	bookings *application.BookingService
	payments *application.PaymentService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	catalog *application.CatalogService,
	promos *application.PromoService,
	bookings *application.BookingService,
	payments *application.PaymentService,
) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		promos:   promos,
		bookings: bookings,
		payments: payments,
	}
}

// RegisterRoutes registers all admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/services", h.CreateService)
		admin.DELETE("/services/:slug", h.DeactivateService)

		admin.POST("/promos", h.CreatePromo)
		admin.GET("/claims", h.ListClaims)
		admin.POST("/claims/:id/revoke", h.RevokeClaim)

		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/stats", h.BookingStats)

		admin.GET("/payments", h.ListPayments)
		admin.GET("/payments/stats", h.RevenueStats)
		admin.POST("/payments/:id/refund", h.RefundPayment)
	}
}

// CreateService handles POST /api/v1/admin/services
func (h *AdminHandler) CreateService(c *gin.Context) {
	var req application.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.catalog.CreateService(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// DeactivateService handles DELETE /api/v1/admin/services/:slug
func (h *AdminHandler) DeactivateService(c *gin.Context) {
	if err := h.catalog.DeactivateService(c.Request.Context(), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deactivated": true})
}

// CreatePromo handles POST /api/v1/admin/promos
func (h *AdminHandler) CreatePromo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.promos.CreatePromo(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// ListClaims handles GET /api/v1/admin/claims
func (h *AdminHandler) ListClaims(c *gin.Context) {
	page, limit := pagination(c)

	dtos, total, err := h.promos.ListClaims(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// RevokeClaim handles POST /api/v1/admin/claims/:id/revoke
func (h *AdminHandler) RevokeClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid claim ID")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.promos.RevokeClaim(c.Request.Context(), id, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"revoked": true})
}

// ListBookings handles GET /api/v1/admin/bookings
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := pagination(c)

	dtos, total, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/bookings/stats
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.BookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count_by_status": stats})
}

// ListPayments handles GET /api/v1/admin/payments
func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, limit := pagination(c)

	dtos, total, err := h.payments.ListPayments(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// RevenueStats handles GET /api/v1/admin/payments/stats
func (h *AdminHandler) RevenueStats(c *gin.Context) {
	stats, err := h.payments.RevenueStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// RefundPayment handles POST /api/v1/admin/payments/:id/refund
func (h *AdminHandler) RefundPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.payments.RefundPayment(c.Request.Context(), id, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"refunded": true})
}
