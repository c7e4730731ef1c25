package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/pkg/auth"
	"github.com/sparklean/service-booking/internal/pkg/middleware"
	"github.com/sparklean/service-booking/internal/pkg/response"
)

// PaymentHandler handles HTTP requests for checkout.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers payment routes.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware(jwtManager))
	{
		payments.POST("/initiate", middleware.RequireRole(auth.RoleCustomer), h.InitiateCheckout)
		payments.GET("/verify/:reference", h.VerifyPayment)
		payments.GET("/:id", h.GetPayment)
		payments.GET("/booking/:bookingId", h.GetBookingPayment)
	}
}

// InitiateCheckout handles POST /api/v1/payments/initiate
func (h *PaymentHandler) InitiateCheckout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	email, _ := middleware.GetUserEmail(c)

	var req application.InitiateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.service.InitiateCheckout(c.Request.Context(), userID, email, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// VerifyPayment handles GET /api/v1/payments/verify/:reference. The
// frontend calls it after the gateway redirects back.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	dto, err := h.service.VerifyPayment(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	role, _ := middleware.GetUserRole(c)
	dto, err := h.service.GetPayment(c.Request.Context(), userID, role == auth.RoleAdmin, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// GetBookingPayment handles GET /api/v1/payments/booking/:bookingId
func (h *PaymentHandler) GetBookingPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	role, _ := middleware.GetUserRole(c)
	dto, err := h.service.GetBookingPayment(c.Request.Context(), userID, role == auth.RoleAdmin, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
