package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/pkg/auth"
	"github.com/sparklean/service-booking/internal/pkg/middleware"
	"github.com/sparklean/service-booking/internal/pkg/response"
)

// PromoHandler handles HTTP requests for promo codes and claims.
type PromoHandler struct {
	service *application.PromoService
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(service *application.PromoService) *PromoHandler {
	return &PromoHandler{service: service}
}

// RegisterRoutes registers promo routes. Browsing and validation are
// public; claiming requires an authenticated customer.
func (h *PromoHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	promos := r.Group("/promos")
	{
		promos.GET("/active", h.ActivePromos)
		promos.POST("/validate", h.ValidatePromo)
	}

	claims := r.Group("/promos")
	claims.Use(middleware.AuthMiddleware(jwtManager))
	{
		claims.POST("/claim", middleware.RequireRole(auth.RoleCustomer), h.ClaimPromo)
		claims.GET("/claims/:code", h.GetClaim)
	}
}

// ActivePromos handles GET /api/v1/promos/active
func (h *PromoHandler) ActivePromos(c *gin.Context) {
	dtos, err := h.service.ActivePromos(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dtos)
}

// ValidatePromo handles POST /api/v1/promos/validate
func (h *PromoHandler) ValidatePromo(c *gin.Context) {
	var req struct {
		Code        string `json:"code" binding:"required"`
		ServiceSlug string `json:"service_slug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ValidatePromo(c.Request.Context(), req.Code, req.ServiceSlug)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ClaimPromo handles POST /api/v1/promos/claim
func (h *PromoHandler) ClaimPromo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		response.BadRequest(c, "missing "+middleware.HeaderSessionID+" header")
		return
	}

	var req application.ClaimPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ClaimPromo(c.Request.Context(), userID, sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if dto.AlreadyClaimed {
		response.Success(c, dto)
		return
	}
	response.Created(c, dto)
}

// GetClaim handles GET /api/v1/promos/claims/:code
func (h *PromoHandler) GetClaim(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		response.BadRequest(c, "missing "+middleware.HeaderSessionID+" header")
		return
	}

	dto, err := h.service.GetClaim(c.Request.Context(), c.Param("code"), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
