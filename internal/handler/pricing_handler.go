package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/pkg/middleware"
	"github.com/sparklean/service-booking/internal/pkg/response"
)

// PricingHandler handles HTTP requests for quotes.
type PricingHandler struct {
	service *application.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(service *application.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// RegisterRoutes registers the public quote route.
func (h *PricingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/quotes", h.Quote)
}

// Quote handles POST /api/v1/quotes. Quoting is public: the wizard prices
// every change before the customer signs in. Promo codes only discount
// when the session header carries an active claim.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.Quote(c.Request.Context(), middleware.GetSessionID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
