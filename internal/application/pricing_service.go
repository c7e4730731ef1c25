package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	catalogDomain "github.com/sparklean/service-booking/internal/domain/catalog"
	"github.com/sparklean/service-booking/internal/domain/pricing"
	promoDomain "github.com/sparklean/service-booking/internal/domain/promo"
	"github.com/sparklean/service-booking/internal/domain/shared"
)

// QuoteRequest holds one booking configuration to price. PromoCode is
// honored only when the session holds an active claim for it.
type QuoteRequest struct {
	ServiceSlug   string   `json:"service_slug" binding:"required"`
	BedroomCount  int      `json:"bedroom_count"`
	BathroomCount int      `json:"bathroom_count"`
	Extras        []string `json:"extras"`
	Frequency     string   `json:"frequency"`
	PromoCode     string   `json:"promo_code"`
}

// QuoteDTO is the itemized price breakdown returned to the client.
type QuoteDTO struct {
	ServiceSlug       string  `json:"service_slug"`
	Subtotal          float64 `json:"subtotal"`
	FrequencyDiscount float64 `json:"frequency_discount"`
	PromoDiscount     float64 `json:"promo_discount"`
	ServiceFee        float64 `json:"service_fee"`
	Total             float64 `json:"total"`
}

// PricingService computes quotes from catalog rates and claimed promos.
type PricingService struct {
	catalog catalogDomain.Repository
	promos  promoDomain.Repository
	feeRate float64
	logger  *zap.Logger
}

// NewPricingService creates a new PricingService.
func NewPricingService(catalog catalogDomain.Repository, promos promoDomain.Repository, feeRate float64, logger *zap.Logger) *PricingService {
	return &PricingService{catalog: catalog, promos: promos, feeRate: feeRate, logger: logger}
}

// Quote prices one configuration. A promo code without a matching active
// claim for this session, or one claimed for a different service, prices
// as if no promo was given.
func (s *PricingService) Quote(ctx context.Context, sessionID string, req QuoteRequest) (*QuoteDTO, error) {
	svc, err := s.catalog.FindBySlug(ctx, req.ServiceSlug)
	if err != nil {
		return nil, err
	}

	var discount *pricing.Discount
	if req.PromoCode != "" && sessionID != "" {
		d, err := s.claimedDiscount(ctx, req.PromoCode, sessionID, svc.Slug())
		if err != nil {
			return nil, err
		}
		discount = d
	}

	result := pricing.Compute(pricing.Input{
		BasePrice:     svc.BasePrice(),
		BedroomCount:  req.BedroomCount,
		BathroomCount: req.BathroomCount,
		ExtrasTotal:   svc.ExtrasTotal(req.Extras),
		Frequency:     pricing.Frequency(req.Frequency),
		Promo:         discount,
		Rates:         svc.Rates(s.feeRate),
	})

	return &QuoteDTO{
		ServiceSlug:       svc.Slug(),
		Subtotal:          result.Subtotal,
		FrequencyDiscount: result.FrequencyDiscount,
		PromoDiscount:     result.PromoDiscount,
		ServiceFee:        result.ServiceFee,
		Total:             result.Total,
	}, nil
}

// claimedDiscount resolves the discount for a code the session has claimed.
// Missing or mismatched claims yield a nil discount, never an error.
func (s *PricingService) claimedDiscount(ctx context.Context, code, sessionID, serviceSlug string) (*pricing.Discount, error) {
	claim, err := s.promos.FindClaim(ctx, code, sessionID, promoDomain.StatusClaimed)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !claim.ValidForService(serviceSlug) {
		return nil, nil
	}

	promoCode, err := s.promos.FindCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	d := promoCode.Discount()
	return &d, nil
}
