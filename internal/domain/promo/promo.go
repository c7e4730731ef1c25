package promo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/domain/pricing"
)

// PromoCode defines a redeemable discount code scoped to one cleaning service.
type PromoCode struct {
	id         uuid.UUID
	code       string
	kind       pricing.DiscountKind
	value      float64
	appliesTo  string
	validFrom  time.Time
	validUntil time.Time
	createdBy  uuid.UUID
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPromoCode creates a promo code definition. Codes are stored exactly as
// given; matching at claim time is case-sensitive.
func NewPromoCode(code string, kind pricing.DiscountKind, value float64, appliesTo string, validFrom, validUntil time.Time, createdBy uuid.UUID) (*PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("promo code is required")
	}
	if kind != pricing.DiscountPercent && kind != pricing.DiscountFixed {
		return nil, fmt.Errorf("invalid discount kind: %s", kind)
	}
	if value <= 0 {
		return nil, fmt.Errorf("discount value must be positive")
	}
	if kind == pricing.DiscountPercent && value > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}
	if appliesTo == "" {
		return nil, fmt.Errorf("promo must apply to a service")
	}
	if validUntil.Before(validFrom) {
		return nil, fmt.Errorf("valid_until must be after valid_from")
	}

	now := time.Now().UTC()
	return &PromoCode{
		id:         uuid.New(),
		code:       code,
		kind:       kind,
		value:      value,
		appliesTo:  appliesTo,
		validFrom:  validFrom,
		validUntil: validUntil,
		createdBy:  createdBy,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructCode rebuilds a PromoCode from persistence.
func ReconstructCode(id uuid.UUID, code string, kind pricing.DiscountKind, value float64, appliesTo string, validFrom, validUntil time.Time, createdBy uuid.UUID, createdAt, updatedAt time.Time) *PromoCode {
	return &PromoCode{
		id: id, code: code, kind: kind, value: value, appliesTo: appliesTo,
		validFrom: validFrom, validUntil: validUntil,
		createdBy: createdBy, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// IsActive reports whether the code can currently be claimed.
func (p *PromoCode) IsActive() bool {
	now := time.Now().UTC()
	return !now.Before(p.validFrom) && now.Before(p.validUntil)
}

// Discount returns the pricing-engine descriptor for this code.
func (p *PromoCode) Discount() pricing.Discount {
	return pricing.Discount{Kind: p.kind, Value: p.value}
}

// Getters.
func (p *PromoCode) ID() uuid.UUID              { return p.id }
func (p *PromoCode) Code() string               { return p.code }
func (p *PromoCode) Kind() pricing.DiscountKind { return p.kind }
func (p *PromoCode) Value() float64             { return p.value }
func (p *PromoCode) AppliesTo() string          { return p.appliesTo }
func (p *PromoCode) ValidFrom() time.Time       { return p.validFrom }
func (p *PromoCode) ValidUntil() time.Time      { return p.validUntil }
func (p *PromoCode) CreatedBy() uuid.UUID       { return p.createdBy }
func (p *PromoCode) CreatedAt() time.Time       { return p.createdAt }
func (p *PromoCode) UpdatedAt() time.Time       { return p.updatedAt }
