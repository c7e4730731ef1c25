package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparklean/service-booking/internal/domain/pricing"
	promoDomain "github.com/sparklean/service-booking/internal/domain/promo"
	"github.com/sparklean/service-booking/internal/domain/shared"
)

// PromoCodeModel is the GORM model for the promo_codes table.
type PromoCodeModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code       string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Kind       string    `gorm:"type:varchar(20);not null"`
	Value      float64   `gorm:"not null"`
	AppliesTo  string    `gorm:"type:varchar(100);not null"`
	ValidFrom  time.Time `gorm:"not null"`
	ValidUntil time.Time `gorm:"not null"`
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PromoCodeModel) TableName() string { return "promo_codes" }

// PromoClaimModel is the GORM model for the promo_claims table. The partial
// unique index is what enforces at most one claimed record per
// (code, session_id) pair; revoked rows stay behind as audit records and do
// not block a fresh claim.
type PromoClaimModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code         string    `gorm:"type:varchar(50);not null;index:idx_claims_code_session,unique,where:status = 'claimed'"`
	SessionID    string    `gorm:"type:varchar(100);not null;index:idx_claims_code_session,unique,where:status = 'claimed'"`
	ServiceSlug  string    `gorm:"type:varchar(100);not null"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Status       string    `gorm:"type:varchar(20);not null;default:'claimed'"`
	ExpiresAt    time.Time `gorm:"not null"`
	RevokeReason string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PromoClaimModel) TableName() string { return "promo_claims" }

// GormPromoRepository implements promo.Repository using GORM.
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository.
func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// SaveCode persists a new promo code definition.
func (r *GormPromoRepository) SaveCode(ctx context.Context, p *promoDomain.PromoCode) error {
	model := toPromoCodeModel(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindCode returns a promo code by its code string (case-sensitive).
func (r *GormPromoRepository) FindCode(ctx context.Context, code string) (*promoDomain.PromoCode, error) {
	var model PromoCodeModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PromoCode", code)
		}
		return nil, err
	}
	return toPromoCodeDomain(&model), nil
}

// ListActiveCodes returns promo codes within their validity window.
func (r *GormPromoRepository) ListActiveCodes(ctx context.Context) ([]*promoDomain.PromoCode, error) {
	var models []PromoCodeModel
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).
		Where("valid_from <= ? AND valid_until > ?", now, now).
		Find(&models).Error; err != nil {
		return nil, err
	}

	codes := make([]*promoDomain.PromoCode, len(models))
	for i, m := range models {
		codes[i] = toPromoCodeDomain(&m)
	}
	return codes, nil
}

// SaveClaim persists a new claim. A uniqueness-constraint rejection from a
// concurrent claim for the same (code, sessionID) maps to ErrDuplicateClaim.
func (r *GormPromoRepository) SaveClaim(ctx context.Context, c *promoDomain.Claim) error {
	model := toClaimModel(c)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return promoDomain.ErrDuplicateClaim
		}
		return err
	}
	return nil
}

// FindClaim returns the claim for (code, sessionID) in the given status.
func (r *GormPromoRepository) FindClaim(ctx context.Context, code, sessionID string, status promoDomain.ClaimStatus) (*promoDomain.Claim, error) {
	var model PromoClaimModel
	err := r.db.WithContext(ctx).
		Where("code = ? AND session_id = ? AND status = ?", code, sessionID, string(status)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PromoClaim", code)
		}
		return nil, err
	}
	return toClaimDomain(&model), nil
}

// FindClaimByID returns a claim by ID.
func (r *GormPromoRepository) FindClaimByID(ctx context.Context, id uuid.UUID) (*promoDomain.Claim, error) {
	var model PromoClaimModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PromoClaim", id.String())
		}
		return nil, err
	}
	return toClaimDomain(&model), nil
}

// UpdateClaimStatus transitions a claim's status and reason in place.
func (r *GormPromoRepository) UpdateClaimStatus(ctx context.Context, id uuid.UUID, status promoDomain.ClaimStatus, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&PromoClaimModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(status),
			"revoke_reason": reason,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("PromoClaim", id.String())
	}
	return nil
}

// ListClaims returns claims with pagination, newest first (admin).
func (r *GormPromoRepository) ListClaims(ctx context.Context, page, limit int) ([]*promoDomain.Claim, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&PromoClaimModel{}).Count(&total)

	var models []PromoClaimModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	claims := make([]*promoDomain.Claim, len(models))
	for i := range models {
		claims[i] = toClaimDomain(&models[i])
	}
	return claims, total, nil
}

func toPromoCodeModel(p *promoDomain.PromoCode) PromoCodeModel {
	return PromoCodeModel{
		ID:         p.ID(),
		Code:       p.Code(),
		Kind:       string(p.Kind()),
		Value:      p.Value(),
		AppliesTo:  p.AppliesTo(),
		ValidFrom:  p.ValidFrom(),
		ValidUntil: p.ValidUntil(),
		CreatedBy:  p.CreatedBy(),
		CreatedAt:  p.CreatedAt(),
		UpdatedAt:  p.UpdatedAt(),
	}
}

func toPromoCodeDomain(m *PromoCodeModel) *promoDomain.PromoCode {
	return promoDomain.ReconstructCode(
		m.ID, m.Code, pricing.DiscountKind(m.Kind), m.Value, m.AppliesTo,
		m.ValidFrom, m.ValidUntil, m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
}

func toClaimModel(c *promoDomain.Claim) PromoClaimModel {
	return PromoClaimModel{
		ID:           c.ID(),
		Code:         c.Code(),
		SessionID:    c.SessionID(),
		ServiceSlug:  c.ServiceSlug(),
		UserID:       c.UserID(),
		Status:       string(c.Status()),
		ExpiresAt:    c.ExpiresAt(),
		RevokeReason: c.RevokeReason(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
}

func toClaimDomain(m *PromoClaimModel) *promoDomain.Claim {
	return promoDomain.ReconstructClaim(
		m.ID, m.Code, m.SessionID, m.ServiceSlug, m.UserID,
		promoDomain.ClaimStatus(m.Status), m.ExpiresAt, m.RevokeReason,
		m.CreatedAt, m.UpdatedAt,
	)
}
