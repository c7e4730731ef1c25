package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparklean/service-booking/internal/domain/pricing"
	promoDomain "github.com/sparklean/service-booking/internal/domain/promo"
	"github.com/sparklean/service-booking/internal/domain/shared"
	"github.com/sparklean/service-booking/internal/events"
	"github.com/sparklean/service-booking/internal/pkg/kafka"
)

const eventSource = "service-booking"

// CreatePromoRequest holds data to create a promo code.
type CreatePromoRequest struct {
	Code       string  `json:"code" binding:"required"`
	Kind       string  `json:"kind" binding:"required"`
	Value      float64 `json:"value" binding:"required"`
	AppliesTo  string  `json:"applies_to" binding:"required"`
	ValidFrom  string  `json:"valid_from" binding:"required"`
	ValidUntil string  `json:"valid_until" binding:"required"`
}

// ClaimPromoRequest holds data to claim a promo code for a session.
type ClaimPromoRequest struct {
	Code        string `json:"code" binding:"required"`
	ServiceSlug string `json:"service_slug" binding:"required"`
}

// PromoDTO is the API response representation of a promo code.
type PromoDTO struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Kind       string    `json:"kind"`
	Value      float64   `json:"value"`
	AppliesTo  string    `json:"applies_to"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClaimDTO is the API response representation of a redemption claim.
// AlreadyClaimed marks the idempotent path: the session held this claim
// before the request, so nothing was created.
type ClaimDTO struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	SessionID      string    `json:"session_id"`
	ServiceSlug    string    `json:"service_slug"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	RevokeReason   string    `json:"revoke_reason,omitempty"`
	AlreadyClaimed bool      `json:"already_claimed"`
	Message        string    `json:"message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PromoValidationDTO is the result of validating a promo code against a
// service.
type PromoValidationDTO struct {
	Valid   bool    `json:"valid"`
	Code    string  `json:"code"`
	Kind    string  `json:"kind,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Message string  `json:"message,omitempty"`
}

// PromoService handles promo code and claim use cases.
type PromoService struct {
	repo     promoDomain.Repository
	producer kafka.EventPublisher
	logger   *zap.Logger
}

// NewPromoService creates a new PromoService.
func NewPromoService(repo promoDomain.Repository, producer kafka.EventPublisher, logger *zap.Logger) *PromoService {
	return &PromoService{repo: repo, producer: producer, logger: logger}
}

// CreatePromo creates a new promo code (admin only).
func (s *PromoService) CreatePromo(ctx context.Context, createdBy uuid.UUID, req CreatePromoRequest) (*PromoDTO, error) {
	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return nil, shared.NewValidationError("invalid valid_from format (use RFC3339)")
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return nil, shared.NewValidationError("invalid valid_until format (use RFC3339)")
	}

	code, err := promoDomain.NewPromoCode(
		req.Code,
		pricing.DiscountKind(req.Kind),
		req.Value,
		req.AppliesTo,
		validFrom,
		validUntil,
		createdBy,
	)
	if err != nil {
		return nil, shared.NewValidationError(err.Error())
	}

	if err := s.repo.SaveCode(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to save promo code: %w", err)
	}

	s.logger.Info("promo code created",
		zap.String("code", code.Code()),
		zap.String("applies_to", code.AppliesTo()),
	)
	return toPromoDTO(code), nil
}

// ValidatePromo checks whether a code can currently be claimed for a service.
func (s *PromoService) ValidatePromo(ctx context.Context, code, serviceSlug string) (*PromoValidationDTO, error) {
	promoCode, err := s.repo.FindCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &PromoValidationDTO{Valid: false, Code: code, Message: "promo code not found"}, nil
		}
		return nil, err
	}

	if !promoCode.IsActive() {
		return &PromoValidationDTO{Valid: false, Code: code, Message: "promo code is not currently active"}, nil
	}
	if promoCode.AppliesTo() != serviceSlug {
		return &PromoValidationDTO{Valid: false, Code: code, Message: "promo code does not apply to this service"}, nil
	}

	return &PromoValidationDTO{
		Valid: true,
		Code:  promoCode.Code(),
		Kind:  string(promoCode.Kind()),
		Value: promoCode.Value(),
	}, nil
}

// ActivePromos returns all currently claimable promo codes.
func (s *PromoService) ActivePromos(ctx context.Context) ([]*PromoDTO, error) {
	codes, err := s.repo.ListActiveCodes(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]*PromoDTO, len(codes))
	for i, c := range codes {
		dtos[i] = toPromoDTO(c)
	}
	return dtos, nil
}

// ClaimPromo redeems a code for a session. Claiming is idempotent: if the
// session already holds an active claim for the code, that claim is
// returned unchanged, including when two requests race on the insert.
func (s *PromoService) ClaimPromo(ctx context.Context, userID uuid.UUID, sessionID string, req ClaimPromoRequest) (*ClaimDTO, error) {
	promoCode, err := s.repo.FindCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if !promoCode.IsActive() {
		return nil, shared.NewValidationError("promo code is not currently active")
	}
	if promoCode.AppliesTo() != req.ServiceSlug {
		return nil, shared.NewValidationError("promo code does not apply to this service")
	}

	existing, err := s.repo.FindClaim(ctx, req.Code, sessionID, promoDomain.StatusClaimed)
	if err == nil {
		return alreadyClaimedDTO(existing), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	claim, err := promoDomain.NewClaim(req.Code, sessionID, req.ServiceSlug, userID, promoCode.ValidUntil())
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveClaim(ctx, claim); err != nil {
		// A concurrent request won the insert; the constraint makes the
		// outcome identical to having found the claim up front.
		if errors.Is(err, promoDomain.ErrDuplicateClaim) {
			winner, findErr := s.repo.FindClaim(ctx, req.Code, sessionID, promoDomain.StatusClaimed)
			if findErr != nil {
				return nil, findErr
			}
			return alreadyClaimedDTO(winner), nil
		}
		return nil, fmt.Errorf("failed to save claim: %w", err)
	}

	s.logger.Info("promo claimed",
		zap.String("code", claim.Code()),
		zap.String("session_id", claim.SessionID()),
	)
	return toClaimDTO(claim), nil
}

// GetClaim returns the session's active claim for a code.
func (s *PromoService) GetClaim(ctx context.Context, code, sessionID string) (*ClaimDTO, error) {
	claim, err := s.repo.FindClaim(ctx, code, sessionID, promoDomain.StatusClaimed)
	if err != nil {
		return nil, err
	}
	return toClaimDTO(claim), nil
}

// RevokeClaim transitions a claim to revoked and publishes an audit event.
// Revoking an already-revoked claim is an invalid-state error.
func (s *PromoService) RevokeClaim(ctx context.Context, claimID uuid.UUID, reason string) error {
	claim, err := s.repo.FindClaimByID(ctx, claimID)
	if err != nil {
		return err
	}

	if err := claim.Revoke(reason); err != nil {
		return err
	}

	if err := s.repo.UpdateClaimStatus(ctx, claim.ID(), promoDomain.StatusRevoked, reason); err != nil {
		return fmt.Errorf("failed to revoke claim: %w", err)
	}

	s.logger.Info("promo claim revoked",
		zap.String("claim_id", claim.ID().String()),
		zap.String("code", claim.Code()),
		zap.String("reason", reason),
	)
	s.publishClaimRevoked(ctx, claim, reason)
	return nil
}

// ListClaims returns the claim audit trail with pagination (admin).
func (s *PromoService) ListClaims(ctx context.Context, page, limit int) ([]*ClaimDTO, int64, error) {
	claims, total, err := s.repo.ListClaims(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]*ClaimDTO, len(claims))
	for i, c := range claims {
		dtos[i] = toClaimDTO(c)
	}
	return dtos, total, nil
}

func (s *PromoService) publishClaimRevoked(ctx context.Context, claim *promoDomain.Claim, reason string) {
	event := events.PromoClaimRevokedEvent{
		ClaimID:    claim.ID(),
		Code:       claim.Code(),
		SessionID:  claim.SessionID(),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}

	ce, err := kafka.NewCloudEvent(eventSource, events.PromoClaimRevoked, event)
	if err != nil {
		s.logger.Error("failed to create claim revoked cloud event", zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, ce); err != nil {
		s.logger.Error("failed to publish claim revoked event", zap.Error(err))
	}
}

func toPromoDTO(p *promoDomain.PromoCode) *PromoDTO {
	return &PromoDTO{
		ID:         p.ID(),
		Code:       p.Code(),
		Kind:       string(p.Kind()),
		Value:      p.Value(),
		AppliesTo:  p.AppliesTo(),
		ValidFrom:  p.ValidFrom(),
		ValidUntil: p.ValidUntil(),
		CreatedAt:  p.CreatedAt(),
	}
}

func alreadyClaimedDTO(c *promoDomain.Claim) *ClaimDTO {
	dto := toClaimDTO(c)
	dto.AlreadyClaimed = true
	dto.Message = "promo code already claimed for this session"
	return dto
}

func toClaimDTO(c *promoDomain.Claim) *ClaimDTO {
	return &ClaimDTO{
		ID:           c.ID(),
		Code:         c.Code(),
		SessionID:    c.SessionID(),
		ServiceSlug:  c.ServiceSlug(),
		Status:       string(c.Status()),
		ExpiresAt:    c.ExpiresAt(),
		RevokeReason: c.RevokeReason(),
		CreatedAt:    c.CreatedAt(),
	}
}
