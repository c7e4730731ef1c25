package promo

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/domain/shared"
)

// ClaimStatus is the state of one redemption attempt.
type ClaimStatus string

const (
	StatusClaimed ClaimStatus = "claimed"
	// StatusRevoked is terminal: a revoked claim never returns to claimed.
	StatusRevoked ClaimStatus = "revoked"
)

// Claim records that a session redeemed a promo code for a service. Claims
// are an audit trail: they are status-transitioned, never deleted. At most
// one claimed record exists per (code, sessionID) pair.
type Claim struct {
	id           uuid.UUID
	code         string
	sessionID    string
	serviceSlug  string
	userID       uuid.UUID
	status       ClaimStatus
	expiresAt    time.Time
	revokeReason string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewClaim creates a claimed record. Claims are never anonymous.
func NewClaim(code, sessionID, serviceSlug string, userID uuid.UUID, expiresAt time.Time) (*Claim, error) {
	if userID == uuid.Nil {
		return nil, shared.NewUnauthorizedError("promo claims require an authenticated user")
	}
	if code == "" || sessionID == "" {
		return nil, shared.NewValidationError("promo code and session id are required")
	}

	now := time.Now().UTC()
	return &Claim{
		id:          uuid.New(),
		code:        code,
		sessionID:   sessionID,
		serviceSlug: serviceSlug,
		userID:      userID,
		status:      StatusClaimed,
		expiresAt:   expiresAt,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructClaim rebuilds a Claim from persistence.
func ReconstructClaim(id uuid.UUID, code, sessionID, serviceSlug string, userID uuid.UUID, status ClaimStatus, expiresAt time.Time, revokeReason string, createdAt, updatedAt time.Time) *Claim {
	return &Claim{
		id: id, code: code, sessionID: sessionID, serviceSlug: serviceSlug,
		userID: userID, status: status, expiresAt: expiresAt,
		revokeReason: revokeReason, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Revoke transitions the claim to revoked with a reason.
func (c *Claim) Revoke(reason string) error {
	if c.status != StatusClaimed {
		return shared.NewInvalidStateError(string(c.status), string(StatusRevoked))
	}
	c.status = StatusRevoked
	c.revokeReason = reason
	c.updatedAt = time.Now().UTC()
	return nil
}

// IsClaimed reports whether the claim is currently active.
func (c *Claim) IsClaimed() bool { return c.status == StatusClaimed }

// ValidForService reports whether the claim's service scope matches slug.
func (c *Claim) ValidForService(slug string) bool {
	return c.serviceSlug == slug
}

// Getters.
func (c *Claim) ID() uuid.UUID        { return c.id }
func (c *Claim) Code() string         { return c.code }
func (c *Claim) SessionID() string    { return c.sessionID }
func (c *Claim) ServiceSlug() string  { return c.serviceSlug }
func (c *Claim) UserID() uuid.UUID    { return c.userID }
func (c *Claim) Status() ClaimStatus  { return c.status }
func (c *Claim) ExpiresAt() time.Time { return c.expiresAt }
func (c *Claim) RevokeReason() string { return c.revokeReason }
func (c *Claim) CreatedAt() time.Time { return c.createdAt }
func (c *Claim) UpdatedAt() time.Time { return c.updatedAt }

// IsValidForService reports whether an attached claim permits the given
// service. A nil claim is vacuously valid: there is nothing to invalidate.
func IsValidForService(claim *Claim, serviceSlug string) bool {
	if claim == nil {
		return true
	}
	return claim.ValidForService(serviceSlug)
}
