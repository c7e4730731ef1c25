package promo

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateClaim signals the store rejected an insert because a claimed
// record already exists for the (code, sessionID) pair. Callers treat it as
// the idempotent already-claimed path, not a failure.
var ErrDuplicateClaim = errors.New("claim already exists for this code and session")

// CodeRepository defines persistence for promo code definitions.
type CodeRepository interface {
	SaveCode(ctx context.Context, p *PromoCode) error
	FindCode(ctx context.Context, code string) (*PromoCode, error)
	ListActiveCodes(ctx context.Context) ([]*PromoCode, error)
}

// ClaimRepository defines persistence for redemption claims. The claimed
// uniqueness per (code, sessionID) is enforced by the store's constraint,
// not by client-side locking; concurrent writers see ErrDuplicateClaim.
type ClaimRepository interface {
	SaveClaim(ctx context.Context, c *Claim) error
	// FindClaim returns the claim for (code, sessionID) in the given
	// status, or a not-found error.
	FindClaim(ctx context.Context, code, sessionID string, status ClaimStatus) (*Claim, error)
	FindClaimByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	UpdateClaimStatus(ctx context.Context, id uuid.UUID, status ClaimStatus, reason string) error
	ListClaims(ctx context.Context, page, limit int) ([]*Claim, int64, error)
}

// Repository combines code and claim persistence.
type Repository interface {
	CodeRepository
	ClaimRepository
}
