package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Payment aggregates.
type Repository interface {
	Save(ctx context.Context, p *Payment) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, p *Payment) error

	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error)

	FindByReference(ctx context.Context, reference string) (*Payment, error)

	// ListAll retrieves all payments with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Payment, int64, error)

	// RevenueStats returns total verified revenue and counts by status (admin).
	RevenueStats(ctx context.Context) (totalMinor int64, countByStatus map[string]int64, err error)
}
