package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Booking aggregates.
type Repository interface {
	Save(ctx context.Context, b *Booking) error

	// Update persists changes with optimistic locking; a stale version
	// yields a conflict error.
	Update(ctx context.Context, b *Booking) error

	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	ListByCleaner(ctx context.Context, cleanerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
