package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/domain/pricing"
	"github.com/sparklean/service-booking/internal/domain/shared"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// PromoRef is the booking's reference to an active promo claim, paired with
// the discount descriptor the pricing engine consumes.
type PromoRef struct {
	ClaimID  uuid.UUID
	Code     string
	Discount pricing.Discount
}

// Booking is the aggregate root for one wizard session. It holds every
// selection the customer makes and the current pricing snapshot, and is the
// single source of truth for the in-progress configuration.
type Booking struct {
	id            uuid.UUID
	customerID    uuid.UUID
	serviceSlug   string
	bedroomCount  int
	bathroomCount int
	extras        []string
	frequency     pricing.Frequency
	scheduledDate *time.Time
	timeSlot      string
	address       string
	cleanerID     *uuid.UUID
	promo         *PromoRef
	quote         pricing.Result
	status        Status
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// New creates a draft booking for a customer and service.
func New(customerID uuid.UUID, serviceSlug string) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewUnauthorizedError("booking requires an authenticated customer")
	}
	if serviceSlug == "" {
		return nil, shared.NewValidationError("service slug is required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:          uuid.New(),
		customerID:  customerID,
		serviceSlug: serviceSlug,
		frequency:   pricing.FrequencyOneTime,
		status:      StatusDraft,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id, customerID uuid.UUID,
	serviceSlug string,
	bedroomCount, bathroomCount int,
	extras []string,
	frequency pricing.Frequency,
	scheduledDate *time.Time,
	timeSlot, address string,
	cleanerID *uuid.UUID,
	promo *PromoRef,
	quote pricing.Result,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id: id, customerID: customerID, serviceSlug: serviceSlug,
		bedroomCount: bedroomCount, bathroomCount: bathroomCount,
		extras: extras, frequency: frequency,
		scheduledDate: scheduledDate, timeSlot: timeSlot, address: address,
		cleanerID: cleanerID, promo: promo, quote: quote,
		status: status, version: version,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// --- Wizard mutations (draft only) ---

func (b *Booking) mutable() error {
	if b.status != StatusDraft {
		return shared.NewInvalidStateError(string(b.status), string(StatusDraft))
	}
	return nil
}

// SetService switches the selected service. The caller is responsible for
// reconciling any attached promo against the new slug.
func (b *Booking) SetService(slug string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if slug == "" {
		return shared.NewValidationError("service slug is required")
	}
	b.serviceSlug = slug
	b.touch()
	return nil
}

// SetProperty records the property details step.
func (b *Booking) SetProperty(bedrooms, bathrooms int, extras []string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if bedrooms < 0 || bathrooms < 0 {
		return shared.NewValidationError("room counts cannot be negative")
	}
	b.bedroomCount = bedrooms
	b.bathroomCount = bathrooms
	b.extras = extras
	b.touch()
	return nil
}

// SetSchedule records the schedule step. Unrecognized frequencies are kept
// as-is and price with zero discount.
func (b *Booking) SetSchedule(date time.Time, timeSlot, address string, frequency pricing.Frequency) error {
	if err := b.mutable(); err != nil {
		return err
	}
	d := date.UTC()
	b.scheduledDate = &d
	b.timeSlot = timeSlot
	b.address = address
	b.frequency = frequency
	b.touch()
	return nil
}

// AssignCleaner records the chosen cleaner.
func (b *Booking) AssignCleaner(cleanerID uuid.UUID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.cleanerID = &cleanerID
	b.touch()
	return nil
}

// AttachPromo attaches an active claim to the booking selection.
func (b *Booking) AttachPromo(ref PromoRef) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.promo = &ref
	b.touch()
	return nil
}

// ClearPromo removes the promo reference. Safe to call when none is attached.
func (b *Booking) ClearPromo() {
	if b.promo == nil {
		return
	}
	b.promo = nil
	b.touch()
}

// SetQuote stores the latest pricing snapshot.
func (b *Booking) SetQuote(q pricing.Result) {
	b.quote = q
	b.touch()
}

// --- Lifecycle transitions ---

// SubmitForPayment moves the draft to pending_payment once the wizard is
// complete.
func (b *Booking) SubmitForPayment() error {
	if b.status != StatusDraft {
		return shared.NewInvalidStateError(string(b.status), string(StatusPendingPayment))
	}
	if b.scheduledDate == nil {
		return shared.NewValidationError("a schedule is required before payment")
	}
	b.status = StatusPendingPayment
	b.touch()
	return nil
}

// Confirm marks the booking paid and scheduled.
func (b *Booking) Confirm() error {
	if b.status != StatusPendingPayment {
		return shared.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.touch()
	return nil
}

// ReopenDraft returns a pending_payment booking to draft after a failed
// payment so the customer can retry.
func (b *Booking) ReopenDraft() error {
	if b.status != StatusPendingPayment {
		return shared.NewInvalidStateError(string(b.status), string(StatusDraft))
	}
	b.status = StatusDraft
	b.touch()
	return nil
}

// Complete marks a confirmed booking as done.
func (b *Booking) Complete() error {
	if b.status != StatusConfirmed {
		return shared.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.touch()
	return nil
}

// Cancel ends the booking from any non-terminal state.
func (b *Booking) Cancel() error {
	if b.status == StatusCompleted || b.status == StatusCancelled {
		return shared.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.touch()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.touch()
}

func (b *Booking) touch() {
	b.updatedAt = time.Now().UTC()
}

// Getters.
func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) CustomerID() uuid.UUID        { return b.customerID }
func (b *Booking) ServiceSlug() string          { return b.serviceSlug }
func (b *Booking) BedroomCount() int            { return b.bedroomCount }
func (b *Booking) BathroomCount() int           { return b.bathroomCount }
func (b *Booking) Extras() []string             { return b.extras }
func (b *Booking) Frequency() pricing.Frequency { return b.frequency }
func (b *Booking) ScheduledDate() *time.Time    { return b.scheduledDate }
func (b *Booking) TimeSlot() string             { return b.timeSlot }
func (b *Booking) Address() string              { return b.address }
func (b *Booking) CleanerID() *uuid.UUID        { return b.cleanerID }
func (b *Booking) Promo() *PromoRef             { return b.promo }
func (b *Booking) Quote() pricing.Result        { return b.quote }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) Version() int64               { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
