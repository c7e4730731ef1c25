package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/domain/shared"
)

// Status represents the state of a gateway payment.
type Status string

const (
	StatusPending     Status = "pending"
	StatusInitialized Status = "initialized"
	StatusVerified    Status = "verified"
	StatusFailed      Status = "failed"
	StatusRefunded    Status = "refunded"
)

// Payment is the aggregate root for a booking checkout. Amounts are in
// minor currency units as the gateway requires.
type Payment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	customerID  uuid.UUID
	amountMinor int64
	currency    string
	status      Status
	reference   string
	checkoutURL string
	verifiedAt  *time.Time
	failReason  string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewPayment creates a pending payment for a booking total.
func NewPayment(bookingID, customerID uuid.UUID, amountMinor int64, currency string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		id:          uuid.New(),
		bookingID:   bookingID,
		customerID:  customerID,
		amountMinor: amountMinor,
		currency:    currency,
		status:      StatusPending,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
}

// Reconstitute rebuilds a Payment from persisted data.
func Reconstitute(
	id, bookingID, customerID uuid.UUID,
	amountMinor int64,
	currency string,
	status Status,
	reference, checkoutURL string,
	verifiedAt *time.Time,
	failReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id: id, bookingID: bookingID, customerID: customerID,
		amountMinor: amountMinor, currency: currency, status: status,
		reference: reference, checkoutURL: checkoutURL,
		verifiedAt: verifiedAt, failReason: failReason,
		version: version, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Initialize records the gateway transaction reference and checkout URL.
func (p *Payment) Initialize(reference, checkoutURL string) error {
	if p.status != StatusPending {
		return shared.NewInvalidStateError(string(p.status), string(StatusInitialized))
	}
	p.status = StatusInitialized
	p.reference = reference
	p.checkoutURL = checkoutURL
	p.touch()
	return nil
}

// Verify marks the payment as confirmed by the gateway.
func (p *Payment) Verify() error {
	if p.status != StatusInitialized {
		return shared.NewInvalidStateError(string(p.status), string(StatusVerified))
	}
	now := time.Now().UTC()
	p.status = StatusVerified
	p.verifiedAt = &now
	p.touch()
	return nil
}

// Fail moves any non-terminal payment to failed with a reason.
func (p *Payment) Fail(reason string) error {
	if p.status == StatusVerified || p.status == StatusRefunded || p.status == StatusFailed {
		return shared.NewInvalidStateError(string(p.status), string(StatusFailed))
	}
	p.status = StatusFailed
	p.failReason = reason
	p.touch()
	return nil
}

// Refund reverses a verified payment.
func (p *Payment) Refund(reason string) error {
	if p.status != StatusVerified {
		return shared.NewInvalidStateError(string(p.status), string(StatusRefunded))
	}
	p.status = StatusRefunded
	p.failReason = reason
	p.touch()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.touch()
}

func (p *Payment) touch() {
	p.updatedAt = time.Now().UTC()
}

// Getters.
func (p *Payment) ID() uuid.UUID          { return p.id }
func (p *Payment) BookingID() uuid.UUID   { return p.bookingID }
func (p *Payment) CustomerID() uuid.UUID  { return p.customerID }
func (p *Payment) AmountMinor() int64     { return p.amountMinor }
func (p *Payment) Currency() string       { return p.currency }
func (p *Payment) Status() Status         { return p.status }
func (p *Payment) Reference() string      { return p.reference }
func (p *Payment) CheckoutURL() string    { return p.checkoutURL }
func (p *Payment) VerifiedAt() *time.Time { return p.verifiedAt }
func (p *Payment) FailReason() string     { return p.failReason }
func (p *Payment) Version() int64         { return p.version }
func (p *Payment) CreatedAt() time.Time   { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time   { return p.updatedAt }
