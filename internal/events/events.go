package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event type identifiers carried in the CloudEvent envelope.
const (
	PaymentInitialized = "payment.initialized"
	PaymentVerified    = "payment.verified"
	PaymentFailed      = "payment.failed"
	BookingConfirmed   = "booking.confirmed"
	BookingCancelled   = "booking.cancelled"
	PromoClaimRevoked  = "promo.claim_revoked"
)

// PaymentInitializedEvent is published when a checkout transaction is
// registered with the gateway.
type PaymentInitializedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentVerifiedEvent is published when the gateway confirms a payment.
type PaymentVerifiedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentFailedEvent is published when a checkout cannot complete.
type PaymentFailedEvent struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published once payment verification confirms a
// booking.
type BookingConfirmedEvent struct {
	BookingID   uuid.UUID  `json:"booking_id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	CleanerID   *uuid.UUID `json:"cleaner_id,omitempty"`
	ServiceSlug string     `json:"service_slug"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PromoClaimRevokedEvent is published as an audit record when a claim is
// revoked, typically because the booking's service changed.
type PromoClaimRevokedEvent struct {
	ClaimID    uuid.UUID `json:"claim_id"`
	Code       string    `json:"code"`
	SessionID  string    `json:"session_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
