//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklean/service-booking/internal/application"
	bookingEvents "github.com/sparklean/service-booking/internal/events"
	"github.com/sparklean/service-booking/internal/repository"
)

// TestPaymentVerified_ConfirmsBooking verifies that when a payment.verified
// event arrives on payment.events, the consumer confirms the booking and a
// booking.confirmed event is published.
func TestPaymentVerified_ConfirmsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	customerID := uuid.New()
	bookingID := seedBookingPendingPayment(t, infra.DB, customerID)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := bookingEvents.PaymentVerifiedEvent{
		PaymentID:   uuid.New(),
		BookingID:   bookingID,
		Reference:   "chk_inttest01",
		AmountMinor: 22000,
		Currency:    "USD",
		OccurredAt:  time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicPaymentEvents,
		"service-payment", bookingEvents.PaymentVerified, evt)

	// Assert: booking transitions to "confirmed".
	model := waitForBookingStatus(t, infra.DB, bookingID, "confirmed", 15*time.Second)
	assert.Equal(t, customerID, model.CustomerID)

	// Assert: booking.confirmed on booking.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicBookingEvents,
		bookingEvents.BookingConfirmed, 15*time.Second)

	var confirmed bookingEvents.BookingConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, bookingID, confirmed.BookingID)
	assert.Equal(t, customerID, confirmed.CustomerID)
	assert.Equal(t, "standard-clean", confirmed.ServiceSlug)
}

// TestPaymentFailed_ReopensDraft verifies that a payment.failed event sends
// the booking back to draft so the customer can retry checkout.
func TestPaymentFailed_ReopensDraft(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	customerID := uuid.New()
	bookingID := seedBookingPendingPayment(t, infra.DB, customerID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	evt := bookingEvents.PaymentFailedEvent{
		PaymentID:  uuid.New(),
		BookingID:  bookingID,
		Reason:     "card declined",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicPaymentEvents,
		"service-payment", bookingEvents.PaymentFailed, evt)

	waitForBookingStatus(t, infra.DB, bookingID, "draft", 15*time.Second)
}

// TestClaimPromo_IdempotentUnderConcurrency verifies that concurrent claims
// for the same (code, session) pair resolve to a single claim row. The
// partial unique index on promo_claims is what arbitrates the race.
func TestClaimPromo_IdempotentUnderConcurrency(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	seedPromoCode(t, infra.DB, "SPRING20", "standard-clean", "percent", 20)

	userID := uuid.New()
	sessionID := "sess-concurrent-01"
	req := application.ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "standard-clean"}

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[uuid.UUID]int)
	errs := make([]error, 0, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claim, err := stack.Promos.ClaimPromo(context.Background(), userID, sessionID, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[claim.ID]++
		}()
	}
	wg.Wait()

	require.Empty(t, errs, "no claim should fail")
	assert.Len(t, ids, 1, "all concurrent claims should resolve to one claim")

	var count int64
	infra.DB.Model(&repository.PromoClaimModel{}).
		Where("code = ? AND session_id = ? AND status = ?", "SPRING20", sessionID, "claimed").
		Count(&count)
	assert.Equal(t, int64(1), count, "exactly one claimed row should exist")
}

// TestClaimPromo_ReclaimAfterRevoke verifies that revoking a claim leaves an
// audit row behind, publishes a revocation event, and frees the code for a
// fresh claim by the same session.
func TestClaimPromo_ReclaimAfterRevoke(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	seedPromoCode(t, infra.DB, "FLAT15", "deep-clean", "fixed", 15)

	userID := uuid.New()
	sessionID := "sess-reclaim-01"
	req := application.ClaimPromoRequest{Code: "FLAT15", ServiceSlug: "deep-clean"}

	first, err := stack.Promos.ClaimPromo(context.Background(), userID, sessionID, req)
	require.NoError(t, err)

	require.NoError(t, stack.Promos.RevokeClaim(context.Background(), first.ID, "booking service changed"))

	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicBookingEvents,
		bookingEvents.PromoClaimRevoked, 15*time.Second)

	var revoked bookingEvents.PromoClaimRevokedEvent
	require.NoError(t, ce.ParseData(&revoked))
	assert.Equal(t, first.ID, revoked.ClaimID)
	assert.Equal(t, "booking service changed", revoked.Reason)

	second, err := stack.Promos.ClaimPromo(context.Background(), userID, sessionID, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "re-claim should mint a fresh claim")
	assert.Equal(t, "claimed", second.Status)

	// Both rows remain: the revoked audit record and the fresh claim.
	var count int64
	infra.DB.Model(&repository.PromoClaimModel{}).
		Where("code = ? AND session_id = ?", "FLAT15", sessionID).
		Count(&count)
	assert.Equal(t, int64(2), count)
}
