package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparklean/service-booking/internal/adapter"
	bookingDomain "github.com/sparklean/service-booking/internal/domain/booking"
	paymentDomain "github.com/sparklean/service-booking/internal/domain/payment"
	"github.com/sparklean/service-booking/internal/events"
	"github.com/sparklean/service-booking/internal/pkg/kafka"
)

const eventSource = "service-booking"

// CheckoutSagaService orchestrates the payment workflows that span the
// database, the payment gateway, and Kafka.
type CheckoutSagaService struct {
	payments    paymentDomain.Repository
	bookings    bookingDomain.Repository
	gateway     adapter.PaymentGateway
	producer    kafka.EventPublisher
	callbackURL string
	logger      *zap.Logger
}

// NewCheckoutSagaService creates a CheckoutSagaService.
func NewCheckoutSagaService(
	payments paymentDomain.Repository,
	bookings bookingDomain.Repository,
	gateway adapter.PaymentGateway,
	producer kafka.EventPublisher,
	callbackURL string,
	logger *zap.Logger,
) *CheckoutSagaService {
	return &CheckoutSagaService{
		payments:    payments,
		bookings:    bookings,
		gateway:     gateway,
		producer:    producer,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// InitiateCheckoutSaga creates a payment, registers a gateway transaction,
// moves the booking to pending_payment, and publishes an event.
func (s *CheckoutSagaService) InitiateCheckoutSaga(
	ctx context.Context,
	b *bookingDomain.Booking,
	amountMinor int64,
	currency, customerEmail string,
) (*paymentDomain.Payment, error) {
	p := paymentDomain.NewPayment(b.ID(), b.CustomerID(), amountMinor, currency)
	var reference, checkoutURL string

	sg := New("initiate_checkout", s.logger)

	sg.AddStep(Step{
		Name: "save_payment",
		Execute: func(ctx context.Context) error {
			return s.payments.Save(ctx, p)
		},
		Compensate: func(ctx context.Context) error {
			_ = p.Fail("saga compensation: checkout initiation failed")
			p.IncrementVersion()
			return s.payments.Update(ctx, p)
		},
	})

	sg.AddStep(Step{
		Name: "initialize_gateway_transaction",
		Execute: func(ctx context.Context) error {
			var err error
			reference, checkoutURL, err = s.gateway.InitializeTransaction(
				ctx, amountMinor, currency, customerEmail, s.callbackURL)
			return err
		},
		// An initialized-but-unpaid transaction expires on the gateway
		// side; there is nothing to undo.
		Compensate: nil,
	})

	sg.AddStep(Step{
		Name: "record_gateway_reference",
		Execute: func(ctx context.Context) error {
			if err := p.Initialize(reference, checkoutURL); err != nil {
				return err
			}
			p.IncrementVersion()
			return s.payments.Update(ctx, p)
		},
		Compensate: func(ctx context.Context) error {
			_ = p.Fail("saga compensation: recording gateway reference failed")
			p.IncrementVersion()
			return s.payments.Update(ctx, p)
		},
	})

	sg.AddStep(Step{
		Name: "mark_booking_pending_payment",
		Execute: func(ctx context.Context) error {
			if err := b.SubmitForPayment(); err != nil {
				return err
			}
			b.IncrementVersion()
			return s.bookings.Update(ctx, b)
		},
		Compensate: func(ctx context.Context) error {
			_ = b.ReopenDraft()
			b.IncrementVersion()
			return s.bookings.Update(ctx, b)
		},
	})

	sg.AddStep(Step{
		Name: "publish_payment_initialized_event",
		Execute: func(ctx context.Context) error {
			event := events.PaymentInitializedEvent{
				PaymentID:   p.ID(),
				BookingID:   p.BookingID(),
				Reference:   p.Reference(),
				AmountMinor: p.AmountMinor(),
				Currency:    p.Currency(),
				OccurredAt:  time.Now().UTC(),
			}
			ce, err := kafka.NewCloudEvent(eventSource, events.PaymentInitialized, event)
			if err != nil {
				return fmt.Errorf("failed to create cloud event: %w", err)
			}
			return s.producer.PublishEvent(ctx, events.TopicPaymentEvents, ce)
		},
		Compensate: nil,
	})

	if err := sg.Execute(ctx); err != nil {
		s.publishFailedEvent(ctx, p.ID(), p.BookingID(), err.Error())
		return nil, err
	}

	return p, nil
}

// VerifyPaymentSaga checks the gateway outcome for a reference and settles
// the payment record accordingly, publishing the result.
func (s *CheckoutSagaService) VerifyPaymentSaga(ctx context.Context, reference string) (*paymentDomain.Payment, error) {
	p, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	status, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("gateway verification failed: %w", err)
	}

	if status != adapter.TransactionSuccess {
		if err := p.Fail(fmt.Sprintf("gateway status: %s", status)); err != nil {
			return nil, err
		}
		p.IncrementVersion()
		if err := s.payments.Update(ctx, p); err != nil {
			return nil, err
		}
		s.publishFailedEvent(ctx, p.ID(), p.BookingID(), p.FailReason())
		return p, nil
	}

	sg := New("verify_payment", s.logger)

	sg.AddStep(Step{
		Name: "mark_payment_verified",
		Execute: func(ctx context.Context) error {
			if err := p.Verify(); err != nil {
				return err
			}
			p.IncrementVersion()
			return s.payments.Update(ctx, p)
		},
		Compensate: nil,
	})

	sg.AddStep(Step{
		Name: "publish_payment_verified_event",
		Execute: func(ctx context.Context) error {
			event := events.PaymentVerifiedEvent{
				PaymentID:   p.ID(),
				BookingID:   p.BookingID(),
				Reference:   p.Reference(),
				AmountMinor: p.AmountMinor(),
				Currency:    p.Currency(),
				OccurredAt:  time.Now().UTC(),
			}
			ce, err := kafka.NewCloudEvent(eventSource, events.PaymentVerified, event)
			if err != nil {
				return fmt.Errorf("failed to create cloud event: %w", err)
			}
			return s.producer.PublishEvent(ctx, events.TopicPaymentEvents, ce)
		},
		Compensate: nil,
	})

	if err := sg.Execute(ctx); err != nil {
		s.publishFailedEvent(ctx, p.ID(), p.BookingID(), err.Error())
		return nil, err
	}

	return p, nil
}

// RefundPaymentSaga reverses a verified payment at the gateway and in the
// domain.
func (s *CheckoutSagaService) RefundPaymentSaga(ctx context.Context, paymentID uuid.UUID, reason string) error {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}

	sg := New("refund_payment", s.logger)

	sg.AddStep(Step{
		Name: "refund_gateway_transaction",
		Execute: func(ctx context.Context) error {
			return s.gateway.RefundTransaction(ctx, p.Reference(), p.AmountMinor())
		},
		Compensate: nil,
	})

	sg.AddStep(Step{
		Name: "refund_in_domain",
		Execute: func(ctx context.Context) error {
			if err := p.Refund(reason); err != nil {
				return err
			}
			p.IncrementVersion()
			return s.payments.Update(ctx, p)
		},
		Compensate: nil,
	})

	return sg.Execute(ctx)
}

func (s *CheckoutSagaService) publishFailedEvent(ctx context.Context, paymentID, bookingID uuid.UUID, reason string) {
	event := events.PaymentFailedEvent{
		PaymentID:  paymentID,
		BookingID:  bookingID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}

	ce, err := kafka.NewCloudEvent(eventSource, events.PaymentFailed, event)
	if err != nil {
		s.logger.Error("failed to create payment failed cloud event", zap.Error(err))
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicPaymentEvents, ce); err != nil {
		s.logger.Error("failed to publish payment failed event", zap.Error(err))
	}
}
