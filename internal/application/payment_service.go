package application

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/sparklean/service-booking/internal/domain/booking"
	paymentDomain "github.com/sparklean/service-booking/internal/domain/payment"
	"github.com/sparklean/service-booking/internal/domain/shared"
	"github.com/sparklean/service-booking/internal/saga"
)

const defaultCurrency = "USD"

// InitiateCheckoutRequest starts payment for a booking.
type InitiateCheckoutRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// PaymentDTO is the API response representation of a payment.
type PaymentDTO struct {
	ID          uuid.UUID  `json:"id"`
	BookingID   uuid.UUID  `json:"booking_id"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	Reference   string     `json:"reference,omitempty"`
	CheckoutURL string     `json:"checkout_url,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	FailReason  string     `json:"fail_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RevenueStatsDTO summarizes payment activity (admin).
type RevenueStatsDTO struct {
	TotalRevenueMinor int64            `json:"total_revenue_minor"`
	CountByStatus     map[string]int64 `json:"count_by_status"`
}

// PaymentService handles checkout use cases, delegating the multi-system
// workflows to the saga orchestrator.
type PaymentService struct {
	payments paymentDomain.Repository
	bookings bookingDomain.Repository
	checkout *saga.CheckoutSagaService
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	payments paymentDomain.Repository,
	bookings bookingDomain.Repository,
	checkout *saga.CheckoutSagaService,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		bookings: bookings,
		checkout: checkout,
		logger:   logger,
	}
}

// InitiateCheckout starts payment for the customer's booking. The booking
// total is converted to minor currency units for the gateway.
func (s *PaymentService) InitiateCheckout(ctx context.Context, customerID uuid.UUID, customerEmail string, bookingID uuid.UUID) (*PaymentDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID() != customerID {
		return nil, shared.NewUnauthorizedError("booking belongs to another customer")
	}

	total := b.Quote().Total
	if total <= 0 {
		return nil, shared.NewValidationError("booking total must be positive before checkout")
	}
	amountMinor := int64(math.Round(total * 100))

	p, err := s.checkout.InitiateCheckoutSaga(ctx, b, amountMinor, defaultCurrency, customerEmail)
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout initiated",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.Int64("amount_minor", amountMinor),
	)
	return toPaymentDTO(p), nil
}

// VerifyPayment settles the payment for a gateway reference.
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) (*PaymentDTO, error) {
	p, err := s.checkout.VerifyPaymentSaga(ctx, reference)
	if err != nil {
		return nil, err
	}
	return toPaymentDTO(p), nil
}

// GetPayment returns one payment, restricted to its customer or an admin.
func (s *PaymentService) GetPayment(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID) (*PaymentDTO, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && p.CustomerID() != requesterID {
		return nil, shared.NewUnauthorizedError("payment belongs to another customer")
	}
	return toPaymentDTO(p), nil
}

// GetBookingPayment returns the payment for a booking.
func (s *PaymentService) GetBookingPayment(ctx context.Context, requesterID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && p.CustomerID() != requesterID {
		return nil, shared.NewUnauthorizedError("payment belongs to another customer")
	}
	return toPaymentDTO(p), nil
}

// RefundPayment reverses a verified payment (admin only).
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID uuid.UUID, reason string) error {
	if err := s.checkout.RefundPaymentSaga(ctx, paymentID, reason); err != nil {
		return err
	}
	s.logger.Info("payment refunded",
		zap.String("payment_id", paymentID.String()),
		zap.String("reason", reason),
	)
	return nil
}

// ListPayments returns all payments with pagination (admin).
func (s *PaymentService) ListPayments(ctx context.Context, page, limit int) ([]*PaymentDTO, int64, error) {
	payments, total, err := s.payments.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]*PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos, total, nil
}

// RevenueStats summarizes verified revenue and payment counts (admin).
func (s *PaymentService) RevenueStats(ctx context.Context) (*RevenueStatsDTO, error) {
	totalMinor, counts, err := s.payments.RevenueStats(ctx)
	if err != nil {
		return nil, err
	}
	return &RevenueStatsDTO{
		TotalRevenueMinor: totalMinor,
		CountByStatus:     counts,
	}, nil
}

func toPaymentDTO(p *paymentDomain.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:          p.ID(),
		BookingID:   p.BookingID(),
		AmountMinor: p.AmountMinor(),
		Currency:    p.Currency(),
		Status:      string(p.Status()),
		Reference:   p.Reference(),
		CheckoutURL: p.CheckoutURL(),
		VerifiedAt:  p.VerifiedAt(),
		FailReason:  p.FailReason(),
		CreatedAt:   p.CreatedAt(),
	}
}
