package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/sparklean/service-booking/internal/domain/booking"
	catalogDomain "github.com/sparklean/service-booking/internal/domain/catalog"
	"github.com/sparklean/service-booking/internal/domain/pricing"
	promoDomain "github.com/sparklean/service-booking/internal/domain/promo"
	"github.com/sparklean/service-booking/internal/domain/shared"
	"github.com/sparklean/service-booking/internal/events"
	"github.com/sparklean/service-booking/internal/pkg/kafka"
)

const revokeTimeout = 5 * time.Second

// StartBookingRequest opens a new draft for a service.
type StartBookingRequest struct {
	ServiceSlug string `json:"service_slug" binding:"required"`
}

// ChangeServiceRequest switches the draft's selected service.
type ChangeServiceRequest struct {
	ServiceSlug string `json:"service_slug" binding:"required"`
}

// SetPropertyRequest records the property details step.
type SetPropertyRequest struct {
	BedroomCount  int      `json:"bedroom_count"`
	BathroomCount int      `json:"bathroom_count"`
	Extras        []string `json:"extras"`
}

// SetScheduleRequest records the schedule step.
type SetScheduleRequest struct {
	Date      string `json:"date" binding:"required"`
	TimeSlot  string `json:"time_slot" binding:"required"`
	Address   string `json:"address" binding:"required"`
	Frequency string `json:"frequency"`
}

// ApplyPromoRequest attaches a promo code to the draft.
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// BookingDTO is the API response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID      `json:"id"`
	CustomerID    uuid.UUID      `json:"customer_id"`
	ServiceSlug   string         `json:"service_slug"`
	BedroomCount  int            `json:"bedroom_count"`
	BathroomCount int            `json:"bathroom_count"`
	Extras        []string       `json:"extras"`
	Frequency     string         `json:"frequency"`
	ScheduledDate *time.Time     `json:"scheduled_date,omitempty"`
	TimeSlot      string         `json:"time_slot,omitempty"`
	Address       string         `json:"address,omitempty"`
	CleanerID     *uuid.UUID     `json:"cleaner_id,omitempty"`
	PromoCode     string         `json:"promo_code,omitempty"`
	Quote         pricing.Result `json:"quote"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// BookingService handles the booking wizard and lifecycle use cases. It
// also implements events.PaymentEventHandler so payment outcomes drive
// booking state.
type BookingService struct {
	bookings bookingDomain.Repository
	catalog  catalogDomain.Repository
	promos   promoDomain.Repository
	promoSvc *PromoService
	producer kafka.EventPublisher
	feeRate  float64
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	catalog catalogDomain.Repository,
	promos promoDomain.Repository,
	promoSvc *PromoService,
	producer kafka.EventPublisher,
	feeRate float64,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		catalog:  catalog,
		promos:   promos,
		promoSvc: promoSvc,
		producer: producer,
		feeRate:  feeRate,
		logger:   logger,
	}
}

// StartBooking opens a draft for a customer and prices the empty
// configuration.
func (s *BookingService) StartBooking(ctx context.Context, customerID uuid.UUID, req StartBookingRequest) (*BookingDTO, error) {
	svc, err := s.catalog.FindBySlug(ctx, req.ServiceSlug)
	if err != nil {
		return nil, err
	}
	if !svc.Active() {
		return nil, shared.NewValidationError("service is not available for booking")
	}

	b, err := bookingDomain.New(customerID, svc.Slug())
	if err != nil {
		return nil, err
	}
	s.applyQuote(b, svc)

	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking draft started",
		zap.String("booking_id", b.ID().String()),
		zap.String("service", b.ServiceSlug()),
	)
	return toBookingDTO(b), nil
}

// GetBooking returns one booking, restricted to its customer, its assigned
// cleaner, or an admin.
func (s *BookingService) GetBooking(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.CustomerID() != requesterID {
		cleaner := b.CleanerID()
		if cleaner == nil || *cleaner != requesterID {
			return nil, shared.NewUnauthorizedError("booking belongs to another customer")
		}
	}
	return toBookingDTO(b), nil
}

// ChangeService switches the draft to another service. An attached promo
// claimed for the old service is cleared from the booking immediately; its
// claim is revoked in the background and never blocks the change.
func (s *BookingService) ChangeService(ctx context.Context, customerID, id uuid.UUID, req ChangeServiceRequest) (*BookingDTO, error) {
	b, err := s.ownedDraft(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	svc, err := s.catalog.FindBySlug(ctx, req.ServiceSlug)
	if err != nil {
		return nil, err
	}
	if !svc.Active() {
		return nil, shared.NewValidationError("service is not available for booking")
	}

	oldSlug := b.ServiceSlug()
	if err := b.SetService(svc.Slug()); err != nil {
		return nil, err
	}
	s.reconcilePromo(ctx, b, oldSlug, svc.Slug())
	s.applyQuote(b, svc)

	if err := s.update(ctx, b); err != nil {
		return nil, err
	}
	return toBookingDTO(b), nil
}

// SetProperty records the property details step and reprices.
func (s *BookingService) SetProperty(ctx context.Context, customerID, id uuid.UUID, req SetPropertyRequest) (*BookingDTO, error) {
	b, err := s.ownedDraft(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	if err := b.SetProperty(req.BedroomCount, req.BathroomCount, req.Extras); err != nil {
		return nil, err
	}
	if err := s.repriceAndUpdate(ctx, b); err != nil {
		return nil, err
	}
	return toBookingDTO(b), nil
}

// SetSchedule records the schedule step and reprices.
func (s *BookingService) SetSchedule(ctx context.Context, customerID, id uuid.UUID, req SetScheduleRequest) (*BookingDTO, error) {
	b, err := s.ownedDraft(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, shared.NewValidationError("invalid date format (use RFC3339)")
	}

	if err := b.SetSchedule(date, req.TimeSlot, req.Address, pricing.Frequency(req.Frequency)); err != nil {
		return nil, err
	}
	if err := s.repriceAndUpdate(ctx, b); err != nil {
		return nil, err
	}
	return toBookingDTO(b), nil
}

// AssignCleaner records the chosen cleaner for the draft.
func (s *BookingService) AssignCleaner(ctx context.Context, customerID, id, cleanerID uuid.UUID) (*BookingDTO, error) {
	b, err := s.ownedDraft(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	if err := b.AssignCleaner(cleanerID); err != nil {
		return nil, err
	}
	if err := s.update(ctx, b); err != nil {
		return nil, err
	}
	return toBookingDTO(b), nil
}

// ApplyPromo claims a code for the session and attaches it to the draft.
func (s *BookingService) ApplyPromo(ctx context.Context, customerID uuid.UUID, sessionID string, id uuid.UUID, req ApplyPromoRequest) (*BookingDTO, error) {
	b, err := s.ownedDraft(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	claim, err := s.promoSvc.ClaimPromo(ctx, customerID, sessionID, ClaimPromoRequest{
		Code:        req.Code,
		ServiceSlug: b.ServiceSlug(),
	})
	if err != nil {
		return nil, err
	}

	code, err := s.promos.FindCode(ctx, claim.Code)
	if err != nil {
		return nil, err
	}

	if err := b.AttachPromo(bookingDomain.PromoRef{
		ClaimID:  claim.ID,
		Code:     code.Code(),
		Discount: code.Discount(),
	}); err != nil {
		return nil, err
	}
	if err := s.repriceAndUpdate(ctx, b); err != nil {
		return nil, err
	}
	return toBookingDTO(b), nil
}

// RemovePromo detaches the promo from the draft and revokes the claim in
// the background.
func (s *BookingService) RemovePromo(ctx context.Context, customerID, id uuid.UUID) (*BookingDTO, error) {
	b, err := s.ownedDraft(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	if ref := b.Promo(); ref != nil {
		b.ClearPromo()
		s.revokeInBackground(ref.ClaimID, "promo removed from booking")
	}
	if err := s.repriceAndUpdate(ctx, b); err != nil {
		return nil, err
	}
	return toBookingDTO(b), nil
}

// CancelBooking ends a booking and publishes an event.
func (s *BookingService) CancelBooking(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID, reason string) error {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && b.CustomerID() != requesterID {
		return shared.NewUnauthorizedError("booking belongs to another customer")
	}

	if err := b.Cancel(); err != nil {
		return err
	}
	if err := s.update(ctx, b); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:   b.ID(),
		CancelledBy: requesterID,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})

	s.logger.Info("booking cancelled",
		zap.String("booking_id", b.ID().String()),
		zap.String("reason", reason),
	)
	return nil
}

// CompleteBooking marks a confirmed booking done. Only the assigned
// cleaner may complete it.
func (s *BookingService) CompleteBooking(ctx context.Context, cleanerID, id uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assigned := b.CleanerID(); assigned == nil || *assigned != cleanerID {
		return nil, shared.NewUnauthorizedError("booking is not assigned to this cleaner")
	}

	if err := b.Complete(); err != nil {
		return nil, err
	}
	if err := s.update(ctx, b); err != nil {
		return nil, err
	}
	return toBookingDTO(b), nil
}

// ListMyBookings returns a customer's bookings with pagination.
func (s *BookingService) ListMyBookings(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListByCustomer(ctx, customerID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bookings), total, nil
}

// ListCleanerJobs returns a cleaner's assigned bookings with pagination.
func (s *BookingService) ListCleanerJobs(ctx context.Context, cleanerID uuid.UUID, page, limit int) ([]*BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListByCleaner(ctx, cleanerID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bookings), total, nil
}

// ListAllBookings returns every booking with pagination (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]*BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bookings), total, nil
}

// BookingStats returns booking counts grouped by status (admin).
func (s *BookingService) BookingStats(ctx context.Context) (map[string]int64, error) {
	return s.bookings.CountByStatus(ctx)
}

// HandlePaymentVerified confirms the booking once its payment clears.
func (s *BookingService) HandlePaymentVerified(ctx context.Context, event events.PaymentVerifiedEvent) error {
	b, err := s.bookings.FindByID(ctx, event.BookingID)
	if err != nil {
		return err
	}

	if err := b.Confirm(); err != nil {
		// Replayed or out-of-order delivery; the booking already moved on.
		s.logger.Warn("skipping confirm for booking not pending payment",
			zap.String("booking_id", b.ID().String()),
			zap.String("status", string(b.Status())),
		)
		return nil
	}
	if err := s.update(ctx, b); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingConfirmed, events.BookingConfirmedEvent{
		BookingID:   b.ID(),
		CustomerID:  b.CustomerID(),
		CleanerID:   b.CleanerID(),
		ServiceSlug: b.ServiceSlug(),
		OccurredAt:  time.Now().UTC(),
	})

	s.logger.Info("booking confirmed", zap.String("booking_id", b.ID().String()))
	return nil
}

// HandlePaymentFailed reopens the draft so the customer can retry.
func (s *BookingService) HandlePaymentFailed(ctx context.Context, event events.PaymentFailedEvent) error {
	b, err := s.bookings.FindByID(ctx, event.BookingID)
	if err != nil {
		return err
	}

	if err := b.ReopenDraft(); err != nil {
		s.logger.Warn("skipping reopen for booking not pending payment",
			zap.String("booking_id", b.ID().String()),
			zap.String("status", string(b.Status())),
		)
		return nil
	}
	if err := s.update(ctx, b); err != nil {
		return err
	}

	s.logger.Info("booking reopened after failed payment",
		zap.String("booking_id", b.ID().String()),
		zap.String("reason", event.Reason),
	)
	return nil
}

// --- helpers ---

func (s *BookingService) ownedDraft(ctx context.Context, customerID, id uuid.UUID) (*bookingDomain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.CustomerID() != customerID {
		return nil, shared.NewUnauthorizedError("booking belongs to another customer")
	}
	return b, nil
}

// reconcilePromo clears a promo whose claim does not cover the new service.
// The local clear is synchronous; the claim revoke runs detached so a slow
// or failing revoke cannot block the wizard.
func (s *BookingService) reconcilePromo(ctx context.Context, b *bookingDomain.Booking, oldSlug, newSlug string) {
	ref := b.Promo()
	if ref == nil {
		return
	}

	claim, err := s.promos.FindClaimByID(ctx, ref.ClaimID)
	if err != nil {
		s.logger.Warn("failed to load claim during service change, clearing promo",
			zap.String("claim_id", ref.ClaimID.String()),
			zap.Error(err),
		)
		b.ClearPromo()
		return
	}
	if promoDomain.IsValidForService(claim, newSlug) {
		return
	}

	b.ClearPromo()
	s.revokeInBackground(ref.ClaimID, fmt.Sprintf("service changed from %s to %s", oldSlug, newSlug))
}

func (s *BookingService) revokeInBackground(claimID uuid.UUID, reason string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
		defer cancel()
		if err := s.promoSvc.RevokeClaim(ctx, claimID, reason); err != nil {
			s.logger.Warn("background claim revoke failed",
				zap.String("claim_id", claimID.String()),
				zap.Error(err),
			)
		}
	}()
}

// repriceAndUpdate recomputes the quote from the current catalog rates and
// persists the booking.
func (s *BookingService) repriceAndUpdate(ctx context.Context, b *bookingDomain.Booking) error {
	svc, err := s.catalog.FindBySlug(ctx, b.ServiceSlug())
	if err != nil {
		return err
	}
	s.applyQuote(b, svc)
	return s.update(ctx, b)
}

func (s *BookingService) applyQuote(b *bookingDomain.Booking, svc *catalogDomain.CleaningService) {
	var discount *pricing.Discount
	if ref := b.Promo(); ref != nil {
		d := ref.Discount
		discount = &d
	}

	b.SetQuote(pricing.Compute(pricing.Input{
		BasePrice:     svc.BasePrice(),
		BedroomCount:  b.BedroomCount(),
		BathroomCount: b.BathroomCount(),
		ExtrasTotal:   svc.ExtrasTotal(b.Extras()),
		Frequency:     b.Frequency(),
		Promo:         discount,
		Rates:         svc.Rates(s.feeRate),
	}))
}

func (s *BookingService) update(ctx context.Context, b *bookingDomain.Booking) error {
	b.IncrementVersion()
	return s.bookings.Update(ctx, b)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	ce, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, topic, ce); err != nil {
		s.logger.Error("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func toBookingDTO(b *bookingDomain.Booking) *BookingDTO {
	dto := &BookingDTO{
		ID:            b.ID(),
		CustomerID:    b.CustomerID(),
		ServiceSlug:   b.ServiceSlug(),
		BedroomCount:  b.BedroomCount(),
		BathroomCount: b.BathroomCount(),
		Extras:        b.Extras(),
		Frequency:     string(b.Frequency()),
		ScheduledDate: b.ScheduledDate(),
		TimeSlot:      b.TimeSlot(),
		Address:       b.Address(),
		CleanerID:     b.CleanerID(),
		Quote:         b.Quote(),
		Status:        string(b.Status()),
		CreatedAt:     b.CreatedAt(),
		UpdatedAt:     b.UpdatedAt(),
	}
	if ref := b.Promo(); ref != nil {
		dto.PromoCode = ref.Code
	}
	return dto
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []*BookingDTO {
	dtos := make([]*BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos
}
