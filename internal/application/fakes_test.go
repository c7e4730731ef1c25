package application

import (
	"context"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/sparklean/service-booking/internal/domain/booking"
	catalogDomain "github.com/sparklean/service-booking/internal/domain/catalog"
	paymentDomain "github.com/sparklean/service-booking/internal/domain/payment"
	promoDomain "github.com/sparklean/service-booking/internal/domain/promo"
	"github.com/sparklean/service-booking/internal/domain/shared"
	"github.com/sparklean/service-booking/internal/pkg/kafka"
)

// fakePublisher records published events in memory.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	topic string
	event kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
	return nil
}

func (p *fakePublisher) published(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakePromoRepo is an in-memory promo store enforcing the one-claimed-per
// (code, sessionID) constraint the way the database does.
type fakePromoRepo struct {
	mu     sync.Mutex
	codes  map[string]*promoDomain.PromoCode
	claims map[uuid.UUID]*promoDomain.Claim

	// beforeSaveClaim runs inside SaveClaim before the constraint check,
	// letting tests interleave a competing insert.
	beforeSaveClaim func()
	updateErr       error
}

func newFakePromoRepo() *fakePromoRepo {
	return &fakePromoRepo{
		codes:  make(map[string]*promoDomain.PromoCode),
		claims: make(map[uuid.UUID]*promoDomain.Claim),
	}
}

func (r *fakePromoRepo) SaveCode(_ context.Context, p *promoDomain.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[p.Code()] = p
	return nil
}

func (r *fakePromoRepo) FindCode(_ context.Context, code string) (*promoDomain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.codes[code]
	if !ok {
		return nil, shared.NewNotFoundError("PromoCode", code)
	}
	return p, nil
}

func (r *fakePromoRepo) ListActiveCodes(_ context.Context) ([]*promoDomain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*promoDomain.PromoCode
	for _, p := range r.codes {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromoRepo) SaveClaim(_ context.Context, c *promoDomain.Claim) error {
	if r.beforeSaveClaim != nil {
		hook := r.beforeSaveClaim
		r.beforeSaveClaim = nil
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.claims {
		if existing.Code() == c.Code() && existing.SessionID() == c.SessionID() && existing.IsClaimed() {
			return promoDomain.ErrDuplicateClaim
		}
	}
	r.claims[c.ID()] = c
	return nil
}

func (r *fakePromoRepo) FindClaim(_ context.Context, code, sessionID string, status promoDomain.ClaimStatus) (*promoDomain.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.claims {
		if c.Code() == code && c.SessionID() == sessionID && c.Status() == status {
			return c, nil
		}
	}
	return nil, shared.NewNotFoundError("Claim", code)
}

func (r *fakePromoRepo) FindClaimByID(_ context.Context, id uuid.UUID) (*promoDomain.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return nil, shared.NewNotFoundError("Claim", id.String())
	}
	return c, nil
}

func (r *fakePromoRepo) UpdateClaimStatus(_ context.Context, id uuid.UUID, status promoDomain.ClaimStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	c, ok := r.claims[id]
	if !ok {
		return shared.NewNotFoundError("Claim", id.String())
	}
	r.claims[id] = promoDomain.ReconstructClaim(
		c.ID(), c.Code(), c.SessionID(), c.ServiceSlug(), c.UserID(),
		status, c.ExpiresAt(), reason, c.CreatedAt(), c.UpdatedAt(),
	)
	return nil
}

func (r *fakePromoRepo) ListClaims(_ context.Context, page, limit int) ([]*promoDomain.Claim, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*promoDomain.Claim, 0, len(r.claims))
	for _, c := range r.claims {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

// fakeCatalogRepo is an in-memory catalog store.
type fakeCatalogRepo struct {
	mu       sync.Mutex
	services map[string]*catalogDomain.CleaningService
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{services: make(map[string]*catalogDomain.CleaningService)}
}

func (r *fakeCatalogRepo) Save(_ context.Context, s *catalogDomain.CleaningService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[s.Slug()] = s
	return nil
}

func (r *fakeCatalogRepo) Update(_ context.Context, s *catalogDomain.CleaningService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[s.Slug()] = s
	return nil
}

func (r *fakeCatalogRepo) FindBySlug(_ context.Context, slug string) (*catalogDomain.CleaningService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[slug]
	if !ok {
		return nil, shared.NewNotFoundError("CleaningService", slug)
	}
	return s, nil
}

func (r *fakeCatalogRepo) ListActive(_ context.Context) ([]*catalogDomain.CleaningService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*catalogDomain.CleaningService
	for _, s := range r.services {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeBookingRepo is an in-memory booking store with version checking.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	versions map[uuid.UUID]int64
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		versions: make(map[uuid.UUID]int64),
	}
}

func (r *fakeBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = b
	r.versions[b.ID()] = b.Version()
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.versions[b.ID()]
	if !ok {
		return shared.NewNotFoundError("Booking", b.ID().String())
	}
	if stored != b.Version()-1 {
		return shared.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[b.ID()] = b
	r.versions[b.ID()] = b.Version()
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, shared.NewNotFoundError("Booking", id.String())
	}
	return b, nil
}

func (r *fakeBookingRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return b.CustomerID() == customerID })
}

func (r *fakeBookingRepo) ListByCleaner(_ context.Context, cleanerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(b *bookingDomain.Booking) bool {
		return b.CleanerID() != nil && *b.CleanerID() == cleanerID
	})
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(*bookingDomain.Booking) bool { return true })
}

func (r *fakeBookingRepo) filter(keep func(*bookingDomain.Booking) bool) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

// fakePaymentRepo is an in-memory payment store with version checking.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*paymentDomain.Payment
	versions map[uuid.UUID]int64
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: make(map[uuid.UUID]*paymentDomain.Payment),
		versions: make(map[uuid.UUID]int64),
	}
}

func (r *fakePaymentRepo) Save(_ context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID()] = p
	r.versions[p.ID()] = p.Version()
	return nil
}

func (r *fakePaymentRepo) Update(_ context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.versions[p.ID()]
	if !ok {
		return shared.NewNotFoundError("Payment", p.ID().String())
	}
	if stored != p.Version()-1 {
		return shared.NewConflictError("payment was modified by another transaction")
	}
	r.payments[p.ID()] = p
	r.versions[p.ID()] = p.Version()
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, shared.NewNotFoundError("Payment", id.String())
	}
	return p, nil
}

func (r *fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID() == bookingID {
			return p, nil
		}
	}
	return nil, shared.NewNotFoundError("Payment", bookingID.String())
}

func (r *fakePaymentRepo) FindByReference(_ context.Context, reference string) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.Reference() == reference {
			return p, nil
		}
	}
	return nil, shared.NewNotFoundError("Payment", reference)
}

func (r *fakePaymentRepo) ListAll(_ context.Context, page, limit int) ([]*paymentDomain.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*paymentDomain.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) RevenueStats(_ context.Context) (int64, map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	counts := make(map[string]int64)
	for _, p := range r.payments {
		counts[string(p.Status())]++
		if p.Status() == paymentDomain.StatusVerified {
			total += p.AmountMinor()
		}
	}
	return total, counts, nil
}
