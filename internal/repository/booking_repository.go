package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/sparklean/service-booking/internal/domain/booking"
	"github.com/sparklean/service-booking/internal/domain/pricing"
	"github.com/sparklean/service-booking/internal/domain/shared"
)

// BookingModel is the GORM persistence model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ServiceSlug   string     `gorm:"type:varchar(100);not null"`
	BedroomCount  int        `gorm:"not null;default:0"`
	BathroomCount int        `gorm:"not null;default:0"`
	Extras        []string   `gorm:"type:jsonb;serializer:json"`
	Frequency     string     `gorm:"type:varchar(20);not null;default:'one-time'"`
	ScheduledDate *time.Time `gorm:"type:timestamptz"`
	TimeSlot      string     `gorm:"type:varchar(50)"`
	Address       string     `gorm:"type:text"`
	CleanerID     *uuid.UUID `gorm:"type:uuid;index"`

	PromoClaimID *uuid.UUID `gorm:"type:uuid"`
	PromoCode    string     `gorm:"type:varchar(50)"`
	PromoKind    string     `gorm:"type:varchar(10)"`
	PromoValue   float64

	QuoteSubtotal          float64 `gorm:"not null;default:0"`
	QuoteFrequencyDiscount float64 `gorm:"not null;default:0"`
	QuotePromoDiscount     float64 `gorm:"not null;default:0"`
	QuoteServiceFee        float64 `gorm:"not null;default:0"`
	QuoteTotal             float64 `gorm:"not null;default:0"`

	Status    string    `gorm:"type:varchar(20);not null;default:'draft';index"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// Save persists a new booking aggregate.
func (r *GormBookingRepository) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model := bookingToModel(b)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing booking with optimistic locking.
// All columns are written so that cleared fields (promo, schedule) persist
// as NULL instead of being skipped as zero values.
func (r *GormBookingRepository) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model := bookingToModel(b)
	previousVersion := b.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("*").Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// FindByID retrieves a booking by its unique ID.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return bookingToDomain(&model), nil
}

// ListByCustomer retrieves a customer's bookings with pagination.
func (r *GormBookingRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, page, limit, "customer_id = ?", customerID)
}

// ListByCleaner retrieves a cleaner's assigned bookings with pagination.
func (r *GormBookingRepository) ListByCleaner(ctx context.Context, cleanerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, page, limit, "cleaner_id = ?", cleanerID)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, page, limit, "")
}

func (r *GormBookingRepository) list(ctx context.Context, page, limit int, cond string, args ...interface{}) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if cond != "" {
		query = query.Where(cond, args...)
	}

	var total int64
	query.Count(&total)

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = bookingToDomain(&models[i])
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// bookingToDomain maps a BookingModel to the domain Booking aggregate.
func bookingToDomain(model *BookingModel) *bookingDomain.Booking {
	var promo *bookingDomain.PromoRef
	if model.PromoClaimID != nil {
		promo = &bookingDomain.PromoRef{
			ClaimID: *model.PromoClaimID,
			Code:    model.PromoCode,
			Discount: pricing.Discount{
				Kind:  pricing.DiscountKind(model.PromoKind),
				Value: model.PromoValue,
			},
		}
	}

	quote := pricing.Result{
		Subtotal:          model.QuoteSubtotal,
		FrequencyDiscount: model.QuoteFrequencyDiscount,
		PromoDiscount:     model.QuotePromoDiscount,
		ServiceFee:        model.QuoteServiceFee,
		Total:             model.QuoteTotal,
	}

	return bookingDomain.Reconstitute(
		model.ID,
		model.CustomerID,
		model.ServiceSlug,
		model.BedroomCount,
		model.BathroomCount,
		model.Extras,
		pricing.Frequency(model.Frequency),
		model.ScheduledDate,
		model.TimeSlot,
		model.Address,
		model.CleanerID,
		promo,
		quote,
		bookingDomain.Status(model.Status),
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// bookingToModel maps a domain Booking aggregate to a BookingModel.
func bookingToModel(b *bookingDomain.Booking) *BookingModel {
	model := &BookingModel{
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

		QuoteSubtotal:          b.Quote().Subtotal,
		QuoteFrequencyDiscount: b.Quote().FrequencyDiscount,
		QuotePromoDiscount:     b.Quote().PromoDiscount,
		QuoteServiceFee:        b.Quote().ServiceFee,
		QuoteTotal:             b.Quote().Total,

		Status:    string(b.Status()),
		Version:   b.Version(),
		CreatedAt: b.CreatedAt(),
		UpdatedAt: b.UpdatedAt(),
	}

	if p := b.Promo(); p != nil {
		claimID := p.ClaimID
		model.PromoClaimID = &claimID
		model.PromoCode = p.Code
		model.PromoKind = string(p.Discount.Kind)
		model.PromoValue = p.Discount.Value
	}
	return model
}
