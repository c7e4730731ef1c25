package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	paymentDomain "github.com/sparklean/service-booking/internal/domain/payment"
	"github.com/sparklean/service-booking/internal/domain/shared"
)

// PaymentModel is the GORM persistence model for the payments table.
type PaymentModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	AmountMinor int64      `gorm:"not null"`
	Currency    string     `gorm:"type:varchar(3);not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Reference   string     `gorm:"type:varchar(100);index"`
	CheckoutURL string     `gorm:"type:text"`
	VerifiedAt  *time.Time `gorm:"type:timestamptz"`
	FailReason  string     `gorm:"type:text"`
	Version     int64      `gorm:"not null;default:1"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormPaymentRepository is the GORM-based implementation of the payment
// repository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new GORM-based payment repository.
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save persists a new payment aggregate.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model := paymentToModel(p)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing payment with optimistic locking.
func (r *GormPaymentRepository) Update(ctx context.Context, p *paymentDomain.Payment) error {
	model := paymentToModel(p)
	previousVersion := p.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("*").Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("payment was modified by another transaction")
	}
	return nil
}

// FindByID retrieves a payment by its unique ID.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Payment", id.String())
		}
		return nil, err
	}
	return paymentToDomain(&model), nil
}

// FindByBookingID retrieves a payment by the associated booking ID.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Payment", bookingID.String())
		}
		return nil, err
	}
	return paymentToDomain(&model), nil
}

// FindByReference retrieves a payment by its gateway transaction reference.
func (r *GormPaymentRepository) FindByReference(ctx context.Context, reference string) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Payment", reference)
		}
		return nil, err
	}
	return paymentToDomain(&model), nil
}

// ListAll retrieves all payments with pagination (admin).
func (r *GormPaymentRepository) ListAll(ctx context.Context, page, limit int) ([]*paymentDomain.Payment, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&PaymentModel{}).Count(&total)

	var models []PaymentModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i := range models {
		payments[i] = paymentToDomain(&models[i])
	}
	return payments, total, nil
}

// RevenueStats returns verified revenue in minor units and payment counts
// by status (admin).
func (r *GormPaymentRepository) RevenueStats(ctx context.Context) (int64, map[string]int64, error) {
	var totalMinor int64
	r.db.WithContext(ctx).Model(&PaymentModel{}).
		Where("status = ?", string(paymentDomain.StatusVerified)).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&totalMinor)

	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&PaymentModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return 0, nil, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return totalMinor, counts, nil
}

// paymentToDomain maps a PaymentModel to the domain Payment aggregate.
func paymentToDomain(model *PaymentModel) *paymentDomain.Payment {
	return paymentDomain.Reconstitute(
		model.ID,
		model.BookingID,
		model.CustomerID,
		model.AmountMinor,
		model.Currency,
		paymentDomain.Status(model.Status),
		model.Reference,
		model.CheckoutURL,
		model.VerifiedAt,
		model.FailReason,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// paymentToModel maps a domain Payment aggregate to a PaymentModel.
func paymentToModel(p *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID(),
		BookingID:   p.BookingID(),
		CustomerID:  p.CustomerID(),
		AmountMinor: p.AmountMinor(),
		Currency:    p.Currency(),
		Status:      string(p.Status()),
		Reference:   p.Reference(),
		CheckoutURL: p.CheckoutURL(),
		VerifiedAt:  p.VerifiedAt(),
		FailReason:  p.FailReason(),
		Version:     p.Version(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}
