package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogDomain "github.com/sparklean/service-booking/internal/domain/catalog"
	"github.com/sparklean/service-booking/internal/domain/shared"
)

// ServiceModel is the GORM model for the cleaning_services table.
type ServiceModel struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Slug         string       `gorm:"type:varchar(100);uniqueIndex;not null"`
	Name         string       `gorm:"type:varchar(200);not null"`
	Description  string       `gorm:"type:text"`
	BasePrice    float64      `gorm:"not null"`
	BedroomRate  float64      `gorm:"not null"`
	BathroomRate float64      `gorm:"not null"`
	DurationMins int          `gorm:"not null;default:0"`
	Active       bool         `gorm:"not null;default:true"`
	Extras       []ExtraModel `gorm:"foreignKey:ServiceID"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the table name.
func (ServiceModel) TableName() string { return "cleaning_services" }

// ExtraModel is the GORM model for the service_extras table.
type ExtraModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Price     float64   `gorm:"not null"`
}

// TableName sets the table name.
func (ExtraModel) TableName() string { return "service_extras" }

// GormCatalogRepository implements catalog.Repository using GORM.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository.
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// Save persists a new catalog entry and its extras.
func (r *GormCatalogRepository) Save(ctx context.Context, s *catalogDomain.CleaningService) error {
	model := toServiceModel(s)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update replaces a catalog entry and its extras.
func (r *GormCatalogRepository) Update(ctx context.Context, s *catalogDomain.CleaningService) error {
	model := toServiceModel(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", model.ID).Delete(&ExtraModel{}).Error; err != nil {
			return err
		}
		return tx.Save(&model).Error
	})
}

// FindBySlug returns a catalog entry by its slug.
func (r *GormCatalogRepository) FindBySlug(ctx context.Context, slug string) (*catalogDomain.CleaningService, error) {
	var model ServiceModel
	err := r.db.WithContext(ctx).
		Preload("Extras").
		Where("slug = ?", slug).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("CleaningService", slug)
		}
		return nil, err
	}
	return toServiceDomain(&model), nil
}

// ListActive returns all active catalog entries.
func (r *GormCatalogRepository) ListActive(ctx context.Context) ([]*catalogDomain.CleaningService, error) {
	var models []ServiceModel
	if err := r.db.WithContext(ctx).
		Preload("Extras").
		Where("active = ?", true).
		Order("name ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	services := make([]*catalogDomain.CleaningService, len(models))
	for i := range models {
		services[i] = toServiceDomain(&models[i])
	}
	return services, nil
}

func toServiceModel(s *catalogDomain.CleaningService) ServiceModel {
	extras := make([]ExtraModel, len(s.Extras()))
	for i, e := range s.Extras() {
		id := e.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		extras[i] = ExtraModel{
			ID:        id,
			ServiceID: s.ID(),
			Name:      e.Name,
			Price:     e.Price,
		}
	}
	return ServiceModel{
		ID:           s.ID(),
		Slug:         s.Slug(),
		Name:         s.Name(),
		Description:  s.Description(),
		BasePrice:    s.BasePrice(),
		BedroomRate:  s.BedroomRate(),
		BathroomRate: s.BathroomRate(),
		DurationMins: s.DurationMins(),
		Active:       s.Active(),
		Extras:       extras,
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

func toServiceDomain(m *ServiceModel) *catalogDomain.CleaningService {
	extras := make([]catalogDomain.Extra, len(m.Extras))
	for i, e := range m.Extras {
		extras[i] = catalogDomain.Extra{ID: e.ID, Name: e.Name, Price: e.Price}
	}
	return catalogDomain.Reconstruct(
		m.ID, m.Slug, m.Name, m.Description,
		m.BasePrice, m.BedroomRate, m.BathroomRate,
		m.DurationMins, m.Active, extras,
		m.CreatedAt, m.UpdatedAt,
	)
}
