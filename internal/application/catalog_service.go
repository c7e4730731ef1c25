package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	catalogDomain "github.com/sparklean/service-booking/internal/domain/catalog"
	"github.com/sparklean/service-booking/internal/domain/shared"
)

// CreateServiceRequest holds data to create a catalog entry.
type CreateServiceRequest struct {
	Slug         string               `json:"slug" binding:"required"`
	Name         string               `json:"name" binding:"required"`
	Description  string               `json:"description"`
	BasePrice    float64              `json:"base_price" binding:"required"`
	BedroomRate  float64              `json:"bedroom_rate"`
	BathroomRate float64              `json:"bathroom_rate"`
	DurationMins int                  `json:"duration_mins"`
	Extras       []ExtraRequest       `json:"extras"`
}

// ExtraRequest describes one add-on in a create or update request.
type ExtraRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"required"`
}

// ServiceDTO is the API response representation of a catalog entry.
type ServiceDTO struct {
	ID           uuid.UUID  `json:"id"`
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	BasePrice    float64    `json:"base_price"`
	BedroomRate  float64    `json:"bedroom_rate"`
	BathroomRate float64    `json:"bathroom_rate"`
	DurationMins int        `json:"duration_mins"`
	Active       bool       `json:"active"`
	Extras       []ExtraDTO `json:"extras"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ExtraDTO is the API representation of an add-on.
type ExtraDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// CatalogService handles catalog use cases.
type CatalogService struct {
	repo   catalogDomain.Repository
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo catalogDomain.Repository, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// CreateService adds a new cleaning service to the catalog (admin only).
func (s *CatalogService) CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceDTO, error) {
	svc, err := catalogDomain.NewCleaningService(
		req.Slug, req.Name, req.Description,
		req.BasePrice, req.BedroomRate, req.BathroomRate,
		req.DurationMins,
	)
	if err != nil {
		return nil, shared.NewValidationError(err.Error())
	}

	if len(req.Extras) > 0 {
		extras := make([]catalogDomain.Extra, len(req.Extras))
		for i, e := range req.Extras {
			extras[i] = catalogDomain.Extra{ID: uuid.New(), Name: e.Name, Price: e.Price}
		}
		svc.SetExtras(extras)
	}

	if err := s.repo.Save(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to save service: %w", err)
	}

	s.logger.Info("cleaning service created", zap.String("slug", svc.Slug()))
	return toServiceDTO(svc), nil
}

// GetService returns one catalog entry by slug.
func (s *CatalogService) GetService(ctx context.Context, slug string) (*ServiceDTO, error) {
	svc, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return toServiceDTO(svc), nil
}

// ListServices returns the active catalog.
func (s *CatalogService) ListServices(ctx context.Context) ([]*ServiceDTO, error) {
	services, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]*ServiceDTO, len(services))
	for i, svc := range services {
		dtos[i] = toServiceDTO(svc)
	}
	return dtos, nil
}

// DeactivateService removes a service from the public catalog (admin only).
func (s *CatalogService) DeactivateService(ctx context.Context, slug string) error {
	svc, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	svc.Deactivate()
	if err := s.repo.Update(ctx, svc); err != nil {
		return fmt.Errorf("failed to deactivate service: %w", err)
	}

	s.logger.Info("cleaning service deactivated", zap.String("slug", slug))
	return nil
}

func toServiceDTO(svc *catalogDomain.CleaningService) *ServiceDTO {
	extras := make([]ExtraDTO, len(svc.Extras()))
	for i, e := range svc.Extras() {
		extras[i] = ExtraDTO{ID: e.ID, Name: e.Name, Price: e.Price}
	}
	return &ServiceDTO{
		ID:           svc.ID(),
		Slug:         svc.Slug(),
		Name:         svc.Name(),
		Description:  svc.Description(),
		BasePrice:    svc.BasePrice(),
		BedroomRate:  svc.BedroomRate(),
		BathroomRate: svc.BathroomRate(),
		DurationMins: svc.DurationMins(),
		Active:       svc.Active(),
		Extras:       extras,
		CreatedAt:    svc.CreatedAt(),
	}
}
