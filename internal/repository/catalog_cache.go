package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	catalogDomain "github.com/sparklean/service-booking/internal/domain/catalog"
	"github.com/sparklean/service-booking/internal/pkg/cache"
)

const (
	catalogListKey    = "catalog:services"
	catalogSlugPrefix = "catalog:service:"
)

// cachedService is the serializable snapshot stored in Redis.
type cachedService struct {
	ID           uuid.UUID             `json:"id"`
	Slug         string                `json:"slug"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	BasePrice    float64               `json:"base_price"`
	BedroomRate  float64               `json:"bedroom_rate"`
	BathroomRate float64               `json:"bathroom_rate"`
	DurationMins int                   `json:"duration_mins"`
	Active       bool                  `json:"active"`
	Extras       []catalogDomain.Extra `json:"extras"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// CachedCatalogRepository wraps a catalog repository with a Redis
// cache-aside layer. Reads hit Redis first; writes invalidate.
type CachedCatalogRepository struct {
	inner  catalogDomain.Repository
	cache  *cache.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCatalogRepository creates the caching decorator.
func NewCachedCatalogRepository(inner catalogDomain.Repository, c *cache.Client, ttl time.Duration, logger *zap.Logger) *CachedCatalogRepository {
	return &CachedCatalogRepository{inner: inner, cache: c, ttl: ttl, logger: logger}
}

// Save writes through and invalidates the list cache.
func (r *CachedCatalogRepository) Save(ctx context.Context, s *catalogDomain.CleaningService) error {
	if err := r.inner.Save(ctx, s); err != nil {
		return err
	}
	r.invalidate(ctx, s.Slug())
	return nil
}

// Update writes through and invalidates both caches.
func (r *CachedCatalogRepository) Update(ctx context.Context, s *catalogDomain.CleaningService) error {
	if err := r.inner.Update(ctx, s); err != nil {
		return err
	}
	r.invalidate(ctx, s.Slug())
	return nil
}

// FindBySlug serves from cache when possible.
func (r *CachedCatalogRepository) FindBySlug(ctx context.Context, slug string) (*catalogDomain.CleaningService, error) {
	key := catalogSlugPrefix + slug

	var snap cachedService
	err := r.cache.GetJSON(ctx, key, &snap)
	if err == nil {
		return fromSnapshot(&snap), nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		// Cache trouble must not take down catalog reads.
		r.logger.Warn("catalog cache read failed", zap.String("slug", slug), zap.Error(err))
	}

	svc, err := r.inner.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetJSON(ctx, key, toSnapshot(svc), r.ttl); err != nil {
		r.logger.Warn("catalog cache write failed", zap.String("slug", slug), zap.Error(err))
	}
	return svc, nil
}

// ListActive serves the full active list from cache when possible.
func (r *CachedCatalogRepository) ListActive(ctx context.Context) ([]*catalogDomain.CleaningService, error) {
	var snaps []cachedService
	err := r.cache.GetJSON(ctx, catalogListKey, &snaps)
	if err == nil {
		services := make([]*catalogDomain.CleaningService, len(snaps))
		for i := range snaps {
			services[i] = fromSnapshot(&snaps[i])
		}
		return services, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("catalog cache read failed", zap.Error(err))
	}

	services, err := r.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	snaps = make([]cachedService, len(services))
	for i, s := range services {
		snaps[i] = *toSnapshot(s)
	}
	if err := r.cache.SetJSON(ctx, catalogListKey, snaps, r.ttl); err != nil {
		r.logger.Warn("catalog cache write failed", zap.Error(err))
	}
	return services, nil
}

func (r *CachedCatalogRepository) invalidate(ctx context.Context, slug string) {
	if err := r.cache.Delete(ctx, catalogListKey, catalogSlugPrefix+slug); err != nil {
		r.logger.Warn("catalog cache invalidation failed", zap.String("slug", slug), zap.Error(err))
	}
}

func toSnapshot(s *catalogDomain.CleaningService) *cachedService {
	return &cachedService{
		ID:           s.ID(),
		Slug:         s.Slug(),
		Name:         s.Name(),
		Description:  s.Description(),
		BasePrice:    s.BasePrice(),
		BedroomRate:  s.BedroomRate(),
		BathroomRate: s.BathroomRate(),
		DurationMins: s.DurationMins(),
		Active:       s.Active(),
		Extras:       s.Extras(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

func fromSnapshot(c *cachedService) *catalogDomain.CleaningService {
	return catalogDomain.Reconstruct(
		c.ID, c.Slug, c.Name, c.Description,
		c.BasePrice, c.BedroomRate, c.BathroomRate,
		c.DurationMins, c.Active, c.Extras,
		c.CreatedAt, c.UpdatedAt,
	)
}
