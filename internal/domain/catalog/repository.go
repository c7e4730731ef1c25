package catalog

import "context"

// Repository defines persistence for the service catalog.
type Repository interface {
	Save(ctx context.Context, s *CleaningService) error
	Update(ctx context.Context, s *CleaningService) error
	FindBySlug(ctx context.Context, slug string) (*CleaningService, error)
	ListActive(ctx context.Context) ([]*CleaningService, error)
}
