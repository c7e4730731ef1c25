package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sparklean/service-booking/internal/domain/pricing"
)

// CleaningService is one bookable offering in the catalog. It carries the
// pricing configuration the quote engine consumes.
type CleaningService struct {
	id           uuid.UUID
	slug         string
	name         string
	description  string
	basePrice    float64
	bedroomRate  float64
	bathroomRate float64
	durationMins int
	active       bool
	extras       []Extra
	createdAt    time.Time
	updatedAt    time.Time
}

// Extra is an optional add-on with a flat price.
type Extra struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// NewCleaningService creates a catalog entry. Zero room rates fall back to
// the standard rates.
func NewCleaningService(slug, name, description string, basePrice, bedroomRate, bathroomRate float64, durationMins int) (*CleaningService, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, fmt.Errorf("service slug is required")
	}
	if name == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if basePrice < 0 {
		return nil, fmt.Errorf("base price cannot be negative")
	}
	if bedroomRate == 0 {
		bedroomRate = pricing.DefaultBedroomRate
	}
	if bathroomRate == 0 {
		bathroomRate = pricing.DefaultBathroomRate
	}

	now := time.Now().UTC()
	return &CleaningService{
		id:           uuid.New(),
		slug:         slug,
		name:         name,
		description:  description,
		basePrice:    basePrice,
		bedroomRate:  bedroomRate,
		bathroomRate: bathroomRate,
		durationMins: durationMins,
		active:       true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a CleaningService from persistence.
func Reconstruct(id uuid.UUID, slug, name, description string, basePrice, bedroomRate, bathroomRate float64, durationMins int, active bool, extras []Extra, createdAt, updatedAt time.Time) *CleaningService {
	return &CleaningService{
		id: id, slug: slug, name: name, description: description,
		basePrice: basePrice, bedroomRate: bedroomRate, bathroomRate: bathroomRate,
		durationMins: durationMins, active: active, extras: extras,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Rates returns the pricing configuration for this service.
func (s *CleaningService) Rates(serviceFee float64) pricing.Rates {
	return pricing.Rates{
		BedroomRate:  s.bedroomRate,
		BathroomRate: s.bathroomRate,
		ServiceFee:   serviceFee,
	}
}

// ExtrasTotal sums the prices of the named add-ons. Unknown names are
// ignored rather than erroring, matching the lenient quote policy.
func (s *CleaningService) ExtrasTotal(names []string) float64 {
	var total float64
	for _, n := range names {
		for _, e := range s.extras {
			if e.Name == n {
				total += e.Price
				break
			}
		}
	}
	return total
}

// SetExtras replaces the add-on list.
func (s *CleaningService) SetExtras(extras []Extra) {
	s.extras = extras
	s.updatedAt = time.Now().UTC()
}

// Deactivate hides the service from the public catalog.
func (s *CleaningService) Deactivate() {
	s.active = false
	s.updatedAt = time.Now().UTC()
}

// Getters.
func (s *CleaningService) ID() uuid.UUID        { return s.id }
func (s *CleaningService) Slug() string         { return s.slug }
func (s *CleaningService) Name() string         { return s.name }
func (s *CleaningService) Description() string  { return s.description }
func (s *CleaningService) BasePrice() float64   { return s.basePrice }
func (s *CleaningService) BedroomRate() float64 { return s.bedroomRate }
func (s *CleaningService) BathroomRate() float64 { return s.bathroomRate }
func (s *CleaningService) DurationMins() int    { return s.durationMins }
func (s *CleaningService) Active() bool         { return s.active }
func (s *CleaningService) Extras() []Extra      { return s.extras }
func (s *CleaningService) CreatedAt() time.Time { return s.createdAt }
func (s *CleaningService) UpdatedAt() time.Time { return s.updatedAt }
