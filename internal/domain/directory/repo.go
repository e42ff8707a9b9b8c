package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
)

// ErrNotFound is returned when no directory entry exists for the given id.
var ErrNotFound = errors.New("directory entry not found")

// DonorFilters narrows donor listings.
type DonorFilters struct {
	Name       string
	BloodType  bloodunit.BloodType
	RhFactor   bloodunit.RhFactor
	ActiveOnly bool
}

// OrgFilters narrows organization listings.
type OrgFilters struct {
	Name       string
	ActiveOnly bool
}

type DonorRepository interface {
	Create(ctx context.Context, d *Donor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Donor, error)
	List(ctx context.Context, f DonorFilters, limit, offset int) ([]*Donor, int, error)
	Update(ctx context.Context, d *Donor) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// OrgRepository backs one organization table; a separate instance exists for
// blood banks and for medical institutions.
type OrgRepository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	List(ctx context.Context, f OrgFilters, limit, offset int) ([]*Organization, int, error)
	Update(ctx context.Context, o *Organization) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
