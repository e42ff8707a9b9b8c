package directory

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
)

// Service provides the directory of donors, blood banks, and medical
// institutions the rest of the registry references by id. Entries are
// deactivated rather than deleted so historical units and requests keep valid
// references.
type Service struct {
	donors       DonorRepository
	banks        OrgRepository
	institutions OrgRepository
	logger       zerolog.Logger
}

func NewService(donors DonorRepository, banks, institutions OrgRepository, logger zerolog.Logger) *Service {
	return &Service{donors: donors, banks: banks, institutions: institutions, logger: logger}
}

func validateDonor(d *Donor) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return fmt.Errorf("invalid email address: %q", d.Email)
	}
	switch d.BloodType {
	case bloodunit.TypeA, bloodunit.TypeB, bloodunit.TypeAB, bloodunit.TypeO:
	default:
		return fmt.Errorf("invalid blood type: %q", d.BloodType)
	}
	if d.RhFactor != bloodunit.RhPositive && d.RhFactor != bloodunit.RhNegative {
		return fmt.Errorf("invalid rh factor: %q", d.RhFactor)
	}
	if d.Coordinates != nil && !d.Coordinates.Valid() {
		return fmt.Errorf("coordinates out of range")
	}
	return nil
}

func validateOrg(o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := mail.ParseAddress(o.Email); err != nil {
		return fmt.Errorf("invalid email address: %q", o.Email)
	}
	if o.Coordinates != nil && !o.Coordinates.Valid() {
		return fmt.Errorf("coordinates out of range")
	}
	return nil
}

func (s *Service) CreateDonor(ctx context.Context, d *Donor) error {
	if err := validateDonor(d); err != nil {
		return err
	}
	d.Active = true
	return s.donors.Create(ctx, d)
}

func (s *Service) GetDonor(ctx context.Context, id uuid.UUID) (*Donor, error) {
	return s.donors.GetByID(ctx, id)
}

func (s *Service) ListDonors(ctx context.Context, f DonorFilters, limit, offset int) ([]*Donor, int, error) {
	return s.donors.List(ctx, f, limit, offset)
}

func (s *Service) UpdateDonor(ctx context.Context, d *Donor) error {
	if err := validateDonor(d); err != nil {
		return err
	}
	return s.donors.Update(ctx, d)
}

func (s *Service) DeactivateDonor(ctx context.Context, id uuid.UUID) error {
	return s.donors.SetActive(ctx, id, false)
}

func (s *Service) CreateBloodBank(ctx context.Context, o *Organization) error {
	if err := validateOrg(o); err != nil {
		return err
	}
	o.Active = true
	return s.banks.Create(ctx, o)
}

func (s *Service) GetBloodBank(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.banks.GetByID(ctx, id)
}

func (s *Service) ListBloodBanks(ctx context.Context, f OrgFilters, limit, offset int) ([]*Organization, int, error) {
	return s.banks.List(ctx, f, limit, offset)
}

func (s *Service) UpdateBloodBank(ctx context.Context, o *Organization) error {
	if err := validateOrg(o); err != nil {
		return err
	}
	return s.banks.Update(ctx, o)
}

func (s *Service) DeactivateBloodBank(ctx context.Context, id uuid.UUID) error {
	return s.banks.SetActive(ctx, id, false)
}

func (s *Service) CreateInstitution(ctx context.Context, o *Organization) error {
	if err := validateOrg(o); err != nil {
		return err
	}
	o.Active = true
	return s.institutions.Create(ctx, o)
}

func (s *Service) GetInstitution(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.institutions.GetByID(ctx, id)
}

func (s *Service) ListInstitutions(ctx context.Context, f OrgFilters, limit, offset int) ([]*Organization, int, error) {
	return s.institutions.List(ctx, f, limit, offset)
}

func (s *Service) UpdateInstitution(ctx context.Context, o *Organization) error {
	if err := validateOrg(o); err != nil {
		return err
	}
	return s.institutions.Update(ctx, o)
}

func (s *Service) DeactivateInstitution(ctx context.Context, id uuid.UUID) error {
	return s.institutions.SetActive(ctx, id, false)
}
