package bloodunit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no unit exists for the given id.
var ErrNotFound = errors.New("blood unit not found")

// ErrStatusConflict is returned when a status-preconditioned update matched no
// row: another operator moved the unit first. Callers surface this as an
// invalid state transition and must re-fetch.
var ErrStatusConflict = errors.New("unit status changed concurrently")

// Filters narrows List results.
type Filters struct {
	Status       Status
	BloodType    BloodType
	RhFactor     RhFactor
	DonationType DonationType
	BloodBankID  *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, u *BloodUnit) error
	GetByID(ctx context.Context, id uuid.UUID) (*BloodUnit, error)
	List(ctx context.Context, f Filters, limit, offset int) ([]*BloodUnit, int, error)

	// UpdateStatus persists the unit's status and side data, guarded by
	// `WHERE status = expected`. Returns ErrStatusConflict when the guard
	// matches no row.
	UpdateStatus(ctx context.Context, u *BloodUnit, expected Status) error

	// ListEligible returns in-inventory, unexpired units for the matcher.
	ListEligible(ctx context.Context, now time.Time) ([]*BloodUnit, error)

	// ListByRequest returns units bound to a blood request (reserved or
	// dispatched against it).
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*BloodUnit, error)

	// ListExpiryCandidates returns units in {in_inventory, reserved} whose
	// expiry date has passed, for the batch expiry processor.
	ListExpiryCandidates(ctx context.Context, now time.Time) ([]*BloodUnit, error)

	ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*BloodUnit, int, error)
	ListExpiringSoon(ctx context.Context, now time.Time, days, limit, offset int) ([]*BloodUnit, int, error)

	Stats(ctx context.Context, now time.Time, soonDays int) (*Stats, error)
}

type EventRepository interface {
	Append(ctx context.Context, e *StatusEvent) error
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*StatusEvent, error)
}
