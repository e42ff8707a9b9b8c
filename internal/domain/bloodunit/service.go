package bloodunit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodnet/inventory/internal/platform/auth"
)

// Service owns every blood unit mutation. All status changes go through the
// transition table and are guarded in SQL by the expected source status, so
// two operators racing on the same unit resolve to one winner and one
// ErrStatusConflict.
type Service struct {
	units  Repository
	events EventRepository
	logger zerolog.Logger
	clock  func() time.Time
}

func NewService(units Repository, events EventRepository, logger zerolog.Logger) *Service {
	return &Service{
		units:  units,
		events: events,
		logger: logger,
		clock:  time.Now,
	}
}

// SetClock overrides the service clock.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

var validBloodTypes = map[BloodType]bool{TypeA: true, TypeB: true, TypeAB: true, TypeO: true}
var validRhFactors = map[RhFactor]bool{RhPositive: true, RhNegative: true}
var validDonationTypes = map[DonationType]bool{
	WholeBlood: true, Plasma: true, Platelets: true, RedBloodCells: true,
}

// Create registers a unit at donation completion. The expiry date is always
// computed from the donation type's shelf life; no unit enters the registry
// without a blood type and expiry date.
func (s *Service) Create(ctx context.Context, u *BloodUnit) error {
	if !validBloodTypes[u.BloodType] {
		return fmt.Errorf("invalid blood type: %q", u.BloodType)
	}
	if !validRhFactors[u.RhFactor] {
		return fmt.Errorf("invalid rh factor: %q", u.RhFactor)
	}
	if !validDonationTypes[u.DonationType] {
		return fmt.Errorf("invalid donation type: %q", u.DonationType)
	}
	if u.CollectionDate.IsZero() {
		u.CollectionDate = s.clock().UTC()
	}
	u.ExpiryDate = u.CollectionDate.AddDate(0, 0, ShelfLifeDays(u.DonationType))
	if u.Status == "" {
		u.Status = StatusCollected
	}
	if u.Status != StatusCollected {
		return fmt.Errorf("new units must start as %s, got %q", StatusCollected, u.Status)
	}
	if err := s.units.Create(ctx, u); err != nil {
		return err
	}
	s.recordEvent(ctx, u.ID, "", StatusCollected, "")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BloodUnit, error) {
	return s.units.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filters, limit, offset int) ([]*BloodUnit, int, error) {
	return s.units.List(ctx, f, limit, offset)
}

// Tracking returns the unit's full status history.
func (s *Service) Tracking(ctx context.Context, id uuid.UUID) ([]*StatusEvent, error) {
	if _, err := s.units.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByUnit(ctx, id)
}

// Advance moves a unit along the testing/processing pipeline
// (collected -> tested -> processed -> in_inventory). Transitions with side
// data requirements have dedicated methods.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, to Status) (*BloodUnit, error) {
	switch to {
	case StatusTested, StatusProcessed, StatusInInventory:
	default:
		return nil, fmt.Errorf("status %q requires its dedicated operation", to)
	}
	return s.transition(ctx, id, to, func(u *BloodUnit) error { return nil })
}

// DispatchParams carries the side data a dispatch requires.
type DispatchParams struct {
	To         uuid.UUID
	At         *time.Time
	Notes      string
	ForRequest *uuid.UUID
}

// Dispatch sends a unit to a medical institution, from inventory or from a
// reservation.
func (s *Service) Dispatch(ctx context.Context, id uuid.UUID, p DispatchParams) (*BloodUnit, error) {
	if p.To == uuid.Nil {
		return nil, fmt.Errorf("dispatch destination is required")
	}
	at := s.clock().UTC()
	if p.At != nil {
		at = *p.At
	}
	return s.transition(ctx, id, StatusDispatched, func(u *BloodUnit) error {
		u.DispatchedTo = &p.To
		u.DispatchedAt = &at
		if p.Notes != "" {
			u.DispatchNotes = &p.Notes
		}
		if p.ForRequest != nil {
			u.ReservedFor = p.ForRequest
		}
		return nil
	})
}

// Use records the terminal clinical use of a dispatched unit.
func (s *Service) Use(ctx context.Context, id uuid.UUID, usedFor string, at *time.Time) (*BloodUnit, error) {
	if usedFor == "" {
		return nil, fmt.Errorf("usage purpose is required")
	}
	usedAt := s.clock().UTC()
	if at != nil {
		usedAt = *at
	}
	return s.transition(ctx, id, StatusUsed, func(u *BloodUnit) error {
		u.UsedFor = &usedFor
		u.UsedAt = &usedAt
		return nil
	})
}

// Discard retires a unit with a reason from the closed vocabulary. Discarding
// an already-discarded unit is a no-op success, so retries and bulk sweeps
// over mixed selections stay safe.
func (s *Service) Discard(ctx context.Context, id uuid.UUID, reason DiscardReason, at *time.Time) (*BloodUnit, error) {
	if !ValidDiscardReason(reason) {
		return nil, fmt.Errorf("invalid discard reason: %q", reason)
	}
	current, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusDiscarded {
		return current, nil
	}
	discardedAt := s.clock().UTC()
	if at != nil {
		discardedAt = *at
	}
	return s.transition(ctx, id, StatusDiscarded, func(u *BloodUnit) error {
		u.DiscardReason = &reason
		u.DiscardedAt = &discardedAt
		return nil
	})
}

// Expire marks a unit past its expiry date. Idempotent on already-expired
// units; refuses units whose expiry date has not yet passed.
func (s *Service) Expire(ctx context.Context, id uuid.UUID) (*BloodUnit, error) {
	current, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusExpired {
		return current, nil
	}
	if !current.ExpiryDate.Before(s.clock()) {
		return nil, fmt.Errorf("unit %s has not expired yet (expiry %s)", id, current.ExpiryDate.Format(time.RFC3339))
	}
	return s.transition(ctx, id, StatusExpired, func(u *BloodUnit) error { return nil })
}

// Reserve binds an in-inventory unit to a blood request.
func (s *Service) Reserve(ctx context.Context, id, requestID uuid.UUID) (*BloodUnit, error) {
	if requestID == uuid.Nil {
		return nil, fmt.Errorf("request id is required")
	}
	return s.transition(ctx, id, StatusReserved, func(u *BloodUnit) error {
		u.ReservedFor = &requestID
		return nil
	})
}

// Release returns a reserved unit to inventory and clears the binding.
func (s *Service) Release(ctx context.Context, id uuid.UUID) (*BloodUnit, error) {
	return s.transition(ctx, id, StatusInInventory, func(u *BloodUnit) error {
		u.ReservedFor = nil
		return nil
	})
}

// BulkDiscardResult reports the outcome for one unit in a bulk discard.
type BulkDiscardResult struct {
	UnitID uuid.UUID `json:"unitId"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
}

// BulkDiscard applies one reason to many units. Failures (unknown ids, units
// in terminal non-discarded states) are reported per id; the batch never
// aborts.
func (s *Service) BulkDiscard(ctx context.Context, ids []uuid.UUID, reason DiscardReason) ([]BulkDiscardResult, error) {
	if !ValidDiscardReason(reason) {
		return nil, fmt.Errorf("invalid discard reason: %q", reason)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no unit ids given")
	}
	results := make([]BulkDiscardResult, 0, len(ids))
	for _, id := range ids {
		res := BulkDiscardResult{UnitID: id, OK: true}
		if _, err := s.Discard(ctx, id, reason, nil); err != nil {
			res.OK = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

// ProcessExpired discards every in-inventory or reserved unit whose expiry
// date has passed, reason `expired`, and returns the processed count. Run on
// demand from the UI or on a schedule via the expire-units command.
func (s *Service) ProcessExpired(ctx context.Context) (int, error) {
	candidates, err := s.units.ListExpiryCandidates(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, u := range candidates {
		if _, err := s.Discard(ctx, u.ID, ReasonExpired, nil); err != nil {
			// A concurrent mutation is not fatal to the sweep.
			s.logger.Warn().Err(err).Str("unit_id", u.ID.String()).Msg("expiry sweep: unit skipped")
			continue
		}
		processed++
	}
	s.logger.Info().Int("processed", processed).Msg("expiry sweep complete")
	return processed, nil
}

// Expired lists units past their expiry date, most urgent first.
func (s *Service) Expired(ctx context.Context, limit, offset int) ([]*ExpiryView, int, error) {
	units, total, err := s.units.ListExpired(ctx, s.clock(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return s.expiryViews(units), total, nil
}

// ExpiringSoon lists unexpired units that expire within the given window,
// most urgent first.
func (s *Service) ExpiringSoon(ctx context.Context, days, limit, offset int) ([]*ExpiryView, int, error) {
	units, total, err := s.units.ListExpiringSoon(ctx, s.clock(), days, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return s.expiryViews(units), total, nil
}

func (s *Service) expiryViews(units []*BloodUnit) []*ExpiryView {
	now := s.clock()
	SortByUrgency(units, now)
	views := make([]*ExpiryView, 0, len(units))
	for _, u := range units {
		views = append(views, NewExpiryView(u, now))
	}
	return views
}

// Stats returns the inventory aggregate for the dashboards.
func (s *Service) Stats(ctx context.Context, soonDays int) (*Stats, error) {
	return s.units.Stats(ctx, s.clock(), soonDays)
}

// ListEligible exposes matcher-eligible stock (in inventory, unexpired).
func (s *Service) ListEligible(ctx context.Context) ([]*BloodUnit, error) {
	return s.units.ListEligible(ctx, s.clock())
}

// ListByRequest returns the units bound to a blood request.
func (s *Service) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*BloodUnit, error) {
	return s.units.ListByRequest(ctx, requestID)
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.clock() }

// transition loads the unit, validates the move against the state machine,
// applies side data, and persists with the source status as SQL precondition.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, sideData func(*BloodUnit) error) (*BloodUnit, error) {
	u, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := u.Status

	if err := Transition(u, to); err != nil {
		return nil, err
	}
	clearSideData(u)
	if err := sideData(u); err != nil {
		return nil, err
	}

	if err := s.units.UpdateStatus(ctx, u, from); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, u.ID, from, to, "")
	s.logger.Info().
		Str("unit_id", u.ID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("unit transitioned")
	return u, nil
}

// clearSideData enforces the invariant that at most one of dispatch, usage,
// and discard info is populated, matching the current status. Dispatch info
// survives into `used` only through the event history. The request binding
// survives into `used` so fulfillment counting still sees the unit.
func clearSideData(u *BloodUnit) {
	u.DispatchedTo, u.DispatchedAt, u.DispatchNotes = nil, nil, nil
	u.UsedFor, u.UsedAt = nil, nil
	u.DiscardReason, u.DiscardedAt = nil, nil
	if u.Status != StatusReserved && u.Status != StatusDispatched && u.Status != StatusUsed {
		u.ReservedFor = nil
	}
}

func (s *Service) recordEvent(ctx context.Context, unitID uuid.UUID, from, to Status, note string) {
	e := &StatusEvent{
		UnitID:     unitID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      auth.UserIDFromContext(ctx),
		Note:       note,
		OccurredAt: s.clock().UTC(),
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("unit_id", unitID.String()).Msg("failed to record status event")
	}
}
