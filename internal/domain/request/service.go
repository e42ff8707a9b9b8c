package request

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
	"github.com/bloodnet/inventory/internal/platform/notification"
)

// Notifier delivers templated messages. Satisfied by *notification.Manager.
type Notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// RecipientResolver maps a requester id to a deliverable address.
type RecipientResolver func(ctx context.Context, requesterID uuid.UUID) (string, error)

// Service drives the request lifecycle: intake, matching, reservation,
// fulfillment. Unit mutations always go through the blood unit service so the
// state machine and audit trail stay authoritative.
type Service struct {
	requests Repository
	units    *bloodunit.Service
	logger   zerolog.Logger
	notifier Notifier
	resolve  RecipientResolver
}

func NewService(requests Repository, units *bloodunit.Service, logger zerolog.Logger) *Service {
	return &Service{requests: requests, units: units, logger: logger}
}

// SetNotifier enables fulfillment notifications to the requesting institution.
func (s *Service) SetNotifier(n Notifier, resolve RecipientResolver) {
	s.notifier = n
	s.resolve = resolve
}

// Create validates and registers a new request in pending status.
func (s *Service) Create(ctx context.Context, r *BloodRequest) error {
	if r.RequesterID == uuid.Nil {
		return fmt.Errorf("requester is required")
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", r.Quantity)
	}
	if !validUrgencies[r.Urgency] {
		return fmt.Errorf("invalid urgency: %q", r.Urgency)
	}
	if _, ok := aboCompatible[r.BloodType]; !ok {
		return fmt.Errorf("invalid blood type: %q", r.BloodType)
	}
	if r.RhFactor != bloodunit.RhPositive && r.RhFactor != bloodunit.RhNegative {
		return fmt.Errorf("invalid rh factor: %q", r.RhFactor)
	}
	r.Status = StatusPending
	if err := s.requests.Create(ctx, r); err != nil {
		return err
	}
	s.logger.Info().
		Str("request_id", r.ID.String()).
		Str("urgency", string(r.Urgency)).
		Int("quantity", r.Quantity).
		Msg("blood request created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BloodRequest, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filters, limit, offset int) ([]*BloodRequest, int, error) {
	return s.requests.List(ctx, f, limit, offset)
}

// Matches ranks compatible in-inventory units for the request. With selectN
// nonzero the top candidates are also marked selected and the partial flag
// reports a shortfall; selectN < 0 selects up to the requested quantity.
func (s *Service) Matches(ctx context.Context, id uuid.UUID, selectN int) (*MatchSet, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	candidates, err := s.units.ListEligible(ctx)
	if err != nil {
		return nil, err
	}
	set := &MatchSet{RequestID: req.ID, Matches: RankMatches(req, candidates, s.units.Now())}
	if selectN < 0 {
		selectN = req.Quantity
	}
	if selectN > 0 {
		set.Selected, set.Partial = AutoSelect(set.Matches, selectN)
	}
	return set, nil
}

// Reserve binds one unit to the request.
func (s *Service) Reserve(ctx context.Context, id, unitID uuid.UUID) (*bloodunit.BloodUnit, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == StatusFulfilled || req.Status == StatusCancelled {
		return nil, fmt.Errorf("request %s is %s", id, req.Status)
	}
	return s.units.Reserve(ctx, unitID, req.ID)
}

// Fulfill dispatches the given units to the requesting institution and
// settles the request status: fulfilled when enough units have shipped
// against it, partially_fulfilled otherwise. Unit-level failures abort so the
// caller can inspect and retry; units already dispatched or used against this
// request still count toward the quantity.
func (s *Service) Fulfill(ctx context.Context, id uuid.UUID, unitIDs []uuid.UUID) (*BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == StatusCancelled {
		return nil, fmt.Errorf("request %s is cancelled", id)
	}
	if req.Status == StatusFulfilled {
		return req, nil
	}
	if len(unitIDs) == 0 {
		return nil, fmt.Errorf("no unit ids given")
	}

	for _, unitID := range unitIDs {
		_, err := s.units.Dispatch(ctx, unitID, bloodunit.DispatchParams{
			To:         req.RequesterID,
			ForRequest: &req.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("dispatch unit %s: %w", unitID, err)
		}
	}

	bound, err := s.units.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	dispatched := 0
	for _, u := range bound {
		if u.Status == bloodunit.StatusDispatched || u.Status == bloodunit.StatusUsed {
			dispatched++
		}
	}

	status := StatusPartiallyFulfilled
	if dispatched >= req.Quantity {
		status = StatusFulfilled
	}
	if err := s.requests.UpdateStatus(ctx, req.ID, status); err != nil {
		return nil, err
	}
	req.Status = status

	s.logger.Info().
		Str("request_id", req.ID.String()).
		Int("dispatched", dispatched).
		Int("quantity", req.Quantity).
		Str("status", string(status)).
		Msg("blood request fulfillment")

	if status == StatusFulfilled {
		s.notifyFulfilled(ctx, req)
	}
	return req, nil
}

// notifyFulfilled is best effort. A delivery failure never unwinds the
// fulfillment, it only gets logged.
func (s *Service) notifyFulfilled(ctx context.Context, req *BloodRequest) {
	if s.notifier == nil || s.resolve == nil {
		return
	}
	recipient, err := s.resolve(ctx, req.RequesterID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("request_id", req.ID.String()).
			Msg("fulfillment notification skipped, no recipient address")
		return
	}
	data := map[string]string{
		"request_id": req.ID.String(),
		"quantity":   strconv.Itoa(req.Quantity),
		"blood_type": string(req.BloodType) + string(req.RhFactor),
	}
	if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateRequestFulfilled, data, recipient); err != nil {
		s.logger.Warn().Err(err).
			Str("request_id", req.ID.String()).
			Msg("fulfillment notification failed")
	}
}

// Cancel releases every unit still reserved for the request back to inventory
// and marks the request cancelled. Cancelling a cancelled request is a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == StatusCancelled {
		return req, nil
	}
	if req.Status == StatusFulfilled {
		return nil, fmt.Errorf("request %s is already fulfilled", id)
	}

	bound, err := s.units.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	for _, u := range bound {
		if u.Status != bloodunit.StatusReserved {
			continue
		}
		if _, err := s.units.Release(ctx, u.ID); err != nil {
			s.logger.Warn().Err(err).
				Str("request_id", req.ID.String()).
				Str("unit_id", u.ID.String()).
				Msg("cancel: reservation release skipped")
		}
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, StatusCancelled); err != nil {
		return nil, err
	}
	req.Status = StatusCancelled
	s.logger.Info().Str("request_id", req.ID.String()).Msg("blood request cancelled")
	return req, nil
}
