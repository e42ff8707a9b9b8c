package application

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodnet/inventory/internal/platform/auth"
	"github.com/bloodnet/inventory/internal/platform/notification"
)

// Service handles registration applications. Decisions are final: a rejected
// applicant submits a fresh application rather than editing the old one.
type Service struct {
	apps     Repository
	notifier *notification.Manager
	logger   zerolog.Logger
	clock    func() time.Time
}

func NewService(apps Repository, notifier *notification.Manager, logger zerolog.Logger) *Service {
	return &Service{apps: apps, notifier: notifier, logger: logger, clock: time.Now}
}

// SetClock overrides the service clock.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

// Submit validates and stores a new application in pending status.
func (s *Service) Submit(ctx context.Context, a *Application) error {
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return fmt.Errorf("invalid email address: %q", a.Email)
	}
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validRoles[a.Role] {
		return fmt.Errorf("invalid role: %q", a.Role)
	}
	a.Status = StatusPending
	if err := s.apps.Create(ctx, a); err != nil {
		return err
	}
	s.logger.Info().
		Str("application_id", a.ID.String()).
		Str("role", string(a.Role)).
		Msg("application submitted")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Application, error) {
	return s.apps.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]*Application, int, error) {
	if status != "" && status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, 0, fmt.Errorf("invalid status filter: %q", status)
	}
	return s.apps.List(ctx, status, limit, offset)
}

// Review records the admin decision. Repeating the same decision on a decided
// application is a no-op success; flipping a decision is refused. A rejection
// carries a mandatory reason. The applicant is notified on every fresh
// decision; a notification failure does not roll the decision back.
func (s *Service) Review(ctx context.Context, id uuid.UUID, decision Status, reason string) (*Application, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, fmt.Errorf("decision must be %s or %s, got %q", StatusApproved, StatusRejected, decision)
	}
	if decision == StatusRejected && reason == "" {
		return nil, fmt.Errorf("rejection requires a reason")
	}

	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == decision {
		return a, nil
	}
	if a.Status != StatusPending {
		return nil, fmt.Errorf("%w: application %s is %s", ErrAlreadyDecided, id, a.Status)
	}

	now := s.clock().UTC()
	a.Status = decision
	a.ReviewedAt = &now
	if reviewer := auth.UserIDFromContext(ctx); reviewer != "" {
		a.ReviewedBy = &reviewer
	}
	if decision == StatusRejected {
		a.RejectionReason = &reason
	}

	if err := s.apps.Decide(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("application_id", a.ID.String()).
		Str("decision", string(decision)).
		Msg("application reviewed")
	s.notify(ctx, a)
	return a, nil
}

func (s *Service) notify(ctx context.Context, a *Application) {
	data := map[string]string{"name": a.Name, "role": string(a.Role)}
	templateID := notification.TemplateApplicationApproved
	if a.Status == StatusRejected {
		templateID = notification.TemplateApplicationRejected
		if a.RejectionReason != nil {
			data["reason"] = *a.RejectionReason
		}
	}
	if _, err := s.notifier.SendFromTemplate(ctx, templateID, data, a.Email); err != nil {
		s.logger.Warn().Err(err).Str("application_id", a.ID.String()).Msg("decision notification failed")
	}
}
