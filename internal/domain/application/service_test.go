package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodnet/inventory/internal/platform/notification"
)

type fakeAppRepo struct {
	mu   sync.Mutex
	apps map[uuid.UUID]*Application
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: make(map[uuid.UUID]*Application)}
}

func (r *fakeAppRepo) Create(_ context.Context, a *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.apps[a.ID] = &cp
	return nil
}

func (r *fakeAppRepo) GetByID(_ context.Context, id uuid.UUID) (*Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) List(_ context.Context, status Status, limit, offset int) ([]*Application, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Application
	for _, a := range r.apps {
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeAppRepo) Decide(_ context.Context, a *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[a.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != StatusPending {
		return ErrAlreadyDecided
	}
	cp := *a
	r.apps[a.ID] = &cp
	return nil
}

func newTestService() (*Service, *notification.MockEmailSender) {
	email := &notification.MockEmailSender{}
	notifier := notification.NewManager(email, &notification.MockSMSSender{}, notification.NewTemplateEngine(), zerolog.Nop())
	svc := NewService(newFakeAppRepo(), notifier, zerolog.Nop())
	svc.SetClock(func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) })
	return svc, email
}

func submit(t *testing.T, svc *Service) *Application {
	t.Helper()
	a := &Application{
		Email: "lab@citygeneral.example.org",
		Name:  "City General Hospital",
		Role:  RoleMedicalInstitution,
	}
	if err := svc.Submit(context.Background(), a); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return a
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	bad := []*Application{
		{Email: "not-an-email", Name: "X", Role: RoleBloodBank},
		{Email: "a@b.example.org", Name: "", Role: RoleBloodBank},
		{Email: "a@b.example.org", Name: "X", Role: "donor"},
	}
	for i, a := range bad {
		if err := svc.Submit(ctx, a); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}

	a := submit(t, svc)
	if a.Status != StatusPending {
		t.Errorf("new application status = %s, want pending", a.Status)
	}
}

func TestApproveSendsWelcome(t *testing.T) {
	svc, email := newTestService()
	ctx := context.Background()
	a := submit(t, svc)

	got, err := svc.Review(ctx, a.ID, StatusApproved, "")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	if got.ReviewedAt == nil {
		t.Error("reviewedAt must be set")
	}

	calls := email.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d emails, want 1", len(calls))
	}
	if calls[0].To != a.Email {
		t.Errorf("email to %s, want %s", calls[0].To, a.Email)
	}
	if !strings.Contains(calls[0].Body, a.Name) {
		t.Error("welcome email must address the applicant by name")
	}
}

func TestApproveIdempotent(t *testing.T) {
	svc, email := newTestService()
	ctx := context.Background()
	a := submit(t, svc)

	if _, err := svc.Review(ctx, a.ID, StatusApproved, ""); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Review(ctx, a.ID, StatusApproved, "")
	if err != nil {
		t.Fatalf("repeat approve must succeed, got %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	if len(email.Calls()) != 1 {
		t.Errorf("repeat approve must not re-notify, got %d emails", len(email.Calls()))
	}
}

func TestRejectRequiresReason(t *testing.T) {
	svc, email := newTestService()
	ctx := context.Background()
	a := submit(t, svc)

	if _, err := svc.Review(ctx, a.ID, StatusRejected, ""); err == nil {
		t.Fatal("expected error for missing rejection reason")
	}

	got, err := svc.Review(ctx, a.ID, StatusRejected, "incomplete accreditation documents")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "incomplete accreditation documents" {
		t.Error("rejection reason not recorded")
	}

	calls := email.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d emails, want 1", len(calls))
	}
	if !strings.Contains(calls[0].Body, "incomplete accreditation documents") {
		t.Error("rejection email must carry the reason")
	}
}

func TestDecisionsAreFinal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := submit(t, svc)

	if _, err := svc.Review(ctx, a.ID, StatusApproved, ""); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Review(ctx, a.ID, StatusRejected, "changed our minds")
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestReviewValidatesDecision(t *testing.T) {
	svc, _ := newTestService()
	a := submit(t, svc)
	if _, err := svc.Review(context.Background(), a.ID, StatusPending, ""); err == nil {
		t.Error("expected error for non-terminal decision")
	}
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	svc, email := newTestService()
	email.ShouldFail = true
	email.FailError = "smtp unavailable"
	ctx := context.Background()
	a := submit(t, svc)

	got, err := svc.Review(ctx, a.ID, StatusApproved, "")
	if err != nil {
		t.Fatalf("review must succeed despite notification failure, got %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := submit(t, svc)
	submit(t, svc)
	if _, err := svc.Review(ctx, a.ID, StatusApproved, ""); err != nil {
		t.Fatal(err)
	}

	pending, total, err := svc.List(ctx, StatusPending, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(pending) != 1 {
		t.Errorf("pending list = %d/%d, want 1/1", len(pending), total)
	}

	if _, _, err := svc.List(ctx, "archived", 20, 0); err == nil {
		t.Error("expected error for unknown status filter")
	}
}
