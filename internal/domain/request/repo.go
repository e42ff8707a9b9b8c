package request

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no request exists for the given id.
var ErrNotFound = errors.New("blood request not found")

// Filters narrows List results.
type Filters struct {
	Status      Status
	Urgency     Urgency
	RequesterID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, r *BloodRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error)
	List(ctx context.Context, f Filters, limit, offset int) ([]*BloodRequest, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
