package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no application exists for the given id.
var ErrNotFound = errors.New("application not found")

// ErrAlreadyDecided is returned when reviewing an application whose decision
// is already final.
var ErrAlreadyDecided = errors.New("application already decided")

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	List(ctx context.Context, status Status, limit, offset int) ([]*Application, int, error)
	// Decide persists the review outcome only if the row is still pending.
	// Returns ErrAlreadyDecided when another reviewer got there first.
	Decide(ctx context.Context, a *Application) error
}
