package bloodunit

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidTransition is the sentinel wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError reports an attempted move that the state machine forbids.
// The caller must re-fetch the unit and retry or abort.
type TransitionError struct {
	UnitID uuid.UUID
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("unit %s: cannot transition from %s to %s", e.UnitID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// transitions is the single source of truth for legal status moves. Every
// mutation path goes through CanTransition; there are no scattered guards.
//
//	collected -> tested -> processed -> in_inventory
//	in_inventory -> reserved | dispatched | expired | discarded
//	reserved -> dispatched | expired | discarded | in_inventory (release)
//	dispatched -> used | discarded
//	expired -> discarded
//	used, discarded: terminal
var transitions = map[Status][]Status{
	StatusCollected:   {StatusTested, StatusDiscarded},
	StatusTested:      {StatusProcessed, StatusDiscarded},
	StatusProcessed:   {StatusInInventory, StatusDiscarded},
	StatusInInventory: {StatusReserved, StatusDispatched, StatusExpired, StatusDiscarded},
	StatusReserved:    {StatusDispatched, StatusExpired, StatusDiscarded, StatusInInventory},
	StatusDispatched:  {StatusUsed, StatusDiscarded},
	StatusExpired:     {StatusDiscarded},
	StatusUsed:        {},
	StatusDiscarded:   {},
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether a unit in status s can never move again.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0 && ValidStatus(s)
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change on the unit. It does not
// touch side data (dispatch/usage/discard info); callers set that before
// persisting. Returns a *TransitionError when the move is illegal.
func Transition(u *BloodUnit, to Status) error {
	if !CanTransition(u.Status, to) {
		return &TransitionError{UnitID: u.ID, From: u.Status, To: to}
	}
	u.Status = to
	return nil
}
