package bloodunit

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCanTransitionLegalEdges(t *testing.T) {
	legal := []struct {
		from, to Status
	}{
		{StatusCollected, StatusTested},
		{StatusCollected, StatusDiscarded},
		{StatusTested, StatusProcessed},
		{StatusTested, StatusDiscarded},
		{StatusProcessed, StatusInInventory},
		{StatusProcessed, StatusDiscarded},
		{StatusInInventory, StatusReserved},
		{StatusInInventory, StatusDispatched},
		{StatusInInventory, StatusExpired},
		{StatusInInventory, StatusDiscarded},
		{StatusReserved, StatusDispatched},
		{StatusReserved, StatusExpired},
		{StatusReserved, StatusDiscarded},
		{StatusReserved, StatusInInventory},
		{StatusDispatched, StatusUsed},
		{StatusDispatched, StatusDiscarded},
		{StatusExpired, StatusDiscarded},
	}
	for _, e := range legal {
		if !CanTransition(e.from, e.to) {
			t.Errorf("expected %s -> %s to be legal", e.from, e.to)
		}
	}
}

func TestCanTransitionIllegalEdges(t *testing.T) {
	illegal := []struct {
		from, to Status
	}{
		{StatusCollected, StatusProcessed},
		{StatusCollected, StatusInInventory},
		{StatusCollected, StatusDispatched},
		{StatusTested, StatusInInventory},
		{StatusProcessed, StatusReserved},
		{StatusInInventory, StatusUsed},
		{StatusReserved, StatusUsed},
		{StatusDispatched, StatusInInventory},
		{StatusDispatched, StatusExpired},
		{StatusExpired, StatusInInventory},
		{StatusExpired, StatusUsed},
	}
	for _, e := range illegal {
		if CanTransition(e.from, e.to) {
			t.Errorf("expected %s -> %s to be illegal", e.from, e.to)
		}
	}
}

func TestTerminalStatesAbsorb(t *testing.T) {
	all := []Status{
		StatusCollected, StatusTested, StatusProcessed, StatusInInventory,
		StatusReserved, StatusDispatched, StatusUsed, StatusExpired, StatusDiscarded,
	}
	for _, terminal := range []Status{StatusUsed, StatusDiscarded} {
		if !IsTerminal(terminal) {
			t.Errorf("expected %s to be terminal", terminal)
		}
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Errorf("terminal status %s must not transition to %s", terminal, to)
			}
		}
	}
	for _, s := range []Status{StatusCollected, StatusInInventory, StatusExpired} {
		if IsTerminal(s) {
			t.Errorf("did not expect %s to be terminal", s)
		}
	}
}

func TestTransitionReturnsTypedError(t *testing.T) {
	u := &BloodUnit{ID: uuid.New(), Status: StatusUsed}
	err := Transition(u, StatusDiscarded)
	if err == nil {
		t.Fatal("expected error for used -> discarded")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected error to wrap ErrInvalidTransition, got %v", err)
	}
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransitionError, got %T", err)
	}
	if te.From != StatusUsed || te.To != StatusDiscarded {
		t.Errorf("unexpected error detail: %+v", te)
	}
	if u.Status != StatusUsed {
		t.Errorf("failed transition must not mutate status, got %s", u.Status)
	}
}

func TestTransitionMutatesOnSuccess(t *testing.T) {
	u := &BloodUnit{ID: uuid.New(), Status: StatusCollected}
	if err := Transition(u, StatusTested); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Status != StatusTested {
		t.Errorf("expected status tested, got %s", u.Status)
	}
}

func TestValidStatus(t *testing.T) {
	if !ValidStatus(StatusReserved) {
		t.Error("reserved should be valid")
	}
	if ValidStatus(Status("frozen")) {
		t.Error("unknown status should be invalid")
	}
}
