package request

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
)

func TestUniversalRecipientABPositive(t *testing.T) {
	for _, donorType := range []bloodunit.BloodType{bloodunit.TypeA, bloodunit.TypeB, bloodunit.TypeAB, bloodunit.TypeO} {
		for _, donorRh := range []bloodunit.RhFactor{bloodunit.RhPositive, bloodunit.RhNegative} {
			if !Compatible(donorType, donorRh, bloodunit.TypeAB, bloodunit.RhPositive) {
				t.Errorf("AB+ recipient must accept %s%s", donorType, donorRh)
			}
		}
	}
}

func TestUniversalDonorONegative(t *testing.T) {
	for _, recType := range []bloodunit.BloodType{bloodunit.TypeA, bloodunit.TypeB, bloodunit.TypeAB, bloodunit.TypeO} {
		for _, recRh := range []bloodunit.RhFactor{bloodunit.RhPositive, bloodunit.RhNegative} {
			if !Compatible(bloodunit.TypeO, bloodunit.RhNegative, recType, recRh) {
				t.Errorf("O- donor must match %s%s recipient", recType, recRh)
			}
		}
	}
}

func TestCompatibilityTable(t *testing.T) {
	cases := []struct {
		donorType bloodunit.BloodType
		donorRh   bloodunit.RhFactor
		recType   bloodunit.BloodType
		recRh     bloodunit.RhFactor
		want      bool
	}{
		{bloodunit.TypeA, bloodunit.RhPositive, bloodunit.TypeB, bloodunit.RhPositive, false},
		{bloodunit.TypeB, bloodunit.RhPositive, bloodunit.TypeA, bloodunit.RhPositive, false},
		{bloodunit.TypeA, bloodunit.RhPositive, bloodunit.TypeA, bloodunit.RhPositive, true},
		{bloodunit.TypeA, bloodunit.RhPositive, bloodunit.TypeA, bloodunit.RhNegative, false}, // Rh+ into Rh-
		{bloodunit.TypeA, bloodunit.RhNegative, bloodunit.TypeA, bloodunit.RhPositive, true},
		{bloodunit.TypeO, bloodunit.RhPositive, bloodunit.TypeO, bloodunit.RhNegative, false},
		{bloodunit.TypeO, bloodunit.RhPositive, bloodunit.TypeA, bloodunit.RhPositive, true},
		{bloodunit.TypeAB, bloodunit.RhNegative, bloodunit.TypeO, bloodunit.RhNegative, false}, // AB only into AB
		{bloodunit.TypeAB, bloodunit.RhNegative, bloodunit.TypeAB, bloodunit.RhNegative, true},
		{bloodunit.TypeB, bloodunit.RhNegative, bloodunit.TypeAB, bloodunit.RhNegative, true},
	}
	for _, c := range cases {
		if got := Compatible(c.donorType, c.donorRh, c.recType, c.recRh); got != c.want {
			t.Errorf("Compatible(%s%s -> %s%s) = %v, want %v",
				c.donorType, c.donorRh, c.recType, c.recRh, got, c.want)
		}
	}
}

func eligibleUnit(bt bloodunit.BloodType, rh bloodunit.RhFactor, daysToExpiry int, now time.Time) *bloodunit.BloodUnit {
	return &bloodunit.BloodUnit{
		ID:         uuid.New(),
		BloodType:  bt,
		RhFactor:   rh,
		Status:     bloodunit.StatusInInventory,
		ExpiryDate: now.AddDate(0, 0, daysToExpiry),
	}
}

func TestRankMatchesFiltersIneligible(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	req := &BloodRequest{BloodType: bloodunit.TypeA, RhFactor: bloodunit.RhPositive, Quantity: 5}

	compatible := eligibleUnit(bloodunit.TypeA, bloodunit.RhPositive, 10, now)
	incompatible := eligibleUnit(bloodunit.TypeB, bloodunit.RhPositive, 10, now)
	expired := eligibleUnit(bloodunit.TypeA, bloodunit.RhPositive, -1, now)
	reserved := eligibleUnit(bloodunit.TypeA, bloodunit.RhPositive, 10, now)
	reserved.Status = bloodunit.StatusReserved

	matches := RankMatches(req, []*bloodunit.BloodUnit{compatible, incompatible, expired, reserved}, now)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Unit.ID != compatible.ID {
		t.Error("wrong unit matched")
	}
}

func TestRankMatchesExactFirstThenFEFO(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	req := &BloodRequest{BloodType: bloodunit.TypeA, RhFactor: bloodunit.RhPositive, Quantity: 5}

	exactLate := eligibleUnit(bloodunit.TypeA, bloodunit.RhPositive, 20, now)
	exactSoon := eligibleUnit(bloodunit.TypeA, bloodunit.RhPositive, 2, now)
	crossSoon := eligibleUnit(bloodunit.TypeO, bloodunit.RhNegative, 1, now)
	crossLate := eligibleUnit(bloodunit.TypeO, bloodunit.RhNegative, 30, now)

	matches := RankMatches(req, []*bloodunit.BloodUnit{crossLate, exactLate, crossSoon, exactSoon}, now)
	if len(matches) != 4 {
		t.Fatalf("got %d matches, want 4", len(matches))
	}
	wantOrder := []uuid.UUID{exactSoon.ID, exactLate.ID, crossSoon.ID, crossLate.ID}
	for i, want := range wantOrder {
		if matches[i].Unit.ID != want {
			t.Fatalf("position %d: wrong unit (exact=%v days=%d)",
				i, matches[i].ExactMatch, matches[i].DaysUntilExpiry)
		}
	}
}

func TestRankMatchesTieBreakByID(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	req := &BloodRequest{BloodType: bloodunit.TypeO, RhFactor: bloodunit.RhPositive}

	a := eligibleUnit(bloodunit.TypeO, bloodunit.RhPositive, 5, now)
	a.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := eligibleUnit(bloodunit.TypeO, bloodunit.RhPositive, 5, now)
	b.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	matches := RankMatches(req, []*bloodunit.BloodUnit{b, a}, now)
	if matches[0].Unit.ID != a.ID {
		t.Error("equal-rank matches must order by unit id ascending")
	}
}

func TestAutoSelect(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	matches := []Match{
		{Unit: eligibleUnit(bloodunit.TypeO, bloodunit.RhNegative, 1, now)},
		{Unit: eligibleUnit(bloodunit.TypeO, bloodunit.RhNegative, 2, now)},
		{Unit: eligibleUnit(bloodunit.TypeO, bloodunit.RhNegative, 3, now)},
	}

	selected, partial := AutoSelect(matches, 2)
	if len(selected) != 2 || partial {
		t.Errorf("AutoSelect(3 matches, n=2) = (%d, %v), want (2, false)", len(selected), partial)
	}

	selected, partial = AutoSelect(matches, 5)
	if len(selected) != 3 || !partial {
		t.Errorf("AutoSelect(3 matches, n=5) = (%d, %v), want (3, true)", len(selected), partial)
	}
}
