package bloodunit

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestShelfLifeDays(t *testing.T) {
	cases := []struct {
		dt   DonationType
		want int
	}{
		{WholeBlood, 42},
		{RedBloodCells, 42},
		{Plasma, 365},
		{Platelets, 5},
	}
	for _, c := range cases {
		if got := ShelfLifeDays(c.dt); got != c.want {
			t.Errorf("ShelfLifeDays(%s) = %d, want %d", c.dt, got, c.want)
		}
	}
}

func TestDaysUntilExpiryCeiling(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		expiry time.Time
		want   int
	}{
		{now.Add(1 * time.Hour), 1},     // partial day rounds up
		{now.Add(24 * time.Hour), 1},    // exactly one day
		{now.Add(25 * time.Hour), 2},    // just past one day
		{now, 0},                        // expiring this instant
		{now.Add(-1 * time.Hour), 0},    // less than a day past, still "today"
		{now.Add(-25 * time.Hour), -1},  // past expiry
		{now.Add(10 * 24 * time.Hour), 10},
	}
	for _, c := range cases {
		if got := DaysUntilExpiry(c.expiry, now); got != c.want {
			t.Errorf("DaysUntilExpiry(%v) = %d, want %d", c.expiry.Sub(now), got, c.want)
		}
	}
}

func TestClassifyExpiry(t *testing.T) {
	cases := []struct {
		days int
		want ExpiryTier
	}{
		{-5, TierExpired},
		{-1, TierExpired},
		{0, TierToday},
		{1, TierTomorrow},
		{2, TierCritical},
		{3, TierCritical},
		{4, TierWarning},
		{7, TierWarning},
		{8, TierNormal},
		{42, TierNormal},
	}
	for _, c := range cases {
		if got := ClassifyExpiry(c.days); got != c.want {
			t.Errorf("ClassifyExpiry(%d) = %s, want %s", c.days, got, c.want)
		}
	}
}

func TestPriorityScore(t *testing.T) {
	cases := []struct {
		days int
		want int
	}{
		{-10, 1000},
		{-1, 1000},
		{0, 100},
		{1, 100},
		{2, 50},
		{3, 50},
		{4, 20},
		{7, 20},
		{8, 2},
		{9, 1},
		{10, 0},
		{42, 0},
	}
	for _, c := range cases {
		if got := PriorityScore(c.days); got != c.want {
			t.Errorf("PriorityScore(%d) = %d, want %d", c.days, got, c.want)
		}
	}
}

func TestPriorityScoreMonotonic(t *testing.T) {
	// Urgency never increases as the expiry date moves further out.
	prev := PriorityScore(-3)
	for days := -2; days <= 50; days++ {
		cur := PriorityScore(days)
		if cur > prev {
			t.Fatalf("PriorityScore(%d) = %d > PriorityScore(%d) = %d", days, cur, days-1, prev)
		}
		prev = cur
	}
}

func TestProgressPercent(t *testing.T) {
	if got := ProgressPercent(WholeBlood, 42); got != 0 {
		t.Errorf("fresh unit progress = %f, want 0", got)
	}
	if got := ProgressPercent(WholeBlood, 21); got != 50 {
		t.Errorf("half-life progress = %f, want 50", got)
	}
	if got := ProgressPercent(WholeBlood, 0); got != 100 {
		t.Errorf("expiring-today progress = %f, want 100", got)
	}
	if got := ProgressPercent(WholeBlood, -10); got != 100 {
		t.Errorf("expired unit progress = %f, want clamped to 100", got)
	}
	if got := ProgressPercent(WholeBlood, 100); got != 0 {
		t.Errorf("out-of-range daysLeft progress = %f, want clamped to 0", got)
	}
}

func TestSortByUrgency(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expired := &BloodUnit{ID: uuid.New(), ExpiryDate: now.AddDate(0, 0, -2)}
	today := &BloodUnit{ID: uuid.New(), ExpiryDate: now.Add(2 * time.Hour)}
	nextWeek := &BloodUnit{ID: uuid.New(), ExpiryDate: now.AddDate(0, 0, 6)}
	fresh := &BloodUnit{ID: uuid.New(), ExpiryDate: now.AddDate(0, 0, 40)}

	units := []*BloodUnit{fresh, nextWeek, today, expired}
	SortByUrgency(units, now)

	want := []*BloodUnit{expired, today, nextWeek, fresh}
	for i := range want {
		if units[i] != want[i] {
			t.Fatalf("position %d: got unit expiring %v, want %v", i, units[i].ExpiryDate, want[i].ExpiryDate)
		}
	}
}

func TestSortByUrgencyTieBreakDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 2)
	a := &BloodUnit{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), ExpiryDate: expiry}
	b := &BloodUnit{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), ExpiryDate: expiry}

	for _, units := range [][]*BloodUnit{{b, a}, {a, b}} {
		SortByUrgency(units, now)
		if units[0] != a || units[1] != b {
			t.Fatal("equal-score units must order by id ascending")
		}
	}
}

func TestNewExpiryView(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	u := &BloodUnit{
		ID:           uuid.New(),
		DonationType: Platelets,
		ExpiryDate:   now.AddDate(0, 0, 1),
	}
	v := NewExpiryView(u, now)
	if v.DaysUntilExpiry != 1 {
		t.Errorf("days = %d, want 1", v.DaysUntilExpiry)
	}
	if v.Tier != TierTomorrow {
		t.Errorf("tier = %s, want tomorrow", v.Tier)
	}
	if v.PriorityScore != 100 {
		t.Errorf("score = %d, want 100", v.PriorityScore)
	}
	if v.ProgressPercent != 80 {
		t.Errorf("progress = %f, want 80", v.ProgressPercent)
	}
}
