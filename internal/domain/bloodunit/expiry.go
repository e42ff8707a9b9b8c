package bloodunit

import (
	"math"
	"sort"
	"time"
)

// ExpiryTier buckets a unit by proximity to its expiry date, driving alert
// severity and sort order.
type ExpiryTier string

const (
	TierExpired  ExpiryTier = "expired"
	TierToday    ExpiryTier = "today"
	TierTomorrow ExpiryTier = "tomorrow"
	TierCritical ExpiryTier = "critical" // 2-3 days
	TierWarning  ExpiryTier = "warning"  // 4-7 days
	TierNormal   ExpiryTier = "normal"   // more than a week
)

// DaysUntilExpiry returns ceil((expiry - now) / 24h). Negative for units
// already past their expiry date, zero for units expiring today.
func DaysUntilExpiry(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// ClassifyExpiry maps days-until-expiry to a severity tier.
func ClassifyExpiry(daysLeft int) ExpiryTier {
	switch {
	case daysLeft < 0:
		return TierExpired
	case daysLeft == 0:
		return TierToday
	case daysLeft == 1:
		return TierTomorrow
	case daysLeft <= 3:
		return TierCritical
	case daysLeft <= 7:
		return TierWarning
	default:
		return TierNormal
	}
}

// PriorityScore converts days-until-expiry to a sort weight; higher means
// more urgent. Expired units always outrank everything else.
func PriorityScore(daysLeft int) int {
	switch {
	case daysLeft < 0:
		return 1000
	case daysLeft <= 1:
		return 100
	case daysLeft <= 3:
		return 50
	case daysLeft <= 7:
		return 20
	default:
		if score := 10 - daysLeft; score > 0 {
			return score
		}
		return 0
	}
}

// ProgressPercent returns how far through its shelf life a unit is, clamped
// to [0, 100], for the UI's progress bars.
func ProgressPercent(dt DonationType, daysLeft int) float64 {
	shelf := float64(ShelfLifeDays(dt))
	pct := (shelf - float64(daysLeft)) / shelf * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// SortByUrgency orders units most-urgent-first: descending priority score,
// ties broken by unit id ascending so the ordering is deterministic.
func SortByUrgency(units []*BloodUnit, now time.Time) {
	sort.SliceStable(units, func(i, j int) bool {
		si := PriorityScore(DaysUntilExpiry(units[i].ExpiryDate, now))
		sj := PriorityScore(DaysUntilExpiry(units[j].ExpiryDate, now))
		if si != sj {
			return si > sj
		}
		return units[i].ID.String() < units[j].ID.String()
	})
}

// ExpiryView decorates a unit with the classifier's derived fields for list
// responses on the expiry screens.
type ExpiryView struct {
	*BloodUnit
	DaysUntilExpiry int        `json:"daysUntilExpiry"`
	Tier            ExpiryTier `json:"expiryTier"`
	PriorityScore   int        `json:"priorityScore"`
	ProgressPercent float64    `json:"progressPercent"`
}

// NewExpiryView computes the derived expiry fields for a unit.
func NewExpiryView(u *BloodUnit, now time.Time) *ExpiryView {
	days := DaysUntilExpiry(u.ExpiryDate, now)
	return &ExpiryView{
		BloodUnit:       u,
		DaysUntilExpiry: days,
		Tier:            ClassifyExpiry(days),
		PriorityScore:   PriorityScore(days),
		ProgressPercent: ProgressPercent(u.DonationType, days),
	}
}
