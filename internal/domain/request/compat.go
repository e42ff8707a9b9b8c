package request

import (
	"sort"
	"time"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
)

// aboCompatible is the standard donor -> recipient ABO table: O donates to
// everyone, AB receives from everyone. The O- universal donor and AB+
// universal recipient rules fall out of this table combined with rhCompatible.
var aboCompatible = map[bloodunit.BloodType][]bloodunit.BloodType{
	bloodunit.TypeO:  {bloodunit.TypeO, bloodunit.TypeA, bloodunit.TypeB, bloodunit.TypeAB},
	bloodunit.TypeA:  {bloodunit.TypeA, bloodunit.TypeAB},
	bloodunit.TypeB:  {bloodunit.TypeB, bloodunit.TypeAB},
	bloodunit.TypeAB: {bloodunit.TypeAB},
}

// rhCompatible: Rh-negative donates to either factor; Rh-positive only to
// Rh-positive recipients.
func rhCompatible(donor, recipient bloodunit.RhFactor) bool {
	return donor == bloodunit.RhNegative || recipient == bloodunit.RhPositive
}

// Compatible reports whether a unit of the donor type may be transfused to a
// recipient of the request type.
func Compatible(donorType bloodunit.BloodType, donorRh bloodunit.RhFactor,
	recipientType bloodunit.BloodType, recipientRh bloodunit.RhFactor) bool {
	if !rhCompatible(donorRh, recipientRh) {
		return false
	}
	for _, t := range aboCompatible[donorType] {
		if t == recipientType {
			return true
		}
	}
	return false
}

// RankMatches filters the candidate units down to those compatible with the
// request and still eligible (in inventory, unexpired), then orders them:
// exact type matches first, then cross-compatible, and within each rank by
// ascending days-until-expiry so soon-to-expire stock is used first (FEFO).
// Ties break on unit id ascending for a deterministic order.
func RankMatches(req *BloodRequest, candidates []*bloodunit.BloodUnit, now time.Time) []Match {
	var matches []Match
	for _, u := range candidates {
		if u.Status != bloodunit.StatusInInventory {
			continue
		}
		if !u.ExpiryDate.After(now) {
			continue
		}
		if !Compatible(u.BloodType, u.RhFactor, req.BloodType, req.RhFactor) {
			continue
		}
		matches = append(matches, Match{
			Unit:            u,
			ExactMatch:      u.BloodType == req.BloodType && u.RhFactor == req.RhFactor,
			DaysUntilExpiry: bloodunit.DaysUntilExpiry(u.ExpiryDate, now),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].ExactMatch != matches[j].ExactMatch {
			return matches[i].ExactMatch
		}
		if matches[i].DaysUntilExpiry != matches[j].DaysUntilExpiry {
			return matches[i].DaysUntilExpiry < matches[j].DaysUntilExpiry
		}
		return matches[i].Unit.ID.String() < matches[j].Unit.ID.String()
	})

	return matches
}

// AutoSelect takes the top n ranked matches. When fewer eligible units exist
// than asked for, everything available is returned and the partial flag is
// set.
func AutoSelect(matches []Match, n int) (selected []Match, partial bool) {
	if n > len(matches) {
		return matches, true
	}
	return matches[:n], false
}
