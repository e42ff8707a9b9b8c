package bloodunit

import (
	"time"

	"github.com/google/uuid"
)

// BloodType is an ABO blood group.
type BloodType string

const (
	TypeA  BloodType = "A"
	TypeB  BloodType = "B"
	TypeAB BloodType = "AB"
	TypeO  BloodType = "O"
)

// RhFactor is the Rh antigen marker.
type RhFactor string

const (
	RhPositive RhFactor = "+"
	RhNegative RhFactor = "-"
)

// DonationType identifies the blood product a unit holds. Each product has a
// distinct shelf life.
type DonationType string

const (
	WholeBlood    DonationType = "whole_blood"
	Plasma        DonationType = "plasma"
	Platelets     DonationType = "platelets"
	RedBloodCells DonationType = "red_blood_cells"
)

// ShelfLifeDays returns the number of days a unit of the given product
// remains usable after collection.
func ShelfLifeDays(dt DonationType) int {
	switch dt {
	case Plasma:
		return 365
	case Platelets:
		return 5
	default: // whole blood and red blood cells
		return 42
	}
}

// Status is a blood unit's lifecycle state.
type Status string

const (
	StatusCollected   Status = "collected"
	StatusTested      Status = "tested"
	StatusProcessed   Status = "processed"
	StatusInInventory Status = "in_inventory"
	StatusReserved    Status = "reserved"
	StatusDispatched  Status = "dispatched"
	StatusUsed        Status = "used"
	StatusExpired     Status = "expired"
	StatusDiscarded   Status = "discarded"
)

// DiscardReason is the closed vocabulary of reasons a unit may be discarded.
type DiscardReason string

const (
	ReasonExpired          DiscardReason = "expired"
	ReasonContaminated     DiscardReason = "contaminated"
	ReasonQualityControl   DiscardReason = "quality_control"
	ReasonStorageFailure   DiscardReason = "storage_failure"
	ReasonDamagedContainer DiscardReason = "damaged_container"
	ReasonOther            DiscardReason = "other"
)

var validDiscardReasons = map[DiscardReason]bool{
	ReasonExpired: true, ReasonContaminated: true, ReasonQualityControl: true,
	ReasonStorageFailure: true, ReasonDamagedContainer: true, ReasonOther: true,
}

// ValidDiscardReason reports whether r is in the discard vocabulary.
func ValidDiscardReason(r DiscardReason) bool {
	return validDiscardReasons[r]
}

// BloodUnit maps to the blood_unit table: one donated and processed unit,
// tracked individually through its life. Units are never deleted; discarded
// units are retained for audit.
type BloodUnit struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	BloodType      BloodType    `db:"blood_type" json:"bloodType"`
	RhFactor       RhFactor     `db:"rh_factor" json:"rhFactor"`
	DonationType   DonationType `db:"donation_type" json:"donationType"`
	CollectionDate time.Time    `db:"collection_date" json:"collectionDate"`
	ExpiryDate     time.Time    `db:"expiry_date" json:"expiryDate"`
	Status         Status       `db:"status" json:"status"`

	DonorID     *uuid.UUID `db:"donor_id" json:"donor,omitempty"`
	BloodBankID *uuid.UUID `db:"blood_bank_id" json:"bloodBank,omitempty"`

	// Populated only once dispatched.
	DispatchedTo  *uuid.UUID `db:"dispatched_to" json:"dispatchedTo,omitempty"`
	DispatchedAt  *time.Time `db:"dispatched_at" json:"dispatchedAt,omitempty"`
	DispatchNotes *string    `db:"dispatch_notes" json:"dispatchNotes,omitempty"`

	// Populated only once used.
	UsedFor *string    `db:"used_for" json:"usedFor,omitempty"`
	UsedAt  *time.Time `db:"used_at" json:"usedAt,omitempty"`

	// Populated only once discarded.
	DiscardReason *DiscardReason `db:"discard_reason" json:"discardReason,omitempty"`
	DiscardedAt   *time.Time     `db:"discarded_at" json:"discardedAt,omitempty"`

	// Set while the unit is reserved against a request.
	ReservedFor *uuid.UUID `db:"reserved_for_request_id" json:"forRequest,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StatusEvent maps to the blood_unit_event table: one row per status
// transition, served as the unit's tracking history.
type StatusEvent struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UnitID     uuid.UUID `db:"unit_id" json:"unitId"`
	FromStatus Status    `db:"from_status" json:"fromStatus"`
	ToStatus   Status    `db:"to_status" json:"toStatus"`
	Actor      string    `db:"actor" json:"actor,omitempty"`
	Note       string    `db:"note" json:"note,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
}

// Stats is the inventory aggregate the dashboards poll.
type Stats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"byStatus"`
	ByBloodType  map[string]int `json:"byBloodType"` // in-inventory units only, keyed "A+", "O-", ...
	ExpiringSoon int            `json:"expiringSoon"`
	Expired      int            `json:"expired"`
}

// TypeLabel renders the combined ABO/Rh label, e.g. "O-".
func (u *BloodUnit) TypeLabel() string {
	return string(u.BloodType) + string(u.RhFactor)
}
