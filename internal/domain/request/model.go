package request

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
)

// Urgency is a request's clinical priority.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

var validUrgencies = map[Urgency]bool{
	UrgencyCritical: true, UrgencyHigh: true, UrgencyMedium: true, UrgencyLow: true,
}

// Status is a request's fulfillment state.
type Status string

const (
	StatusPending            Status = "pending"
	StatusPartiallyFulfilled Status = "partially_fulfilled"
	StatusFulfilled          Status = "fulfilled"
	StatusCancelled          Status = "cancelled"
)

// BloodRequest maps to the blood_request table: a medical institution's need
// for N units of a given type and urgency.
type BloodRequest struct {
	ID          uuid.UUID           `db:"id" json:"id"`
	RequesterID uuid.UUID           `db:"requester_id" json:"requester"`
	BloodType   bloodunit.BloodType `db:"blood_type" json:"bloodType"`
	RhFactor    bloodunit.RhFactor  `db:"rh_factor" json:"rhFactor"`
	Quantity    int                 `db:"quantity" json:"quantity"`
	Urgency     Urgency             `db:"urgency" json:"urgency"`
	Status      Status              `db:"status" json:"status"`
	RequiredBy  *time.Time          `db:"required_by" json:"requiredBy,omitempty"`
	Notes       *string             `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// Match is one ranked candidate unit for a request.
type Match struct {
	Unit            *bloodunit.BloodUnit `json:"unit"`
	ExactMatch      bool                 `json:"exactMatch"`
	DaysUntilExpiry int                  `json:"daysUntilExpiry"`
}

// MatchSet is the matcher's answer for a request.
type MatchSet struct {
	RequestID uuid.UUID `json:"requestId"`
	Matches   []Match   `json:"matches"`
	Selected  []Match   `json:"selected,omitempty"`
	Partial   bool      `json:"partial"`
}
