package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role is the account type an applicant registers for.
type Role string

const (
	RoleBloodBank          Role = "blood_bank"
	RoleMedicalInstitution Role = "medical_institution"
)

var validRoles = map[Role]bool{RoleBloodBank: true, RoleMedicalInstitution: true}

// Status is an application's review state. Approved and rejected are
// terminal; a rejected applicant re-applies with a new record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Application maps to the application table: one registration request from a
// blood bank or medical institution awaiting admin review.
type Application struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Email           string          `db:"email" json:"email"`
	Name            string          `db:"name" json:"name"`
	Role            Role            `db:"role" json:"role"`
	Profile         json.RawMessage `db:"profile" json:"profile,omitempty"`
	Status          Status          `db:"status" json:"approvalStatus"`
	RejectionReason *string         `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ReviewedBy      *string         `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time      `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}
