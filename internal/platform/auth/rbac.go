package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role is an account role carried in the JWT roles claim.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleBloodBank          Role = "blood_bank"
	RoleMedicalInstitution Role = "medical_institution"
	RoleDonor              Role = "donor"
)

// Operation names a coarse-grained action on the API. Every route is gated by
// exactly one operation, and the role sets live in one table so the HTTP layer
// and any future UI gating consult the same source.
type Operation string

const (
	OpUnitRead       Operation = "unit:read"
	OpUnitWrite      Operation = "unit:write"
	OpUnitDiscard    Operation = "unit:discard"
	OpRequestRead    Operation = "request:read"
	OpRequestWrite   Operation = "request:write"
	OpRequestFulfill Operation = "request:fulfill"
	OpAppRead        Operation = "application:read"
	OpAppSubmit      Operation = "application:submit"
	OpAppReview      Operation = "application:review"
	OpDirectoryRead  Operation = "directory:read"
	OpDirectoryWrite Operation = "directory:write"
)

var capabilities = map[Operation][]Role{
	OpUnitRead:       {RoleAdmin, RoleBloodBank, RoleMedicalInstitution},
	OpUnitWrite:      {RoleAdmin, RoleBloodBank},
	OpUnitDiscard:    {RoleAdmin, RoleBloodBank},
	OpRequestRead:    {RoleAdmin, RoleBloodBank, RoleMedicalInstitution},
	OpRequestWrite:   {RoleAdmin, RoleMedicalInstitution},
	OpRequestFulfill: {RoleAdmin, RoleBloodBank},
	OpAppRead:        {RoleAdmin},
	OpAppSubmit:      {}, // open: self-service application submission
	OpAppReview:      {RoleAdmin},
	OpDirectoryRead:  {RoleAdmin, RoleBloodBank, RoleMedicalInstitution},
	OpDirectoryWrite: {RoleAdmin, RoleBloodBank},
}

// AllowedRoles returns the set of roles permitted to perform the operation.
// An empty set means the operation is open to unauthenticated callers.
func AllowedRoles(op Operation) []Role {
	return capabilities[op]
}

// Allowed reports whether any of the caller's roles permits the operation.
// Admin is permitted everywhere.
func Allowed(op Operation, roles []string) bool {
	allowed := capabilities[op]
	if len(allowed) == 0 {
		return true
	}
	for _, has := range roles {
		if has == string(RoleAdmin) {
			return true
		}
		for _, want := range allowed {
			if has == string(want) {
				return true
			}
		}
	}
	return false
}

// RequireOperation returns middleware that rejects callers whose roles do not
// permit the operation.
func RequireOperation(op Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles := RolesFromContext(c.Request().Context())
			if Allowed(op, roles) {
				return next(c)
			}
			names := make([]string, 0, len(capabilities[op]))
			for _, r := range capabilities[op] {
				names = append(names, string(r))
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}
