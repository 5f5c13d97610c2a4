package auth

import "github.com/hms/hms/internal/platform/apperr"

// Role is the closed set of user categories. Every endpoint declares the
// roles allowed to call it; anything outside this set is rejected at
// registration time.
type Role string

const (
	RoleSystemAdmin   Role = "system_admin"
	RoleHospitalAdmin Role = "hospital_admin"
	RoleDoctor        Role = "doctor"
	RolePatient       Role = "patient"
	RoleLabTechnician Role = "lab_technician"
	RolePharmacist    Role = "pharmacist"
)

// AllRoles lists every valid role.
var AllRoles = []Role{
	RoleSystemAdmin,
	RoleHospitalAdmin,
	RoleDoctor,
	RolePatient,
	RoleLabTechnician,
	RolePharmacist,
}

// ParseRole validates a raw role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", apperr.Invalid("unknown role: %q", s)
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Elevated reports whether r bypasses ownership gates. Only the system
// administrator sees every record unconditionally.
func (r Role) Elevated() bool {
	return r == RoleSystemAdmin
}
