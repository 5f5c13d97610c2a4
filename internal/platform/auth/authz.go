package auth

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
)

// RequireRole restricts a route group to the named roles. It assumes the
// authentication middleware already ran; a missing identity is treated as
// unauthenticated rather than forbidden.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFromContext(c.Request().Context())
			if ident == nil {
				return apperr.Unauthenticated("not authenticated")
			}
			if !allowed[ident.Role] {
				return apperr.Forbidden("role %s is not permitted", ident.Role)
			}
			return next(c)
		}
	}
}

// AllowsPatientRecord reports whether the caller may read records belonging
// to the given patient. Staff roles see every patient; a patient sees only
// their own profile.
func (i *Identity) AllowsPatientRecord(patientID uuid.UUID) bool {
	switch i.Role {
	case RoleSystemAdmin, RoleHospitalAdmin, RoleDoctor, RoleLabTechnician, RolePharmacist:
		return true
	case RolePatient:
		return i.PatientID != nil && *i.PatientID == patientID
	}
	return false
}

// AllowsDoctorRecord reports whether the caller may modify records belonging
// to the given doctor. Admins may; a doctor may touch only their own.
func (i *Identity) AllowsDoctorRecord(doctorID uuid.UUID) bool {
	switch i.Role {
	case RoleSystemAdmin, RoleHospitalAdmin:
		return true
	case RoleDoctor:
		return i.DoctorID != nil && *i.DoctorID == doctorID
	}
	return false
}

// AllowsHospital reports whether the caller may manage the given hospital.
// System admins manage all hospitals; a hospital admin only their own.
func (i *Identity) AllowsHospital(hospitalID uuid.UUID) bool {
	switch i.Role {
	case RoleSystemAdmin:
		return true
	case RoleHospitalAdmin:
		return i.HospitalID != nil && *i.HospitalID == hospitalID
	}
	return false
}
