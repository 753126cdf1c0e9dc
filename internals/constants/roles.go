package constants

import "fmt"

// ==========================
// ✅ Role constants (closed set)
// ==========================
const (
	RoleOwner            = "owner" // super admin lintas sekolah
	RoleAdmin            = "admin"
	RoleTeacher          = "teacher"
	RoleRegistrar        = "registrar"
	RoleLibrarian        = "librarian"
	RoleTransportOfficer = "transport_officer"
	RoleTreasurer        = "treasurer"
	RoleCounselor        = "counselor"
	RoleParent           = "parent"
	RoleStudent          = "student"
	RoleUser             = "user"
)

// Template pesan error role
const (
	ErrOnlyStaffCanAccess  = "❌ Hanya staff sekolah yang boleh mengakses fitur %s."
	ErrOnlyAdminsCanAccess = "❌ Hanya admin yang boleh mengakses fitur %s."
	ErrOnlyOwnersCanAccess = "❌ Hanya owner yang boleh mengakses fitur %s."
)

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorOwner(feature string) string {
	return fmt.Sprintf(ErrOnlyOwnersCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleUser,
		RoleStudent,
		RoleParent,
		RoleTeacher,
		RoleRegistrar,
		RoleLibrarian,
		RoleTransportOfficer,
		RoleTreasurer,
		RoleCounselor,
		RoleAdmin,
		RoleOwner,
	}

	StaffRoles = []string{
		RoleTeacher,
		RoleRegistrar,
		RoleLibrarian,
		RoleTransportOfficer,
		RoleTreasurer,
		RoleCounselor,
		RoleAdmin,
		RoleOwner,
	}

	AdminAndAbove = []string{
		RoleAdmin,
		RoleOwner,
	}

	OwnerOnly = []string{
		RoleOwner,
	}
)

// RolePriority dipakai untuk auto-pick role terbaik saat satu user
// memegang beberapa role pada sekolah yang sama.
var RolePriority = map[string]int{
	RoleOwner:            100,
	RoleAdmin:            90,
	RoleRegistrar:        75,
	RoleTeacher:          70,
	RoleCounselor:        65,
	RoleLibrarian:        60,
	RoleTransportOfficer: 60,
	RoleTreasurer:        60,
	RoleParent:           30,
	RoleStudent:          20,
	RoleUser:             10,
}

func IsKnownRole(r string) bool {
	for _, k := range AllRoles {
		if k == r {
			return true
		}
	}
	return false
}
