package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
)

/* ============================================
   Locals Keys (diisi oleh auth middleware)
   ============================================ */

const (
	LocRole   = "role"    // role aktif request ini
	LocUserID = "user_id" // string UUID

	LocRolesGlobal    = "roles_global"     // []string
	LocSchoolRoles    = "school_roles"     // []SchoolRolesEntry
	LocIsOwner        = "is_owner"         // bool
	LocActiveSchoolID = "active_school_id" // string UUID
	LocActiveRole     = "active_role"      // string
)

/* ============================================
   Structured claims
   ============================================ */

// SchoolRolesEntry: daftar role milik user pada satu sekolah,
// plus scope opsional (department / year group) yang MEMBATASI role.
type SchoolRolesEntry struct {
	SchoolID     uuid.UUID `json:"school_id"`
	Roles        []string  `json:"roles"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	YearGroupID  *uuid.UUID `json:"year_group_id,omitempty"`
}

type RolesClaim struct {
	RolesGlobal []string           `json:"roles_global"`
	SchoolRoles []SchoolRolesEntry `json:"school_roles"`
}

/* ============================================
   Getters dari Locals
   ============================================ */

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals(LocUserID).(string)
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user_id tidak ditemukan di token")
	}
	return id, nil
}

func GetRolesClaim(c *fiber.Ctx) (RolesClaim, bool) {
	rc, ok := c.Locals("roles_claim").(RolesClaim)
	return rc, ok
}

// IsOwner: role global owner (super admin) → bypass rule lookup.
func IsOwner(c *fiber.Ctx) bool {
	if b, ok := c.Locals(LocIsOwner).(bool); ok && b {
		return true
	}
	rc, ok := GetRolesClaim(c)
	if !ok {
		return false
	}
	for _, r := range rc.RolesGlobal {
		if strings.EqualFold(r, constants.RoleOwner) {
			return true
		}
	}
	return false
}

func GetActiveSchoolID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals(LocActiveSchoolID).(string)
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Scope sekolah belum ditentukan")
	}
	return id, nil
}

func GetActiveRole(c *fiber.Ctx) string {
	if s, ok := c.Locals(LocActiveRole).(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	if s, ok := c.Locals(LocRole).(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return ""
}

// RolesAtSchool: semua role user pada sekolah tertentu (dari claim).
func RolesAtSchool(c *fiber.Ctx, schoolID uuid.UUID) []string {
	rc, ok := GetRolesClaim(c)
	if !ok {
		return nil
	}
	for _, e := range rc.SchoolRoles {
		if e.SchoolID == schoolID {
			return e.Roles
		}
	}
	return nil
}

// ScopeAtSchool: entry lengkap (termasuk department/year-group scope).
func ScopeAtSchool(c *fiber.Ctx, schoolID uuid.UUID) (SchoolRolesEntry, bool) {
	rc, ok := GetRolesClaim(c)
	if !ok {
		return SchoolRolesEntry{}, false
	}
	for _, e := range rc.SchoolRoles {
		if e.SchoolID == schoolID {
			return e, true
		}
	}
	return SchoolRolesEntry{}, false
}

func HasRoleAtSchool(c *fiber.Ctx, schoolID uuid.UUID, role string) bool {
	for _, r := range RolesAtSchool(c, schoolID) {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// BestRoleFor memilih role berprioritas tertinggi.
func BestRoleFor(roles []string) string {
	best, bestPrio := "", -1
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if p := constants.RolePriority[r]; r != "" && p > bestPrio {
			best, bestPrio = r, p
		}
	}
	return best
}
