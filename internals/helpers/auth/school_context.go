package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
)

/* ============================================
   School context resolver
   ============================================ */

// SchoolContext: hasil resolve scope tenant untuk satu request.
// Tenant id SELALU eksplisit — tidak ada operasi tanpa sekolah.
type SchoolContext struct {
	SchoolID uuid.UUID
	Role     string
}

// ResolveSchoolContext membaca school_id aktif + role aktif dari Locals
// (sudah di-set oleh UseSchoolScope). Error kalau scope belum ada.
func ResolveSchoolContext(c *fiber.Ctx) (SchoolContext, error) {
	id, err := GetActiveSchoolID(c)
	if err != nil {
		return SchoolContext{}, err
	}
	role := GetActiveRole(c)
	if role == "" {
		return SchoolContext{}, fiber.NewError(fiber.StatusUnauthorized, "Role aktif belum ditentukan")
	}
	return SchoolContext{SchoolID: id, Role: role}, nil
}

// EnsureSchoolAccessAdmin memastikan caller adalah admin (atau owner)
// pada sekolah context. Return school id supaya controller tinggal pakai.
func EnsureSchoolAccessAdmin(c *fiber.Ctx, sc SchoolContext) (uuid.UUID, error) {
	if IsOwner(c) {
		return sc.SchoolID, nil
	}
	if strings.EqualFold(sc.Role, constants.RoleAdmin) && HasRoleAtSchool(c, sc.SchoolID, sc.Role) {
		return sc.SchoolID, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Akses khusus admin sekolah")
}

// EnsureSchoolAccessStaff: admin/staff fungsional (registrar, librarian, dst).
func EnsureSchoolAccessStaff(c *fiber.Ctx, sc SchoolContext) (uuid.UUID, error) {
	if IsOwner(c) {
		return sc.SchoolID, nil
	}
	for _, r := range constants.StaffRoles {
		if strings.EqualFold(sc.Role, r) && HasRoleAtSchool(c, sc.SchoolID, sc.Role) {
			return sc.SchoolID, nil
		}
	}
	return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Akses khusus staff sekolah")
}

// EnsureMember: cukup anggota sekolah (role apapun yang terdaftar).
func EnsureMember(c *fiber.Ctx, sc SchoolContext) (uuid.UUID, error) {
	if IsOwner(c) {
		return sc.SchoolID, nil
	}
	if len(RolesAtSchool(c, sc.SchoolID)) > 0 {
		return sc.SchoolID, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Bukan anggota pada sekolah yang diminta")
}
