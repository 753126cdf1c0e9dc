package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	helper "schoolku_backend/internals/helpers/auth"
)

func trimLower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

/* ==========================
   Ekstraksi school_id & role dari request
========================== */

// extractSchoolIDStrict: hanya balikin kalau benar-benar UUID school_id.
func extractSchoolIDStrict(c *fiber.Ctx) string {
	// 1) param (/:school_id)
	for _, key := range []string{"school_id", "id"} {
		if v := strings.TrimSpace(c.Params(key)); v != "" {
			if _, err := uuid.Parse(v); err == nil {
				return v
			}
		}
	}
	// 2) query (?school_id=)
	if v := strings.TrimSpace(c.Query("school_id")); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	// 3) header (X-School-ID)
	if v := strings.TrimSpace(c.Get("X-School-ID")); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	// 4) parse path: cari segmen setelah "schools" atau /api/(a|u)/:school_id/...
	path := strings.Trim(c.Path(), "/")
	parts := strings.Split(path, "/")
	n := len(parts)
	if n >= 3 && strings.EqualFold(parts[0], "api") &&
		(strings.EqualFold(parts[1], "a") || strings.EqualFold(parts[1], "u")) {
		if _, err := uuid.Parse(parts[2]); err == nil {
			return parts[2]
		}
	}
	for i := 0; i < n-1; i++ {
		if strings.EqualFold(parts[i], "schools") {
			if _, err := uuid.Parse(parts[i+1]); err == nil {
				return parts[i+1]
			}
		}
	}
	return ""
}

func extractRole(c *fiber.Ctx) string {
	if v := trimLower(c.Query("active_role")); v != "" {
		return v
	}
	if v := trimLower(c.Get("X-Role")); v != "" {
		return v
	}
	return ""
}

/* ==========================
   STRICT SCOPE — by PATH + token fallback
========================== */

// UseSchoolScope:
// - Ambil school_id dari PATH/param (UUID); kalau kosong, error.
// - Non-owner: school harus ada di token (school_roles).
// - Role: jika dikirim user, harus ada di school tsb; kalau tidak, pilih best role.
// - Set locals: active_school_id, active_role (+ kompat: school_id, role).
func UseSchoolScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := strings.TrimRight(strings.ToLower(strings.TrimSpace(c.Path())), "/")

		// BYPASS semua route PUBLIC + webhook pembayaran
		if strings.HasPrefix(p, "/api/public/") || p == "/api/payments/notification" {
			return c.Next()
		}

		isOwner := helper.IsOwner(c)

		reqSchool := strings.TrimSpace(extractSchoolIDStrict(c))
		if reqSchool == "" {
			return fiber.NewError(fiber.StatusBadRequest, "school_id wajib di path, parameter, atau header")
		}
		schoolID, err := uuid.Parse(reqSchool)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "school_id tidak valid")
		}

		reqRole := extractRole(c)

		// OWNER bypass
		if isOwner {
			if reqRole == "" {
				reqRole = constants.RoleOwner
			}
			setScopeLocals(c, reqSchool, reqRole)
			return c.Next()
		}

		rolesAtSchool := helper.RolesAtSchool(c, schoolID)
		if len(rolesAtSchool) == 0 {
			return fiber.NewError(fiber.StatusForbidden, "Bukan anggota pada sekolah yang diminta")
		}

		activeRole := reqRole
		if activeRole != "" {
			if !helper.HasRoleAtSchool(c, schoolID, activeRole) {
				return fiber.NewError(fiber.StatusForbidden, "Role tidak tersedia pada sekolah tersebut")
			}
		} else {
			activeRole = helper.BestRoleFor(rolesAtSchool)
			if activeRole == "" {
				return fiber.NewError(fiber.StatusForbidden, "Tidak memiliki peran pada sekolah tersebut")
			}
		}

		setScopeLocals(c, reqSchool, activeRole)
		return c.Next()
	}
}

func setScopeLocals(c *fiber.Ctx, schoolID, role string) {
	c.Locals(helper.LocActiveSchoolID, schoolID)
	c.Locals(helper.LocActiveRole, role)
	// kompat locals lama
	c.Locals("school_id", schoolID)
	c.Locals(helper.LocRole, role)
	log.Println("    🔧 scope set | school_id:", schoolID, "| role:", role)
}

/* ==========================
   Guard: path ↔ scope harus cocok (defense in depth)
========================== */

func RequirePathScopeMatch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(strings.ToLower(c.Path()), "/api/a/") {
			return c.Next()
		}
		pathID := strings.TrimSpace(extractSchoolIDStrict(c))
		if pathID == "" {
			return c.Next()
		}
		active := strings.TrimSpace(asString(c.Locals(helper.LocActiveSchoolID)))
		if active == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Scope sekolah belum ditentukan")
		}
		if !strings.EqualFold(pathID, active) {
			return fiber.NewError(fiber.StatusForbidden, "Scope sekolah tidak cocok dengan path")
		}
		return c.Next()
	}
}

/* ==========================
   STRICT ROLE CHECK
========================== */

// IsSchoolAdmin (strict): hanya owner/admin.
func IsSchoolAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		mid := strings.TrimSpace(asString(c.Locals(helper.LocActiveSchoolID)))
		role := trimLower(asString(c.Locals(helper.LocActiveRole)))
		if mid == "" || role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Scope sekolah/role belum ditentukan")
		}
		if helper.IsOwner(c) {
			return c.Next()
		}
		if role != constants.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Role tidak berhak mengakses endpoint ini")
		}
		schoolID, _ := uuid.Parse(mid)
		if !helper.HasRoleAtSchool(c, schoolID, role) {
			return fiber.NewError(fiber.StatusForbidden, "Role tidak terdaftar pada sekolah ini")
		}
		return c.Next()
	}
}

// IsSchoolStaff: semua role staff fungsional (plus owner).
func IsSchoolStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		mid := strings.TrimSpace(asString(c.Locals(helper.LocActiveSchoolID)))
		role := trimLower(asString(c.Locals(helper.LocActiveRole)))
		if mid == "" || role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Scope sekolah/role belum ditentukan")
		}
		if helper.IsOwner(c) {
			return c.Next()
		}
		ok := false
		for _, r := range constants.StaffRoles {
			if role == r {
				ok = true
				break
			}
		}
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role tidak berhak mengakses endpoint ini")
		}
		schoolID, _ := uuid.Parse(mid)
		if !helper.HasRoleAtSchool(c, schoolID, role) {
			return fiber.NewError(fiber.StatusForbidden, "Role tidak terdaftar pada sekolah ini")
		}
		return c.Next()
	}
}

// IsOwnerGlobal: akses khusus owner lintas sekolah.
func IsOwnerGlobal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if helper.IsOwner(c) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "Akses khusus owner")
	}
}
