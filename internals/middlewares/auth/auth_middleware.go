package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	authModel "schoolku_backend/internals/features/users/auth/model"
	userModel "schoolku_backend/internals/features/users/user/model"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

// Path publik yang di-skip auth: webhook Midtrans + register/login
var skipPaths = map[string]struct{}{
	"/api/payments/notification": {},
	"/api/auth/register":         {},
	"/api/auth/login":            {},
}

func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1) Skip path tertentu (webhook dsb.)
		if _, ok := skipPaths[c.Path()]; ok {
			log.Println("[INFO] Skip AuthMiddleware for:", c.Path())
			return c.Next()
		}

		// 2) Ambil Authorization (atau cookie)
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		// 3) Cek blacklist (sekali per request)
		if c.Locals("token_checked") == nil {
			var existing authModel.TokenBlacklist
			if err := db.Where("token = ? AND deleted_at IS NULL", tokenString).First(&existing).Error; err == nil {
				log.Println("[WARNING] Token ditemukan di blacklist")
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token is blacklisted")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Println("[ERROR] DB error saat cek blacklist:", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
			}
			c.Locals("token_checked", true)
		}

		// 4) Parse & verifikasi JWT
		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		}); err != nil {
			log.Println("[ERROR] Gagal parse token:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		// 5) Validasi exp
		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			log.Println("[ERROR] Exp validation:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		// 6) Ambil user_id & validasi user aktif
		userID, err := extractUserID(claims)
		if err != nil {
			log.Println("[ERROR] user_id:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}
		c.Locals(helperAuth.LocUserID, userID.String())

		if err := ensureUserActive(db, userID); err != nil {
			log.Println("[ERROR] ensureUserActive:", err)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - User not found")
			}
			return fiber.NewError(fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
		}

		// 7) Simpan klaim terstruktur ke Locals (roles global + school_roles)
		storeRolesClaimToLocals(c, claims)

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1]), nil
		}
		return "", errors.New("format Authorization header tidak valid")
	}
	if ck := strings.TrimSpace(c.Cookies("access_token")); ck != "" {
		return ck, nil
	}
	return "", errors.New("Authorization header kosong")
}

func validateTokenExpiry(claims jwt.MapClaims, leeway time.Duration) error {
	expRaw, ok := claims["exp"]
	if !ok {
		return errors.New("claim exp tidak ada")
	}
	expF, ok := expRaw.(float64)
	if !ok {
		return errors.New("claim exp bukan angka")
	}
	expTime := time.Unix(int64(expF), 0)
	if time.Now().After(expTime.Add(leeway)) {
		return fmt.Errorf("token expired pada %s", expTime)
	}
	return nil
}

func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, key := range []string{"user_id", "sub", "id"} {
		if raw, ok := claims[key]; ok {
			if s, ok := raw.(string); ok {
				if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
					return id, nil
				}
			}
		}
	}
	return uuid.Nil, errors.New("user_id tidak ditemukan di claims")
}

func ensureUserActive(db *gorm.DB, userID uuid.UUID) error {
	var u userModel.UserModel
	if err := db.Select("user_id", "user_is_active").First(&u, "user_id = ?", userID).Error; err != nil {
		return err
	}
	if !u.UserIsActive {
		return errors.New("user nonaktif")
	}
	return nil
}

// storeRolesClaimToLocals membaca claim roles_global & school_roles dari token
// dan menyimpannya sebagai RolesClaim terstruktur.
func storeRolesClaimToLocals(c *fiber.Ctx, claims jwt.MapClaims) {
	rc := helperAuth.RolesClaim{}

	if raw, ok := claims["roles_global"].([]interface{}); ok {
		for _, it := range raw {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				rc.RolesGlobal = append(rc.RolesGlobal, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	}

	if raw, ok := claims["school_roles"].([]interface{}); ok {
		for _, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			entry := helperAuth.SchoolRolesEntry{}
			if s, ok := m["school_id"].(string); ok {
				if id, err := uuid.Parse(s); err == nil {
					entry.SchoolID = id
				}
			}
			if rr, ok := m["roles"].([]interface{}); ok {
				for _, r := range rr {
					if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
						entry.Roles = append(entry.Roles, strings.ToLower(strings.TrimSpace(s)))
					}
				}
			}
			if s, ok := m["department_id"].(string); ok {
				if id, err := uuid.Parse(s); err == nil {
					entry.DepartmentID = &id
				}
			}
			if s, ok := m["year_group_id"].(string); ok {
				if id, err := uuid.Parse(s); err == nil {
					entry.YearGroupID = &id
				}
			}
			if entry.SchoolID != uuid.Nil {
				rc.SchoolRoles = append(rc.SchoolRoles, entry)
			}
		}
	}

	c.Locals("roles_claim", rc)

	// kompat flag owner
	for _, r := range rc.RolesGlobal {
		if r == "owner" {
			c.Locals(helperAuth.LocIsOwner, true)
			break
		}
	}
}
