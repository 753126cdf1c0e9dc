package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/constants"
	authModel "schoolku_backend/internals/features/users/auth/model"
	userModel "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
)

const tokenTTL = 24 * time.Hour

type AuthController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db, Validator: validator.New()}
}

type registerRequest struct {
	UserName     string `json:"user_name" validate:"required,min=3,max=50"`
	UserEmail    string `json:"user_email" validate:"required,email"`
	UserPassword string `json:"user_password" validate:"required,min=8"`
}

type loginRequest struct {
	UserEmail    string `json:"user_email" validate:"required,email"`
	UserPassword string `json:"user_password" validate:"required"`
}

/* =========================================================
   Register
   ========================================================= */

func (ctl *AuthController) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.UserPassword), bcrypt.DefaultCost)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal memproses password")
	}

	user := userModel.UserModel{
		UserName:     req.UserName,
		UserEmail:    strings.ToLower(strings.TrimSpace(req.UserEmail)),
		UserPassword: string(hash),
		UserIsActive: true,
	}
	if err := ctl.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return helper.Error(c, fiber.StatusConflict, "Email sudah terdaftar")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Registrasi berhasil", fiber.Map{
		"user_id":    user.UserID,
		"user_email": user.UserEmail,
	})
}

/* =========================================================
   Login — token memuat roles_global + school_roles
   ========================================================= */

func (ctl *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var user userModel.UserModel
	if err := ctl.DB.
		Where("user_email = ? AND user_deleted_at IS NULL", strings.ToLower(strings.TrimSpace(req.UserEmail))).
		First(&user).Error; err != nil {
		// email tidak ada vs password salah dijawab sama
		return helper.Error(c, fiber.StatusUnauthorized, "Email atau password salah")
	}
	if !user.UserIsActive {
		return helper.Error(c, fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.UserPassword), []byte(req.UserPassword)); err != nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Email atau password salah")
	}

	token, expiresAt, err := ctl.buildToken(&user)
	if err != nil {
		log.Println("[ERROR] gagal buat token:", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal membuat token")
	}

	return helper.Success(c, "Login berhasil", fiber.Map{
		"access_token": token,
		"expires_at":   expiresAt,
		"user": fiber.Map{
			"user_id":    user.UserID,
			"user_name":  user.UserName,
			"user_email": user.UserEmail,
		},
	})
}

func (ctl *AuthController) buildToken(user *userModel.UserModel) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(tokenTTL)

	// assignment efektif per sekolah → claim school_roles
	var assignments []userModel.UserSchoolRole
	if err := userModel.ScopeEffectiveRoles(ctl.DB).
		Where("user_school_role_user_id = ?", user.UserID).
		Find(&assignments).Error; err != nil {
		return "", time.Time{}, err
	}

	rolesGlobal := []string{}
	bySchool := map[string]map[string]any{}
	for _, a := range assignments {
		if a.UserSchoolRoleRole == constants.RoleOwner {
			rolesGlobal = append(rolesGlobal, constants.RoleOwner)
			continue
		}
		key := a.UserSchoolRoleSchoolID.String()
		entry, ok := bySchool[key]
		if !ok {
			entry = map[string]any{"school_id": key, "roles": []string{}}
			bySchool[key] = entry
		}
		entry["roles"] = append(entry["roles"].([]string), a.UserSchoolRoleRole)
		if a.UserSchoolRoleDepartmentID != nil {
			entry["department_id"] = a.UserSchoolRoleDepartmentID.String()
		}
		if a.UserSchoolRoleYearGroupID != nil {
			entry["year_group_id"] = a.UserSchoolRoleYearGroupID.String()
		}
	}
	schoolRoles := make([]map[string]any, 0, len(bySchool))
	for _, e := range bySchool {
		schoolRoles = append(schoolRoles, e)
	}

	claims := jwt.MapClaims{
		"user_id":      user.UserID.String(),
		"roles_global": rolesGlobal,
		"school_roles": schoolRoles,
		"iat":          now.Unix(),
		"exp":          expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(configs.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

/* =========================================================
   Logout — token masuk blacklist sampai expired
   ========================================================= */

func (ctl *AuthController) Logout(c *fiber.Ctx) error {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return helper.Error(c, fiber.StatusBadRequest, "Authorization header tidak valid")
	}
	tokenString := strings.TrimSpace(parts[1])

	// ambil exp dari token supaya blacklist bisa dibersihkan scheduler
	expiredAt := time.Now().UTC().Add(tokenTTL)
	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(configs.JWTSecret), nil
	}); err == nil {
		if expF, ok := claims["exp"].(float64); ok {
			expiredAt = time.Unix(int64(expF), 0)
		}
	}

	entry := authModel.TokenBlacklist{Token: tokenString, ExpiredAt: expiredAt}
	if err := ctl.DB.Create(&entry).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "Logout berhasil", nil)
}
