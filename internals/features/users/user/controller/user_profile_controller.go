package controller

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

// UserProfileController: permukaan self-service (/api/u) — user mengelola
// datanya sendiri, tanpa scope sekolah.
type UserProfileController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewUserProfileController(db *gorm.DB) *UserProfileController {
	return &UserProfileController{DB: db, Validator: validator.New()}
}

type updateProfileRequest struct {
	FullName  string     `json:"full_name" validate:"required,max=120"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address   *string    `json:"address,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	AvatarURL *string    `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// Me: identitas + profile + role assignment efektif milik caller.
func (ctl *UserProfileController) Me(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var user model.UserModel
	if err := ctl.DB.
		Where("user_id = ? AND user_deleted_at IS NULL", userID).
		First(&user).Error; err != nil {
		return helper.Error(c, fiber.StatusNotFound, "User tidak ditemukan")
	}

	var profile model.UserProfileModel
	hasProfile := true
	if err := ctl.DB.
		Where("user_profile_user_id = ? AND user_profile_deleted_at IS NULL", userID).
		First(&profile).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusInternalServerError, err.Error())
		}
		hasProfile = false
	}

	var roles []model.UserSchoolRole
	if err := model.ScopeEffectiveRoles(ctl.DB).
		Where("user_school_role_user_id = ?", userID).
		Find(&roles).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	resp := fiber.Map{"user": user, "roles": roles}
	if hasProfile {
		resp["profile"] = profile
	}
	return helper.Success(c, "OK", resp)
}

// UpdateProfile: upsert profile milik caller.
func (ctl *UserProfileController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	now := time.Now().UTC()
	var profile model.UserProfileModel
	err = ctl.DB.
		Where("user_profile_user_id = ? AND user_profile_deleted_at IS NULL", userID).
		First(&profile).Error
	switch {
	case err == nil:
		if uerr := ctl.DB.Model(&model.UserProfileModel{}).
			Where("user_profile_id = ?", profile.UserProfileID).
			Updates(map[string]any{
				"user_profile_full_name":  req.FullName,
				"user_profile_phone":      req.Phone,
				"user_profile_address":    req.Address,
				"user_profile_birth_date": req.BirthDate,
				"user_profile_avatar_url": req.AvatarURL,
				"user_profile_updated_at": now,
			}).Error; uerr != nil {
			return helper.Error(c, fiber.StatusInternalServerError, uerr.Error())
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = model.UserProfileModel{
			UserProfileUserID:    userID,
			UserProfileFullName:  req.FullName,
			UserProfilePhone:     req.Phone,
			UserProfileAddress:   req.Address,
			UserProfileBirthDate: req.BirthDate,
			UserProfileAvatarURL: req.AvatarURL,
		}
		if cerr := ctl.DB.Create(&profile).Error; cerr != nil {
			return helper.Error(c, fiber.StatusInternalServerError, cerr.Error())
		}
	default:
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.Success(c, "Profile disimpan", fiber.Map{"user_id": userID})
}
