package model

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileModel struct {
	UserProfileID     uuid.UUID  `gorm:"column:user_profile_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"user_profile_id"`
	UserProfileUserID uuid.UUID  `gorm:"column:user_profile_user_id;type:uuid;not null;uniqueIndex" json:"user_profile_user_id"`
	UserProfileFullName  string  `gorm:"column:user_profile_full_name;size:120" json:"user_profile_full_name"`
	UserProfilePhone     *string `gorm:"column:user_profile_phone;size:30" json:"user_profile_phone,omitempty"`
	UserProfileAddress   *string `gorm:"column:user_profile_address;type:text" json:"user_profile_address,omitempty"`
	UserProfileBirthDate *time.Time `gorm:"column:user_profile_birth_date;type:date" json:"user_profile_birth_date,omitempty"`
	UserProfileAvatarURL *string `gorm:"column:user_profile_avatar_url;type:text" json:"user_profile_avatar_url,omitempty"`

	UserProfileCreatedAt time.Time  `gorm:"column:user_profile_created_at;type:timestamptz;not null;default:now()" json:"user_profile_created_at"`
	UserProfileUpdatedAt time.Time  `gorm:"column:user_profile_updated_at;type:timestamptz;not null;default:now()" json:"user_profile_updated_at"`
	UserProfileDeletedAt *time.Time `gorm:"column:user_profile_deleted_at;type:timestamptz" json:"user_profile_deleted_at,omitempty"`
}

func (UserProfileModel) TableName() string { return "user_profiles" }
