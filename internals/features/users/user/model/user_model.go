package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel merepresentasikan tabel users di database.
// Identitas orang, independen dari role — satu user bisa punya
// beberapa role assignment lintas sekolah (lihat UserSchoolRole).
type UserModel struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	UserName     string    `gorm:"column:user_name;size:50;not null" json:"user_name" validate:"required,min=3,max=50"`
	UserEmail    string    `gorm:"column:user_email;size:255;uniqueIndex;not null" json:"user_email" validate:"required,email"`
	UserPassword string    `gorm:"column:user_password;not null" json:"-" validate:"required,min=8"`
	UserIsActive bool      `gorm:"column:user_is_active;not null;default:true" json:"user_is_active"`

	UserCreatedAt time.Time  `gorm:"column:user_created_at;type:timestamptz;not null;default:now()" json:"user_created_at"`
	UserUpdatedAt time.Time  `gorm:"column:user_updated_at;type:timestamptz;not null;default:now()" json:"user_updated_at"`
	UserDeletedAt *time.Time `gorm:"column:user_deleted_at;type:timestamptz" json:"user_deleted_at,omitempty"`
}

func (UserModel) TableName() string { return "users" }
