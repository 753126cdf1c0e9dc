package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenBlacklist menyimpan token yang sudah di-logout sampai expired.
type TokenBlacklist struct {
	TokenBlacklistID uuid.UUID  `gorm:"column:token_blacklist_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"token_blacklist_id"`
	Token            string     `gorm:"column:token;type:text;not null;uniqueIndex" json:"token"`
	ExpiredAt        time.Time  `gorm:"column:expired_at;type:timestamptz;not null" json:"expired_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()" json:"created_at"`
	DeletedAt        *time.Time `gorm:"column:deleted_at;type:timestamptz" json:"deleted_at,omitempty"`
}

func (TokenBlacklist) TableName() string { return "token_blacklist" }
