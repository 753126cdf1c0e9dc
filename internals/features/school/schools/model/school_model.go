package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================
   Model: schools (tenant)
   ========================= */

// SchoolModel: tenant. Tidak pernah hard-delete — hanya dinonaktifkan.
// Semua entity tenant-scoped menunjuk ke school_id ini.
type SchoolModel struct {
	SchoolID   uuid.UUID `gorm:"column:school_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"school_id"`
	SchoolName string    `gorm:"column:school_name;size:160;not null" json:"school_name"`
	SchoolSlug string    `gorm:"column:school_slug;size:120;not null;uniqueIndex" json:"school_slug"`

	// batas tahun ajaran aktif
	SchoolAcademicYearStart *time.Time `gorm:"column:school_academic_year_start;type:date" json:"school_academic_year_start,omitempty"`
	SchoolAcademicYearEnd   *time.Time `gorm:"column:school_academic_year_end;type:date" json:"school_academic_year_end,omitempty"`

	// branding
	SchoolLogoURL *string `gorm:"column:school_logo_url;type:text" json:"school_logo_url,omitempty"`

	// module flags & settings (JSONB)
	SchoolModules  datatypes.JSON `gorm:"column:school_modules;type:jsonb" json:"school_modules,omitempty"`
	SchoolSettings datatypes.JSON `gorm:"column:school_settings;type:jsonb" json:"school_settings,omitempty"`

	SchoolIsActive bool `gorm:"column:school_is_active;not null;default:true" json:"school_is_active"`

	SchoolCreatedAt time.Time  `gorm:"column:school_created_at;type:timestamptz;not null;default:now()" json:"school_created_at"`
	SchoolUpdatedAt time.Time  `gorm:"column:school_updated_at;type:timestamptz;not null;default:now()" json:"school_updated_at"`
	SchoolDeletedAt *time.Time `gorm:"column:school_deleted_at;type:timestamptz" json:"school_deleted_at,omitempty"`
}

func (SchoolModel) TableName() string { return "schools" }

func (s *SchoolModel) BeforeCreate(tx *gorm.DB) error {
	s.SchoolUpdatedAt = time.Now().UTC()
	return nil
}
func (s *SchoolModel) BeforeUpdate(tx *gorm.DB) error {
	s.SchoolUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Module flags
   ========================= */

// ModuleFlag: status satu modul fungsional pada tenant.
// "enabled"  → normal.
// "disabled" → read tetap boleh (visibilitas audit), write/delete/approve ditolak.
// "revoked"  → semua akses ditolak.
type ModuleFlag struct {
	Module string `json:"module"`
	Status string `json:"status"` // enabled | disabled | revoked
}

const (
	ModuleEnabled  = "enabled"
	ModuleDisabled = "disabled"
	ModuleRevoked  = "revoked"
)

// ModuleFlags parse kolom school_modules. Modul yang tidak tercantum
// dianggap enabled.
func (s *SchoolModel) ModuleFlags() map[string]string {
	out := map[string]string{}
	if len(s.SchoolModules) == 0 {
		return out
	}
	var flags []ModuleFlag
	if err := json.Unmarshal(s.SchoolModules, &flags); err != nil {
		return out
	}
	for _, f := range flags {
		out[f.Module] = f.Status
	}
	return out
}

// SettingInt baca satu setting numerik dari school_settings.
func (s *SchoolModel) SettingInt(key string, def int) int {
	if len(s.SchoolSettings) == 0 {
		return def
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(s.SchoolSettings, &m); err != nil {
		return def
	}
	raw, ok := m[key]
	if !ok {
		return def
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return def
	}
	return n
}

/* =========================
   Scopes
   ========================= */

func ScopeAliveSchools(db *gorm.DB) *gorm.DB {
	return db.Where("school_deleted_at IS NULL")
}

// ScopeActiveSchools: tenant yang ikut diproses job periodik — hidup DAN
// aktif. Sekolah yang dinonaktifkan tetap tersimpan tapi dilewati.
func ScopeActiveSchools(db *gorm.DB) *gorm.DB {
	return ScopeAliveSchools(db).Where("school_is_active = ?", true)
}
