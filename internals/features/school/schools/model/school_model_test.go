package model

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSchoolDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE schools (
		school_id                  TEXT PRIMARY KEY,
		school_name                TEXT NOT NULL,
		school_slug                TEXT NOT NULL UNIQUE,
		school_academic_year_start DATE,
		school_academic_year_end   DATE,
		school_logo_url            TEXT,
		school_modules             TEXT,
		school_settings            TEXT,
		school_is_active           INTEGER NOT NULL DEFAULT 1,
		school_created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		school_updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		school_deleted_at          DATETIME
	)`).Error)
	return db
}

func seedSchool(t *testing.T, db *gorm.DB, slug string, active bool, deletedAt *time.Time) SchoolModel {
	t.Helper()
	s := SchoolModel{
		SchoolID:        uuid.New(),
		SchoolName:      "Sekolah " + slug,
		SchoolSlug:      slug,
		SchoolIsActive:  active,
		SchoolDeletedAt: deletedAt,
		SchoolCreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&s).Error)
	if !active {
		// false adalah zero value → di-omit gorm saat insert karena kolom
		// punya default, jadi dinonaktifkan lewat update eksplisit
		require.NoError(t, db.Model(&SchoolModel{}).
			Where("school_id = ?", s.SchoolID).
			Update("school_is_active", false).Error)
	}
	return s
}

func TestScopeActiveSchools_SkipsInactiveAndDeleted(t *testing.T) {
	db := openSchoolDB(t)
	now := time.Now().UTC()

	active := seedSchool(t, db, "sekolah-aktif", true, nil)
	seedSchool(t, db, "sekolah-nonaktif", false, nil)
	seedSchool(t, db, "sekolah-terhapus", true, &now)

	var rows []SchoolModel
	require.NoError(t, ScopeActiveSchools(db).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, active.SchoolID, rows[0].SchoolID)

	// scope alive masih melihat yang nonaktif (untuk surface admin)
	var alive []SchoolModel
	require.NoError(t, ScopeAliveSchools(db).Find(&alive).Error)
	assert.Len(t, alive, 2)
}
