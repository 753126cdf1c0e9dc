package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "schoolku_backend/internals/features/admissions/applications/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

/* =========================================================
   Test DB (sqlite in-memory)
   Skema ditulis manual: default gen_random_uuid()/now() di tag
   gorm milik Postgres — di sini ID & timestamp diisi eksplisit.
   ========================================================= */

var enrollmentDDL = []string{
	`CREATE TABLE enrollment_applications (
		enrollment_application_id               TEXT PRIMARY KEY,
		enrollment_application_school_id        TEXT NOT NULL,
		enrollment_application_number           TEXT NOT NULL,
		enrollment_application_student_name     TEXT NOT NULL,
		enrollment_application_guardian_user_id TEXT,
		enrollment_application_guardian_contact TEXT NOT NULL DEFAULT '',
		enrollment_application_year_group_id    TEXT,
		enrollment_application_pathway          TEXT NOT NULL DEFAULT 'standard_digital',
		enrollment_application_status           TEXT NOT NULL DEFAULT 'draft',
		enrollment_application_version          INTEGER NOT NULL DEFAULT 1,
		enrollment_application_documents        TEXT,
		enrollment_application_completion_pct   INTEGER NOT NULL DEFAULT 0,
		enrollment_application_resume_status    TEXT,
		enrollment_application_submitted_at     DATETIME,
		enrollment_application_decided_at       DATETIME,
		enrollment_application_decided_by       TEXT,
		enrollment_application_created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		enrollment_application_updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		enrollment_application_deleted_at       DATETIME
	)`,
	`CREATE UNIQUE INDEX uq_enrollment_school_number
		ON enrollment_applications (enrollment_application_school_id, enrollment_application_number)`,
}

func openEnrollmentDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	for _, stmt := range enrollmentDDL {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedApplication(t *testing.T, db *gorm.DB, schoolID uuid.UUID, number, status string, version int) *model.EnrollmentApplication {
	t.Helper()
	app := &model.EnrollmentApplication{
		EnrollmentApplicationID:              uuid.New(),
		EnrollmentApplicationSchoolID:        schoolID,
		EnrollmentApplicationNumber:          number,
		EnrollmentApplicationStudentName:     "Siswa Uji",
		EnrollmentApplicationGuardianContact: "081200000000",
		EnrollmentApplicationPathway:         model.PathwayStandardDigital,
		EnrollmentApplicationStatus:          status,
		EnrollmentApplicationVersion:         version,
		EnrollmentApplicationCreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

/* =========================================================
   Optimistic concurrency — dua penulis, satu pemenang
   ========================================================= */

func TestApplyTransitionTx_StaleVersionConflict(t *testing.T) {
	db := openEnrollmentDB(t)
	schoolID := uuid.New()
	app := seedApplication(t, db, schoolID, "APP-2026-0001", model.StatusSubmitted, 1)

	// penulis pertama commit duluan
	first := *app
	require.NoError(t, ApplyTransitionTx(db, &first,
		wf.Outcome{NewState: model.StatusUnderReview}, 1, uuid.New()))
	assert.Equal(t, model.StatusUnderReview, first.EnrollmentApplicationStatus)
	assert.Equal(t, 2, first.EnrollmentApplicationVersion)

	// penulis kedua masih pegang base version 1 → ditolak, bukan ditimpa
	stale := *app
	err := ApplyTransitionTx(db, &stale,
		wf.Outcome{NewState: model.StatusOnHold}, 1, uuid.New())
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeStaleVersion, terr.Code)

	// yang tersimpan milik penulis pertama — bukan last-write-wins
	var cur model.EnrollmentApplication
	require.NoError(t, db.First(&cur,
		"enrollment_application_id = ?", app.EnrollmentApplicationID).Error)
	assert.Equal(t, model.StatusUnderReview, cur.EnrollmentApplicationStatus)
	assert.Equal(t, 2, cur.EnrollmentApplicationVersion)
}

func TestApplyTransitionTx_HoldStoresResumeState(t *testing.T) {
	db := openEnrollmentDB(t)
	app := seedApplication(t, db, uuid.New(), "APP-2026-0002", model.StatusInterviewScheduled, 3)

	require.NoError(t, ApplyTransitionTx(db, app,
		wf.Outcome{NewState: model.StatusOnHold}, 3, uuid.New()))

	var cur model.EnrollmentApplication
	require.NoError(t, db.First(&cur,
		"enrollment_application_id = ?", app.EnrollmentApplicationID).Error)
	require.NotNil(t, cur.EnrollmentApplicationResumeStatus)
	assert.Equal(t, model.StatusInterviewScheduled, *cur.EnrollmentApplicationResumeStatus)

	// machine yang dibangun dari record ini resume ke state tersimpan
	m := PipelineMachine(standardFlags, allowAll, withOverride, *cur.EnrollmentApplicationResumeStatus)
	assert.True(t, m.CanTransition(model.StatusOnHold, model.StatusInterviewScheduled))
	assert.False(t, m.CanTransition(model.StatusOnHold, model.StatusUnderReview))
}

/* =========================================================
   Idempotensi nomor aplikasi (natural key + unique index)
   ========================================================= */

func TestCreateApplication_DuplicateNumberIsIdempotent(t *testing.T) {
	db := openEnrollmentDB(t)
	schoolID := uuid.New()
	first := seedApplication(t, db, schoolID, "APP-2026-0003", model.StatusDraft, 1)

	dup := &model.EnrollmentApplication{
		EnrollmentApplicationID:              uuid.New(),
		EnrollmentApplicationSchoolID:        schoolID,
		EnrollmentApplicationNumber:          "APP-2026-0003",
		EnrollmentApplicationStudentName:     "Siswa Lain",
		EnrollmentApplicationGuardianContact: "081200000001",
		EnrollmentApplicationPathway:         model.PathwayStandardDigital,
		EnrollmentApplicationStatus:          model.StatusDraft,
		EnrollmentApplicationVersion:         1,
		EnrollmentApplicationCreatedAt:       time.Now().UTC(),
	}
	err := db.Create(dup).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// jalur recovery controller: ambil record lama, jangan bikin baru
	var existing model.EnrollmentApplication
	require.NoError(t, model.ScopeAliveApplications(db).
		Scopes(model.ScopeApplicationsBySchool(schoolID)).
		First(&existing, "enrollment_application_number = ?", "APP-2026-0003").Error)
	assert.Equal(t, first.EnrollmentApplicationID, existing.EnrollmentApplicationID)

	var count int64
	require.NoError(t, db.Model(&model.EnrollmentApplication{}).
		Where("enrollment_application_number = ?", "APP-2026-0003").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// nomor sama di sekolah lain sah — index-nya komposit (school, number)
	other := seedApplication(t, db, uuid.New(), "APP-2026-0003", model.StatusDraft, 1)
	assert.NotEqual(t, first.EnrollmentApplicationID, other.EnrollmentApplicationID)
}
