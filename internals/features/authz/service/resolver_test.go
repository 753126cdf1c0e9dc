package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"schoolku_backend/internals/constants"
	model "schoolku_backend/internals/features/authz/model"
	schoolModel "schoolku_backend/internals/features/school/schools/model"
)

func mustRuleset(t *testing.T, rows []model.PermissionRule) *Ruleset {
	t.Helper()
	rs, err := BuildRuleset(rows)
	require.NoError(t, err)
	return rs
}

func rule(role, resource, action string) model.PermissionRule {
	return model.PermissionRule{
		PermissionRuleID:       uuid.New(),
		PermissionRuleRole:     role,
		PermissionRuleResource: resource,
		PermissionRuleAction:   action,
	}
}

func ruleWithCondition(role, resource, action, cond string) model.PermissionRule {
	r := rule(role, resource, action)
	r.PermissionRuleCondition = datatypes.JSON([]byte(cond))
	return r
}

func baseRequest(rs AccessRequest) AccessRequest {
	if rs.SchoolID == uuid.Nil {
		rs.SchoolID = uuid.New()
	}
	if rs.UserID == uuid.Nil {
		rs.UserID = uuid.New()
	}
	return rs
}

func TestCanPerform_DenyWithoutAssignment(t *testing.T) {
	rs := mustRuleset(t, []model.PermissionRule{
		rule(constants.RoleTeacher, constants.ResGrades, constants.ActWrite),
	})

	dec, err := rs.CanPerform(baseRequest(AccessRequest{
		Resource:    constants.ResGrades,
		Action:      constants.ActWrite,
		Assignments: nil, // bukan anggota tenant
	}))
	require.NoError(t, err)
	assert.False(t, dec.Allow)
	assert.Equal(t, ReasonNoAssignment, dec.Reason)
}

func TestCanPerform_DenyByDefault(t *testing.T) {
	// teacher TIDAK punya rule admissions → deny (scenario 1 dari desain)
	rs := mustRuleset(t, []model.PermissionRule{
		rule(constants.RoleTeacher, constants.ResGrades, constants.ActWrite),
	})

	dec, err := rs.CanPerform(baseRequest(AccessRequest{
		Resource:    constants.ResAdmissions,
		Action:      constants.ActWrite,
		Assignments: []Assignment{{Role: constants.RoleTeacher, IsActive: true}},
	}))
	require.NoError(t, err)
	assert.False(t, dec.Allow)
	assert.Equal(t, ReasonNoRule, dec.Reason)
}

func TestCanPerform_AllowWithRule(t *testing.T) {
	rs := mustRuleset(t, []model.PermissionRule{
		rule(constants.RoleRegistrar, constants.ResAdmissions, constants.ActWrite),
	})

	dec, err := rs.CanPerform(baseRequest(AccessRequest{
		Resource:    constants.ResAdmissions,
		Action:      constants.ActWrite,
		Assignments: []Assignment{{Role: constants.RoleRegistrar, IsActive: true}},
	}))
	require.NoError(t, err)
	assert.True(t, dec.Allow)
}

func TestCanPerform_OwnerBypass(t *testing.T) {
	rs := mustRuleset(t, nil)

	dec, err := rs.CanPerform(baseRequest(AccessRequest{
		Resource: constants.ResSystemSettings,
		Action:   constants.ActDelete,
		IsOwner:  true,
	}))
	require.NoError(t, err)
	assert.True(t, dec.Allow)
	assert.Equal(t, ReasonOwnerBypass, dec.Reason)
}

func TestCanPerform_InactiveOrExpiredAssignment(t *testing.T) {
	rs := mustRuleset(t, []model.PermissionRule{
		rule(constants.RoleTeacher, constants.ResGrades, constants.ActWrite),
	})
	past := time.Now().Add(-time.Hour)

	for name, a := range map[string]Assignment{
		"inactive": {Role: constants.RoleTeacher, IsActive: false},
		"expired":  {Role: constants.RoleTeacher, IsActive: true, ExpiresAt: &past},
	} {
		dec, err := rs.CanPerform(baseRequest(AccessRequest{
			Resource:    constants.ResGrades,
			Action:      constants.ActWrite,
			Assignments: []Assignment{a},
		}))
		require.NoError(t, err, name)
		assert.False(t, dec.Allow, name)
		assert.Equal(t, ReasonNoAssignment, dec.Reason, name)
	}
}

// Scope monotonicity: assignment ber-scope department tidak pernah
// mengizinkan lebih dari assignment tanpa scope.
func TestCanPerform_ScopedAssignmentRestricts(t *testing.T) {
	rs := mustRuleset(t, []model.PermissionRule{
		rule(constants.RoleTeacher, constants.ResGrades, constants.ActWrite),
	})

	deptA := uuid.New()
	deptB := uuid.New()
	scoped := []Assignment{{Role: constants.RoleTeacher, IsActive: true, DepartmentID: &deptA}}

	// record di department sama → allow
	dec, err := rs.CanPerform(baseRequest(AccessRequest{
		Resource:    constants.ResGrades,
		Action:      constants.ActWrite,
		Assignments: scoped,
		Record:      RecordContext{DepartmentID: &deptA},
	}))
	require.NoError(t, err)
	assert.True(t, dec.Allow)

	// record di department lain → deny
	dec, err = rs.CanPerform(baseRequest(AccessRequest{
		Resource:    constants.ResGrades,
		Action:      constants.ActWrite,
		Assignments: scoped,
		Record:      RecordContext{DepartmentID: &deptB},
	}))
	require.NoError(t, err)
	assert.False(t, dec.Allow)
	assert.Equal(t, ReasonScopeMismatch, dec.Reason)

	// record tanpa info department → tetap deny (restriktif)
	dec, err = rs.CanPerform(baseRequest(AccessRequest{
		Resource:    constants.ResGrades,
		Action:      constants.ActWrite,
		Assignments: scoped,
	}))
	require.NoError(t, err)
	assert.False(t, dec.Allow)
}

func TestCanPerform_OwnRecordsOnlyCondition(t *testing.T) {
	rs := mustRuleset(t, []model.PermissionRule{
		ruleWithCondition(constants.RoleParent, constants.ResStudents, constants.ActRead,
			`{"own_records_only": true}`),
	})

	me := uuid.New()
	other := uuid.New()

	dec, err := rs.CanPerform(baseRequest(AccessRequest{
		UserID:      me,
		Resource:    constants.ResStudents,
		Action:      constants.ActRead,
		Assignments: []Assignment{{Role: constants.RoleParent, IsActive: true}},
		Record:      RecordContext{OwnerUserID: &me},
	}))
	require.NoError(t, err)
	assert.True(t, dec.Allow)

	dec, err = rs.CanPerform(baseRequest(AccessRequest{
		UserID:      me,
		Resource:    constants.ResStudents,
		Action:      constants.ActRead,
		Assignments: []Assignment{{Role: constants.RoleParent, IsActive: true}},
		Record:      RecordContext{OwnerUserID: &other},
	}))
	require.NoError(t, err)
	assert.False(t, dec.Allow)
	assert.Equal(t, ReasonConditionFail, dec.Reason)
}

func TestCanPerform_ModuleFlags(t *testing.T) {
	rs := mustRuleset(t, []model.PermissionRule{
		rule(constants.RoleLibrarian, constants.ResLibrary, constants.ActWrite),
	})
	librarian := []Assignment{{Role: constants.RoleLibrarian, IsActive: true}}

	// disabled: write ditolak...
	dec, err := rs.CanPerform(baseRequest(AccessRequest{
		Resource:     constants.ResLibrary,
		Action:       constants.ActWrite,
		Assignments:  librarian,
		ModuleStatus: schoolModel.ModuleDisabled,
	}))
	require.NoError(t, err)
	assert.False(t, dec.Allow)
	assert.Equal(t, ReasonModuleDisabled, dec.Reason)

	// ...tapi read tetap boleh untuk role yang punya akses write (audit)
	dec, err = rs.CanPerform(baseRequest(AccessRequest{
		Resource:     constants.ResLibrary,
		Action:       constants.ActRead,
		Assignments:  librarian,
		ModuleStatus: schoolModel.ModuleDisabled,
	}))
	require.NoError(t, err)
	assert.True(t, dec.Allow)

	// revoked: semua ditolak
	dec, err = rs.CanPerform(baseRequest(AccessRequest{
		Resource:     constants.ResLibrary,
		Action:       constants.ActRead,
		Assignments:  librarian,
		ModuleStatus: schoolModel.ModuleRevoked,
	}))
	require.NoError(t, err)
	assert.False(t, dec.Allow)
	assert.Equal(t, ReasonModuleRevoked, dec.Reason)
}

func TestCanPerform_FatalErrors(t *testing.T) {
	rs := mustRuleset(t, nil)

	_, err := rs.CanPerform(baseRequest(AccessRequest{
		Resource: "nuclear_codes",
		Action:   constants.ActRead,
	}))
	assert.ErrorIs(t, err, ErrUnknownResource)

	_, err = rs.CanPerform(baseRequest(AccessRequest{
		Resource: constants.ResGrades,
		Action:   "launch",
	}))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = rs.CanPerform(AccessRequest{
		UserID:   uuid.New(),
		Resource: constants.ResGrades,
		Action:   constants.ActRead,
	})
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestBuildRuleset_RejectsUnknownEnums(t *testing.T) {
	_, err := BuildRuleset([]model.PermissionRule{rule("warlord", constants.ResGrades, constants.ActRead)})
	assert.Error(t, err)

	_, err = BuildRuleset([]model.PermissionRule{rule(constants.RoleAdmin, "secrets", constants.ActRead)})
	assert.Error(t, err)
}

func TestDenyStatus_SensitiveResourcesMaskedAsNotFound(t *testing.T) {
	assert.Equal(t, 404, DenyStatus(constants.ResSafeguarding))
	assert.Equal(t, 404, DenyStatus(constants.ResMedicalRecords))
	assert.Equal(t, 403, DenyStatus(constants.ResGrades))
}
