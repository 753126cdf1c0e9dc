package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	schoolModel "schoolku_backend/internals/features/school/schools/model"
)

/* =========================================================
   Permission Resolver — pure decision function
   ========================================================= */

// Fatal configuration errors — BUKAN deny. Caller harus 500, bukan 403.
var (
	ErrUnknownResource = errors.New("authz: resource tidak dikenal")
	ErrUnknownAction   = errors.New("authz: action tidak dikenal")
	ErrNoTenant        = errors.New("authz: school id kosong — operasi tanpa tenant tidak diizinkan")
)

// Assignment: satu role assignment efektif milik caller pada tenant target.
// Diisi dari user_school_roles (atau dari claim token yang diverifikasi).
type Assignment struct {
	Role         string
	DepartmentID *uuid.UUID // scope opsional — membatasi, tidak memperluas
	YearGroupID  *uuid.UUID
	IsActive     bool
	ExpiresAt    *time.Time
}

// RecordContext: data kontekstual record target (untuk evaluasi kondisi).
type RecordContext struct {
	DepartmentID *uuid.UUID
	YearGroupID  *uuid.UUID
	OwnerUserID  *uuid.UUID
}

// AccessRequest: input lengkap keputusan akses.
type AccessRequest struct {
	UserID      uuid.UUID
	SchoolID    uuid.UUID
	Resource    string
	Action      string
	IsOwner     bool // role global owner → bypass
	Assignments []Assignment
	Record      RecordContext

	// status modul resource pada tenant (enabled|disabled|revoked);
	// kosong dianggap enabled.
	ModuleStatus string

	Now time.Time
}

// Reason codes (wire contract di audit log).
const (
	ReasonAllowed        = "allowed"
	ReasonOwnerBypass    = "owner_bypass"
	ReasonNoAssignment   = "no_role_assignment"
	ReasonNoRule         = "no_matching_rule"
	ReasonConditionFail  = "condition_not_met"
	ReasonScopeMismatch  = "scope_mismatch"
	ReasonModuleDisabled = "module_disabled"
	ReasonModuleRevoked  = "module_revoked"
)

type Decision struct {
	Allow  bool
	Reason string
}

var allow = func(reason string) Decision { return Decision{Allow: true, Reason: reason} }
var deny = func(reason string) Decision { return Decision{Allow: false, Reason: reason} }

// CanPerform memutuskan allow/deny. Murni — tanpa side effect; caller yang
// menulis audit log atas keputusan ini.
func (rs *Ruleset) CanPerform(req AccessRequest) (Decision, error) {
	resource := strings.ToLower(strings.TrimSpace(req.Resource))
	action := strings.ToLower(strings.TrimSpace(req.Action))

	// Tag rusak = fatal config error, bukan silent deny.
	if !constants.IsKnownResource(resource) {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownResource, req.Resource)
	}
	if !constants.IsKnownAction(action) {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if req.SchoolID == uuid.Nil {
		return Decision{}, ErrNoTenant
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Modul revoked: tolak semua, termasuk owner-read biasa tetap deny
	// (tenant sudah mencabut modul sepenuhnya).
	switch req.ModuleStatus {
	case schoolModel.ModuleRevoked:
		return deny(ReasonModuleRevoked), nil
	case schoolModel.ModuleDisabled:
		// write/delete/approve ditolak; read tetap boleh untuk role yang
		// seharusnya punya akses (visibilitas audit) — dicek di bawah.
		if action != constants.ActRead {
			return deny(ReasonModuleDisabled), nil
		}
	}

	// owner bypass rule lookup
	if req.IsOwner {
		return allow(ReasonOwnerBypass), nil
	}

	effective := make([]Assignment, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		if assignmentEffective(a, now) {
			effective = append(effective, a)
		}
	}
	if len(effective) == 0 {
		return deny(ReasonNoAssignment), nil
	}

	sawRule := false
	sawScopeMiss := false
	for _, a := range effective {
		role := strings.ToLower(strings.TrimSpace(a.Role))

		rules := rs.rulesFor(role, resource, action, req.SchoolID)

		// Modul disabled + read: role yang punya rule write juga boleh read
		// untuk keperluan audit, walau tidak punya rule read eksplisit.
		if len(rules) == 0 && req.ModuleStatus == schoolModel.ModuleDisabled && action == constants.ActRead {
			rules = rs.rulesFor(role, resource, constants.ActWrite, req.SchoolID)
		}

		for _, rule := range rules {
			sawRule = true

			// scope assignment membatasi: record harus cocok dengan scope
			if !scopeMatches(a, req.Record) {
				sawScopeMiss = true
				continue
			}
			if !conditionMatches(rule.condition, req.UserID, a, req.Record) {
				continue
			}
			return allow(ReasonAllowed), nil
		}
	}

	if sawScopeMiss {
		return deny(ReasonScopeMismatch), nil
	}
	if sawRule {
		return deny(ReasonConditionFail), nil
	}
	return deny(ReasonNoRule), nil
}

func assignmentEffective(a Assignment, now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return false
	}
	return true
}

// scopeMatches: assignment ber-scope department/year-group hanya berlaku
// untuk record pada scope yang sama. Record tanpa info scope → tidak cocok
// (restriktif, bukan permisif).
func scopeMatches(a Assignment, rec RecordContext) bool {
	if a.DepartmentID != nil {
		if rec.DepartmentID == nil || *rec.DepartmentID != *a.DepartmentID {
			return false
		}
	}
	if a.YearGroupID != nil {
		if rec.YearGroupID == nil || *rec.YearGroupID != *a.YearGroupID {
			return false
		}
	}
	return true
}

func conditionMatches(cond RuleCondition, userID uuid.UUID, a Assignment, rec RecordContext) bool {
	if cond.IsZero() {
		return true
	}
	if cond.OwnRecordsOnly {
		if rec.OwnerUserID == nil || *rec.OwnerUserID != userID {
			return false
		}
	}
	if cond.SameDepartment {
		if a.DepartmentID == nil || rec.DepartmentID == nil || *a.DepartmentID != *rec.DepartmentID {
			return false
		}
	}
	if cond.SameYearGroup {
		if a.YearGroupID == nil || rec.YearGroupID == nil || *a.YearGroupID != *rec.YearGroupID {
			return false
		}
	}
	return true
}

// DenyStatus memetakan deny → status HTTP. Resource sensitif dijawab 404
// supaya keberadaan record tidak bocor.
func DenyStatus(resource string) int {
	if constants.SensitiveResources[resource] {
		return 404
	}
	return 403
}
