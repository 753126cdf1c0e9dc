package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	model "schoolku_backend/internals/features/authz/model"
)

/* =========================================================
   Ruleset: lookup table in-memory dari permission_rules
   ========================================================= */

// RuleCondition: payload kondisi opsional pada satu rule.
// Semua field bersifat restriktif — true berarti syarat tambahan.
type RuleCondition struct {
	SameDepartment bool `json:"same_department,omitempty"`
	SameYearGroup  bool `json:"same_year_group,omitempty"`
	OwnRecordsOnly bool `json:"own_records_only,omitempty"`
}

func (rc RuleCondition) IsZero() bool {
	return !rc.SameDepartment && !rc.SameYearGroup && !rc.OwnRecordsOnly
}

type compiledRule struct {
	schoolID  *uuid.UUID // nil = default global
	condition RuleCondition
}

// Ruleset immutable setelah build; decision function murni tanpa IO.
type Ruleset struct {
	rules map[string][]compiledRule // key: role|resource|action
}

func ruleKey(role, resource, action string) string {
	return role + "|" + resource + "|" + action
}

// BuildRuleset memvalidasi enum & meng-compile rules ke lookup table.
// Resource/action/role di luar enum = fatal configuration error, bukan deny.
func BuildRuleset(rows []model.PermissionRule) (*Ruleset, error) {
	rs := &Ruleset{rules: make(map[string][]compiledRule, len(rows))}
	for _, r := range rows {
		role := strings.ToLower(strings.TrimSpace(r.PermissionRuleRole))
		resource := strings.ToLower(strings.TrimSpace(r.PermissionRuleResource))
		action := strings.ToLower(strings.TrimSpace(r.PermissionRuleAction))

		if !constants.IsKnownRole(role) {
			return nil, fmt.Errorf("permission rule %s: role %q tidak dikenal", r.PermissionRuleID, role)
		}
		if !constants.IsKnownResource(resource) {
			return nil, fmt.Errorf("permission rule %s: resource %q tidak dikenal", r.PermissionRuleID, resource)
		}
		if !constants.IsKnownAction(action) {
			return nil, fmt.Errorf("permission rule %s: action %q tidak dikenal", r.PermissionRuleID, action)
		}

		var cond RuleCondition
		if len(r.PermissionRuleCondition) > 0 {
			if err := json.Unmarshal(r.PermissionRuleCondition, &cond); err != nil {
				return nil, fmt.Errorf("permission rule %s: condition payload tidak valid: %w", r.PermissionRuleID, err)
			}
		}

		key := ruleKey(role, resource, action)
		rs.rules[key] = append(rs.rules[key], compiledRule{
			schoolID:  r.PermissionRuleSchoolID,
			condition: cond,
		})
	}
	return rs, nil
}

// rulesFor mengembalikan rules untuk (role, resource, action) yang berlaku
// pada sekolah tsb (baris global + override per sekolah).
func (rs *Ruleset) rulesFor(role, resource, action string, schoolID uuid.UUID) []compiledRule {
	all := rs.rules[ruleKey(role, resource, action)]
	if len(all) == 0 {
		return nil
	}
	out := make([]compiledRule, 0, len(all))
	for _, r := range all {
		if r.schoolID == nil || *r.schoolID == schoolID {
			out = append(out, r)
		}
	}
	return out
}

// HasAnyRule: role punya rule apapun untuk (resource, action) di sekolah ini.
// Dipakai untuk visibilitas audit saat modul disabled.
func (rs *Ruleset) HasAnyRule(role, resource, action string, schoolID uuid.UUID) bool {
	return len(rs.rulesFor(role, resource, action, schoolID)) > 0
}
