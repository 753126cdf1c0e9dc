package service

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/safeguarding/concerns/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

/* =========================================================
   Concern machine
   ========================================================= */

// ConcernMachine: eskalasi hanya oleh aktor dengan permission escalate
// pada safeguarding_logs. Kasus escalated bisa kembali ke investigating.
func ConcernMachine(canEscalate func(actorID uuid.UUID) bool) wf.Machine {
	guards := map[string][]wf.Guard{}
	escalateGuard := func(req wf.ApplyRequest) *wf.TransitionError {
		if canEscalate == nil || !canEscalate(req.ActorID) {
			return wf.Reject(wf.CodeUnauthorizedActor, "aktor tidak punya permission escalate pada safeguarding_logs")
		}
		return nil
	}
	for _, from := range []string{
		model.ConcernStatusReported,
		model.ConcernStatusTriaged,
		model.ConcernStatusInvestigating,
		model.ConcernStatusActionTaken,
		model.ConcernStatusMonitoring,
	} {
		guards[from+"->"+model.ConcernStatusEscalated] = []wf.Guard{escalateGuard}
	}

	return wf.Machine{
		Name: "safeguarding_concern",
		Transitions: map[string][]string{
			model.ConcernStatusReported:      {model.ConcernStatusTriaged},
			model.ConcernStatusTriaged:       {model.ConcernStatusInvestigating},
			model.ConcernStatusInvestigating: {model.ConcernStatusActionTaken},
			model.ConcernStatusActionTaken:   {model.ConcernStatusMonitoring},
			model.ConcernStatusMonitoring:    {model.ConcernStatusClosed},
			model.ConcernStatusEscalated:     {model.ConcernStatusInvestigating},
		},
		Terminal: map[string]bool{
			model.ConcernStatusClosed: true,
		},
		CrossCutting: map[string]bool{
			model.ConcernStatusEscalated: true,
		},
		Guards: guards,
	}
}

/* =========================================================
   Transisi dengan optimistic concurrency
   ========================================================= */

func ApplyConcernTransitionTx(tx *gorm.DB, concern *model.SafeguardingConcern, outcome wf.Outcome, baseVersion int) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"safeguarding_concern_status":     outcome.NewState,
		"safeguarding_concern_version":    baseVersion + 1,
		"safeguarding_concern_updated_at": now,
	}
	switch outcome.NewState {
	case model.ConcernStatusEscalated:
		updates["safeguarding_concern_escalated_at"] = now
	case model.ConcernStatusClosed:
		updates["safeguarding_concern_closed_at"] = now
	}

	res := tx.Model(&model.SafeguardingConcern{}).
		Where("safeguarding_concern_id = ? AND safeguarding_concern_version = ?",
			concern.SafeguardingConcernID, baseVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cur model.SafeguardingConcern
		curVersion := baseVersion
		if err := tx.Select("safeguarding_concern_version").
			First(&cur, "safeguarding_concern_id = ?", concern.SafeguardingConcernID).Error; err == nil {
			curVersion = cur.SafeguardingConcernVersion
		}
		return wf.StaleVersion(baseVersion, curVersion)
	}

	concern.SafeguardingConcernStatus = outcome.NewState
	concern.SafeguardingConcernVersion = baseVersion + 1
	return nil
}
