package service

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "schoolku_backend/internals/features/finance/payments/model"
)

var ErrSessionClosed = errors.New("collection session sudah ditutup")

/* =========================================================
   Derivasi murni
   ========================================================= */

// Outstanding: original dikurangi total payment settled. Tidak pernah
// negatif — kelebihan bayar tercatat di payments, bukan di outstanding.
func Outstanding(originalIDR int64, payments []model.SchoolPayment) int64 {
	var settled int64
	for i := range payments {
		if payments[i].SchoolPaymentStatus == model.PaymentStatusSettled {
			settled += payments[i].SchoolPaymentAmountIDR
		}
	}
	out := originalIDR - settled
	if out < 0 {
		out = 0
	}
	return out
}

// RollupPlanStatus: plan settled HANYA bila semua installment settled.
// Satu saja masih pending → plan tetap active.
func RollupPlanStatus(current string, installments []model.FeeInstallment) string {
	if current == model.PlanStatusCancelled {
		return current
	}
	if len(installments) == 0 {
		return current
	}
	for i := range installments {
		if installments[i].FeeInstallmentStatus != model.InstallmentStatusSettled {
			return model.PlanStatusActive
		}
	}
	return model.PlanStatusSettled
}

// LedgerTotal: total Σ entries — cache di session hanyalah proyeksi.
func LedgerTotal(entries []model.CollectionLedgerEntry) int64 {
	var total int64
	for i := range entries {
		total += entries[i].CollectionLedgerEntryAmountIDR
	}
	return total
}

/* =========================================================
   FinanceService (DB)
   ========================================================= */

type FinanceService struct {
	DB *gorm.DB
}

func NewFinanceService(db *gorm.DB) *FinanceService {
	return &FinanceService{DB: db}
}

// PlanReport: hasil satu pass rekonsiliasi per plan.
type PlanReport struct {
	PlanID      uuid.UUID `json:"plan_id"`
	Original    int64     `json:"original_amount_idr"`
	Settled     int64     `json:"settled_amount_idr"`
	Outstanding int64     `json:"outstanding_idr"`
	PlanStatus  string    `json:"plan_status"`
	Corrected   bool      `json:"corrected"`
}

// ReconcilePlan menghitung ulang outstanding + rollup status plan dari
// payments dan installments. Idempoten: pass kedua tanpa perubahan data
// tidak mengubah apa pun.
func (s *FinanceService) ReconcilePlan(tx *gorm.DB, planID uuid.UUID) (*PlanReport, error) {
	var plan model.FeePlan
	if err := model.ScopeAlivePlans(tx).First(&plan, "fee_plan_id = ?", planID).Error; err != nil {
		return nil, err
	}

	var payments []model.SchoolPayment
	if err := model.ScopeAlivePayments(tx).
		Scopes(model.ScopePaymentsByPlan(planID)).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	var installments []model.FeeInstallment
	if err := tx.Where("fee_installment_plan_id = ?", planID).
		Order("fee_installment_seq ASC").
		Find(&installments).Error; err != nil {
		return nil, err
	}

	outstanding := Outstanding(plan.FeePlanOriginalAmountIDR, payments)
	newStatus := RollupPlanStatus(plan.FeePlanStatus, installments)

	report := &PlanReport{
		PlanID:      plan.FeePlanID,
		Original:    plan.FeePlanOriginalAmountIDR,
		Settled:     plan.FeePlanOriginalAmountIDR - outstanding,
		Outstanding: outstanding,
		PlanStatus:  newStatus,
	}

	if newStatus != plan.FeePlanStatus {
		report.Corrected = true
		log.Printf("[FINANCE RECONCILE] 💰 plan=%s status %s → %s", planID, plan.FeePlanStatus, newStatus)
		if err := tx.Model(&model.FeePlan{}).
			Where("fee_plan_id = ?", planID).
			Update("fee_plan_status", newStatus).Error; err != nil {
			return nil, err
		}
	}
	return report, nil
}

// ReconcileSchool: pass penuh plan aktif satu sekolah (scheduler + endpoint).
func (s *FinanceService) ReconcileSchool(schoolID uuid.UUID) ([]PlanReport, error) {
	var plans []model.FeePlan
	if err := model.ScopeAlivePlans(s.DB).
		Scopes(model.ScopePlansBySchool(schoolID)).
		Find(&plans).Error; err != nil {
		return nil, err
	}
	reports := make([]PlanReport, 0, len(plans))
	for i := range plans {
		r, err := s.ReconcilePlan(s.DB, plans[i].FeePlanID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

// SettlePayment memproses notifikasi settle/failed per order id lalu
// merekonsiliasi plan terkait. Notifikasi duplikat aman: status yang sudah
// sama tidak berubah.
func (s *FinanceService) SettlePayment(orderID, transactionStatus string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var payment model.SchoolPayment
		if err := model.ScopeAlivePayments(tx).
			First(&payment, "school_payment_order_id = ?", orderID).Error; err != nil {
			return err
		}

		newStatus := payment.SchoolPaymentStatus
		switch transactionStatus {
		case "settlement", "capture", "success":
			newStatus = model.PaymentStatusSettled
		case "deny", "cancel", "expire", "failure":
			newStatus = model.PaymentStatusFailed
		default:
			// pending dan status lain tidak mengubah apa pun
			return nil
		}
		if newStatus == payment.SchoolPaymentStatus {
			return nil
		}

		updates := map[string]any{
			"school_payment_status":     newStatus,
			"school_payment_updated_at": time.Now().UTC(),
		}
		if newStatus == model.PaymentStatusSettled {
			updates["school_payment_paid_at"] = time.Now().UTC()
		}
		if err := tx.Model(&model.SchoolPayment{}).
			Where("school_payment_id = ?", payment.SchoolPaymentID).
			Updates(updates).Error; err != nil {
			return err
		}

		if newStatus == model.PaymentStatusSettled && payment.SchoolPaymentInstallmentID != nil {
			if err := tx.Model(&model.FeeInstallment{}).
				Where("fee_installment_id = ? AND fee_installment_status = ?",
					*payment.SchoolPaymentInstallmentID, model.InstallmentStatusPending).
				Updates(map[string]any{
					"fee_installment_status":     model.InstallmentStatusSettled,
					"fee_installment_settled_at": time.Now().UTC(),
				}).Error; err != nil {
				return err
			}
		}

		_, err := s.ReconcilePlan(tx, payment.SchoolPaymentPlanID)
		return err
	})
}

/* =========================================================
   Collection session ledger — serialisasi FOR UPDATE
   ========================================================= */

// AppendLedger menulis satu entry ke session. Baris session di-lock
// SELECT ... FOR UPDATE supaya dua treasurer yang menulis bersamaan
// terserialisasi dan total cache tidak kehilangan update.
func (s *FinanceService) AppendLedger(sessionID uuid.UUID, entry *model.CollectionLedgerEntry) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var session model.CollectionSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, "collection_session_id = ?", sessionID).Error; err != nil {
			return err
		}
		if session.CollectionSessionStatus != model.SessionStatusOpen {
			return ErrSessionClosed
		}

		entry.CollectionLedgerEntrySessionID = sessionID
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.Model(&model.CollectionSession{}).
			Where("collection_session_id = ?", sessionID).
			Update("collection_session_total_idr",
				session.CollectionSessionTotalIDR+entry.CollectionLedgerEntryAmountIDR).Error
	})
}

// CloseSession menutup sesi setelah memverifikasi total cache vs ledger.
func (s *FinanceService) CloseSession(sessionID uuid.UUID) (*model.CollectionSession, error) {
	var session model.CollectionSession
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, "collection_session_id = ?", sessionID).Error; err != nil {
			return err
		}
		if session.CollectionSessionStatus != model.SessionStatusOpen {
			return ErrSessionClosed
		}

		var entries []model.CollectionLedgerEntry
		if err := tx.Where("collection_ledger_entry_session_id = ?", sessionID).
			Find(&entries).Error; err != nil {
			return err
		}
		total := LedgerTotal(entries)
		if total != session.CollectionSessionTotalIDR {
			log.Printf("[FINANCE RECONCILE] 💰 session=%s cache=%d ledger=%d — dikoreksi",
				sessionID, session.CollectionSessionTotalIDR, total)
		}

		now := time.Now().UTC()
		session.CollectionSessionStatus = model.SessionStatusClosed
		session.CollectionSessionTotalIDR = total
		session.CollectionSessionClosedAt = &now
		return tx.Model(&model.CollectionSession{}).
			Where("collection_session_id = ?", sessionID).
			Updates(map[string]any{
				"collection_session_status":    model.SessionStatusClosed,
				"collection_session_total_idr": total,
				"collection_session_closed_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}
