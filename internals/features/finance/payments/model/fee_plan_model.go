package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Status enum (wire contract — jangan ubah literal)
   ========================= */

const (
	PlanStatusActive    = "active"
	PlanStatusSettled   = "settled"
	PlanStatusCancelled = "cancelled"
)

const (
	InstallmentStatusPending = "pending"
	InstallmentStatusSettled = "settled"
)

/* =========================
   Model: fee_plans
   ========================= */

// FeePlan: tagihan biaya sekolah satu siswa. Outstanding TIDAK disimpan —
// selalu original dikurangi total payment settled, dihitung ulang.
type FeePlan struct {
	FeePlanID       uuid.UUID `gorm:"column:fee_plan_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"fee_plan_id"`
	FeePlanSchoolID uuid.UUID `gorm:"column:fee_plan_school_id;type:uuid;not null;index" json:"fee_plan_school_id"`

	FeePlanStudentName string `gorm:"column:fee_plan_student_name;size:120;not null" json:"fee_plan_student_name"`
	FeePlanLabel       string `gorm:"column:fee_plan_label;size:120;not null" json:"fee_plan_label"`

	FeePlanOriginalAmountIDR int64  `gorm:"column:fee_plan_original_amount_idr;not null" json:"fee_plan_original_amount_idr"`
	FeePlanStatus            string `gorm:"column:fee_plan_status;type:varchar(20);not null;default:'active'" json:"fee_plan_status"`

	FeePlanCreatedAt time.Time  `gorm:"column:fee_plan_created_at;type:timestamptz;not null;default:now()" json:"fee_plan_created_at"`
	FeePlanUpdatedAt time.Time  `gorm:"column:fee_plan_updated_at;type:timestamptz;not null;default:now()" json:"fee_plan_updated_at"`
	FeePlanDeletedAt *time.Time `gorm:"column:fee_plan_deleted_at;type:timestamptz" json:"fee_plan_deleted_at,omitempty"`
}

func (FeePlan) TableName() string { return "fee_plans" }

func (p *FeePlan) BeforeUpdate(tx *gorm.DB) error {
	p.FeePlanUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Model: fee_installments
   ========================= */

// FeeInstallment: cicilan satu plan. Plan baru boleh naik jadi settled
// kalau SEMUA installment sudah settled — rollup parsial dilarang.
type FeeInstallment struct {
	FeeInstallmentID     uuid.UUID `gorm:"column:fee_installment_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"fee_installment_id"`
	FeeInstallmentPlanID uuid.UUID `gorm:"column:fee_installment_plan_id;type:uuid;not null;index" json:"fee_installment_plan_id"`

	FeeInstallmentSeq       int       `gorm:"column:fee_installment_seq;not null" json:"fee_installment_seq"`
	FeeInstallmentAmountIDR int64     `gorm:"column:fee_installment_amount_idr;not null" json:"fee_installment_amount_idr"`
	FeeInstallmentDueDate   time.Time `gorm:"column:fee_installment_due_date;type:date;not null" json:"fee_installment_due_date"`

	FeeInstallmentStatus    string     `gorm:"column:fee_installment_status;type:varchar(20);not null;default:'pending'" json:"fee_installment_status"`
	FeeInstallmentSettledAt *time.Time `gorm:"column:fee_installment_settled_at;type:timestamptz" json:"fee_installment_settled_at,omitempty"`

	FeeInstallmentCreatedAt time.Time `gorm:"column:fee_installment_created_at;type:timestamptz;not null;default:now()" json:"fee_installment_created_at"`
}

func (FeeInstallment) TableName() string { return "fee_installments" }

/* =========================
   Scopes
   ========================= */

func ScopeAlivePlans(db *gorm.DB) *gorm.DB {
	return db.Where("fee_plan_deleted_at IS NULL")
}

func ScopePlansBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("fee_plan_school_id = ?", schoolID)
	}
}
