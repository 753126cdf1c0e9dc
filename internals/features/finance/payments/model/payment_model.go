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
	PaymentStatusPending = "pending"
	PaymentStatusSettled = "settled"
	PaymentStatusFailed  = "failed"
)

const (
	PaymentMethodMidtrans = "midtrans"
	PaymentMethodCash     = "cash"
)

/* =========================
   Model: school_payments
   ========================= */

// SchoolPayment: satu pembayaran terhadap fee plan. OrderID adalah natural
// key idempotensi — unique index menjamin retry tidak membuat record kedua.
type SchoolPayment struct {
	SchoolPaymentID       uuid.UUID `gorm:"column:school_payment_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"school_payment_id"`
	SchoolPaymentSchoolID uuid.UUID `gorm:"column:school_payment_school_id;type:uuid;not null;index" json:"school_payment_school_id"`
	SchoolPaymentPlanID   uuid.UUID `gorm:"column:school_payment_plan_id;type:uuid;not null;index" json:"school_payment_plan_id"`

	SchoolPaymentInstallmentID *uuid.UUID `gorm:"column:school_payment_installment_id;type:uuid" json:"school_payment_installment_id,omitempty"`

	SchoolPaymentOrderID   string `gorm:"column:school_payment_order_id;size:60;not null;uniqueIndex:uq_payment_order_id" json:"school_payment_order_id"`
	SchoolPaymentAmountIDR int64  `gorm:"column:school_payment_amount_idr;not null" json:"school_payment_amount_idr"`
	SchoolPaymentMethod    string `gorm:"column:school_payment_method;type:varchar(20);not null;default:'midtrans'" json:"school_payment_method"`
	SchoolPaymentStatus    string `gorm:"column:school_payment_status;type:varchar(20);not null;default:'pending'" json:"school_payment_status"`

	SchoolPaymentSnapToken string     `gorm:"column:school_payment_snap_token;size:255" json:"school_payment_snap_token,omitempty"`
	SchoolPaymentPaidAt    *time.Time `gorm:"column:school_payment_paid_at;type:timestamptz" json:"school_payment_paid_at,omitempty"`
	SchoolPaymentPayerID   *uuid.UUID `gorm:"column:school_payment_payer_id;type:uuid" json:"school_payment_payer_id,omitempty"`

	SchoolPaymentCreatedAt time.Time  `gorm:"column:school_payment_created_at;type:timestamptz;not null;default:now()" json:"school_payment_created_at"`
	SchoolPaymentUpdatedAt time.Time  `gorm:"column:school_payment_updated_at;type:timestamptz;not null;default:now()" json:"school_payment_updated_at"`
	SchoolPaymentDeletedAt *time.Time `gorm:"column:school_payment_deleted_at;type:timestamptz" json:"school_payment_deleted_at,omitempty"`
}

func (SchoolPayment) TableName() string { return "school_payments" }

func (p *SchoolPayment) BeforeUpdate(tx *gorm.DB) error {
	p.SchoolPaymentUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Model: collection_sessions
   ========================= */

const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

// CollectionSession: sesi penerimaan kas treasurer. Ledger di-append
// serial — baris session di-lock FOR UPDATE dalam transaksi.
type CollectionSession struct {
	CollectionSessionID       uuid.UUID `gorm:"column:collection_session_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"collection_session_id"`
	CollectionSessionSchoolID uuid.UUID `gorm:"column:collection_session_school_id;type:uuid;not null;index" json:"collection_session_school_id"`

	CollectionSessionLabel    string    `gorm:"column:collection_session_label;size:120;not null" json:"collection_session_label"`
	CollectionSessionStatus   string    `gorm:"column:collection_session_status;type:varchar(20);not null;default:'open'" json:"collection_session_status"`
	CollectionSessionOpenedBy uuid.UUID `gorm:"column:collection_session_opened_by;type:uuid;not null" json:"collection_session_opened_by"`

	// cache — total sebenarnya adalah Σ ledger entries
	CollectionSessionTotalIDR int64 `gorm:"column:collection_session_total_idr;not null;default:0" json:"collection_session_total_idr"`

	CollectionSessionCreatedAt time.Time  `gorm:"column:collection_session_created_at;type:timestamptz;not null;default:now()" json:"collection_session_created_at"`
	CollectionSessionClosedAt  *time.Time `gorm:"column:collection_session_closed_at;type:timestamptz" json:"collection_session_closed_at,omitempty"`
}

func (CollectionSession) TableName() string { return "collection_sessions" }

/* =========================
   Model: collection_ledger_entries (append-only)
   ========================= */

type CollectionLedgerEntry struct {
	CollectionLedgerEntryID        uuid.UUID `gorm:"column:collection_ledger_entry_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"collection_ledger_entry_id"`
	CollectionLedgerEntrySessionID uuid.UUID `gorm:"column:collection_ledger_entry_session_id;type:uuid;not null;index" json:"collection_ledger_entry_session_id"`

	CollectionLedgerEntryPaymentID  *uuid.UUID `gorm:"column:collection_ledger_entry_payment_id;type:uuid" json:"collection_ledger_entry_payment_id,omitempty"`
	CollectionLedgerEntryAmountIDR  int64      `gorm:"column:collection_ledger_entry_amount_idr;not null" json:"collection_ledger_entry_amount_idr"`
	CollectionLedgerEntryRecordedBy uuid.UUID  `gorm:"column:collection_ledger_entry_recorded_by;type:uuid;not null" json:"collection_ledger_entry_recorded_by"`
	CollectionLedgerEntryAt         time.Time  `gorm:"column:collection_ledger_entry_at;type:timestamptz;not null;default:now()" json:"collection_ledger_entry_at"`
}

func (CollectionLedgerEntry) TableName() string { return "collection_ledger_entries" }

/* =========================
   Scopes
   ========================= */

func ScopeAlivePayments(db *gorm.DB) *gorm.DB {
	return db.Where("school_payment_deleted_at IS NULL")
}

func ScopePaymentsByPlan(planID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("school_payment_plan_id = ?", planID)
	}
}
