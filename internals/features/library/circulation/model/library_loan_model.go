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
	LoanStatusReserved  = "reserved"
	LoanStatusIssued    = "issued"
	LoanStatusReturned  = "returned"
	LoanStatusCancelled = "cancelled"
	LoanStatusLost      = "lost"
)

// LoanActiveStatuses: status yang masih memegang satu copy.
var LoanActiveStatuses = []string{LoanStatusReserved, LoanStatusIssued}

/* =========================
   Model: library_loans
   ========================= */

// LibraryLoan: satu sirkulasi (reserve → issue → return). IsOverdue dan
// OverdueDays TIDAK disimpan: keduanya derivasi murni due_date vs waktu
// sekarang, dihitung tiap read.
type LibraryLoan struct {
	LibraryLoanID       uuid.UUID `gorm:"column:library_loan_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"library_loan_id"`
	LibraryLoanSchoolID uuid.UUID `gorm:"column:library_loan_school_id;type:uuid;not null;index" json:"library_loan_school_id"`
	LibraryLoanBookID   uuid.UUID `gorm:"column:library_loan_book_id;type:uuid;not null;index" json:"library_loan_book_id"`

	LibraryLoanBorrowerUserID uuid.UUID `gorm:"column:library_loan_borrower_user_id;type:uuid;not null;index" json:"library_loan_borrower_user_id"`

	LibraryLoanStatus  string `gorm:"column:library_loan_status;type:varchar(20);not null;default:'reserved'" json:"library_loan_status"`
	LibraryLoanVersion int    `gorm:"column:library_loan_version;not null;default:1" json:"library_loan_version"`

	LibraryLoanReservedAt time.Time  `gorm:"column:library_loan_reserved_at;type:timestamptz;not null;default:now()" json:"library_loan_reserved_at"`
	LibraryLoanIssuedAt   *time.Time `gorm:"column:library_loan_issued_at;type:timestamptz" json:"library_loan_issued_at,omitempty"`
	LibraryLoanDueDate    *time.Time `gorm:"column:library_loan_due_date;type:timestamptz" json:"library_loan_due_date,omitempty"`
	LibraryLoanReturnedAt *time.Time `gorm:"column:library_loan_returned_at;type:timestamptz" json:"library_loan_returned_at,omitempty"`

	LibraryLoanCreatedAt time.Time  `gorm:"column:library_loan_created_at;type:timestamptz;not null;default:now()" json:"library_loan_created_at"`
	LibraryLoanUpdatedAt time.Time  `gorm:"column:library_loan_updated_at;type:timestamptz;not null;default:now()" json:"library_loan_updated_at"`
	LibraryLoanDeletedAt *time.Time `gorm:"column:library_loan_deleted_at;type:timestamptz" json:"library_loan_deleted_at,omitempty"`
}

func (LibraryLoan) TableName() string { return "library_loans" }

func (l *LibraryLoan) BeforeCreate(tx *gorm.DB) error {
	l.LibraryLoanUpdatedAt = time.Now().UTC()
	return nil
}
func (l *LibraryLoan) BeforeUpdate(tx *gorm.DB) error {
	l.LibraryLoanUpdatedAt = time.Now().UTC()
	return nil
}

// IsActive: loan masih memegang satu copy buku.
func (l *LibraryLoan) IsActive() bool {
	return l.LibraryLoanStatus == LoanStatusReserved || l.LibraryLoanStatus == LoanStatusIssued
}

/* =========================
   Model: library_fines
   ========================= */

const (
	FineStatusOutstanding = "outstanding"
	FineStatusPaid        = "paid"
	FineStatusWaived      = "waived"
)

// LibraryFine: denda keterlambatan per loan. Satu loan maksimal satu fine
// outstanding (unique index), reconciliation boleh jalan berulang tanpa
// menduplikasi denda.
type LibraryFine struct {
	LibraryFineID       uuid.UUID `gorm:"column:library_fine_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"library_fine_id"`
	LibraryFineSchoolID uuid.UUID `gorm:"column:library_fine_school_id;type:uuid;not null;index" json:"library_fine_school_id"`
	LibraryFineLoanID   uuid.UUID `gorm:"column:library_fine_loan_id;type:uuid;not null;uniqueIndex:uq_fine_loan" json:"library_fine_loan_id"`

	LibraryFineAmountIDR  int64  `gorm:"column:library_fine_amount_idr;not null;default:0" json:"library_fine_amount_idr"`
	LibraryFineDays       int    `gorm:"column:library_fine_days;not null;default:0" json:"library_fine_days"`
	LibraryFineStatus     string `gorm:"column:library_fine_status;type:varchar(20);not null;default:'outstanding'" json:"library_fine_status"`
	LibraryFineWaivedBy   *uuid.UUID `gorm:"column:library_fine_waived_by;type:uuid" json:"library_fine_waived_by,omitempty"`

	LibraryFineCreatedAt time.Time  `gorm:"column:library_fine_created_at;type:timestamptz;not null;default:now()" json:"library_fine_created_at"`
	LibraryFineUpdatedAt time.Time  `gorm:"column:library_fine_updated_at;type:timestamptz;not null;default:now()" json:"library_fine_updated_at"`
	LibraryFineDeletedAt *time.Time `gorm:"column:library_fine_deleted_at;type:timestamptz" json:"library_fine_deleted_at,omitempty"`
}

func (LibraryFine) TableName() string { return "library_fines" }

func (f *LibraryFine) BeforeUpdate(tx *gorm.DB) error {
	f.LibraryFineUpdatedAt = time.Now().UTC()
	return nil
}

/* =========================
   Scopes
   ========================= */

func ScopeAliveLoans(db *gorm.DB) *gorm.DB {
	return db.Where("library_loan_deleted_at IS NULL")
}

func ScopeLoansBySchool(schoolID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("library_loan_school_id = ?", schoolID)
	}
}

func ScopeActiveLoans(db *gorm.DB) *gorm.DB {
	return db.Where("library_loan_status IN ?", LoanActiveStatuses).
		Where("library_loan_deleted_at IS NULL")
}
