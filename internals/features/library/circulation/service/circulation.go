package service

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/library/circulation/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

/* =========================================================
   Loan machine — instance workflow sirkulasi perpustakaan
   ========================================================= */

func LoanMachine() wf.Machine {
	return wf.Machine{
		Name: "library_circulation",
		Transitions: map[string][]string{
			model.LoanStatusReserved: {model.LoanStatusIssued},
			model.LoanStatusIssued:   {model.LoanStatusReturned, model.LoanStatusLost},
		},
		Terminal: map[string]bool{
			model.LoanStatusReturned:  true,
			model.LoanStatusCancelled: true,
			model.LoanStatusLost:      true,
		},
		CrossCutting: map[string]bool{
			model.LoanStatusCancelled: true,
		},
		SideEffects: map[string][]string{
			model.LoanStatusIssued + "->" + model.LoanStatusReturned:   {"assess_fine", "reconcile_book"},
			model.LoanStatusReserved + "->" + model.LoanStatusIssued:   {"reconcile_book"},
			model.LoanStatusReserved + "->" + model.LoanStatusCancelled: {"reconcile_book"},
			model.LoanStatusIssued + "->" + model.LoanStatusLost:       {"reconcile_book"},
		},
	}
}

/* =========================================================
   Derivasi murni: overdue & fine
   ========================================================= */

// OverdueDays: hari keterlambatan dari due date vs now. Tidak pernah
// dipercaya dari kolom tersimpan — selalu hitung ulang.
func OverdueDays(dueDate *time.Time, now time.Time) int {
	if dueDate == nil || !now.After(*dueDate) {
		return 0
	}
	days := int(now.Sub(*dueDate).Hours() / 24)
	if days < 1 {
		days = 1 // lewat due date walau belum 24 jam tetap terhitung 1 hari
	}
	return days
}

func IsOverdue(loan *model.LibraryLoan, now time.Time) bool {
	if loan.LibraryLoanStatus != model.LoanStatusIssued {
		return false
	}
	return OverdueDays(loan.LibraryLoanDueDate, now) > 0
}

// FineAmount: denda flat per hari keterlambatan.
func FineAmount(overdueDays int, perDayIDR int64) int64 {
	if overdueDays <= 0 {
		return 0
	}
	return int64(overdueDays) * perDayIDR
}

/* =========================================================
   Rekonsiliasi murni: available copies
   ========================================================= */

// AvailableCopies: total dikurangi loan yang masih aktif (reserved/issued).
// Negatif di-clamp ke 0 — oversubscription tetap tercatat sebagai mismatch.
func AvailableCopies(totalCopies int, loans []model.LibraryLoan) int {
	active := 0
	for i := range loans {
		if loans[i].IsActive() {
			active++
		}
	}
	avail := totalCopies - active
	if avail < 0 {
		avail = 0
	}
	return avail
}

// ReconcileReport: hasil satu pass rekonsiliasi per buku.
type ReconcileReport struct {
	BookID           uuid.UUID `json:"book_id"`
	TotalCopies      int       `json:"total_copies"`
	ActiveLoans      int       `json:"active_loans"`
	ComputedAvail    int       `json:"computed_available"`
	StoredAvail      int       `json:"stored_available"`
	Corrected        bool      `json:"corrected"`
	OverdueAssessed  int       `json:"overdue_assessed"`
}

/* =========================================================
   CirculationService (DB)
   ========================================================= */

type CirculationService struct {
	DB *gorm.DB

	// denda per hari, bisa dioverride dari school_settings
	FinePerDayIDR int64
}

func NewCirculationService(db *gorm.DB) *CirculationService {
	return &CirculationService{DB: db, FinePerDayIDR: 1000}
}

// ReconcileBook menghitung ulang available_copies satu buku dan mengoreksi
// cache bila melenceng. Deterministik dan idempoten: dua pass berturut-turut
// menghasilkan state identik.
func (s *CirculationService) ReconcileBook(tx *gorm.DB, bookID uuid.UUID) (*ReconcileReport, error) {
	var book model.LibraryBook
	if err := model.ScopeAliveBooks(tx).First(&book, "library_book_id = ?", bookID).Error; err != nil {
		return nil, err
	}

	var loans []model.LibraryLoan
	if err := model.ScopeActiveLoans(tx).
		Where("library_loan_book_id = ?", bookID).
		Find(&loans).Error; err != nil {
		return nil, err
	}

	report := &ReconcileReport{
		BookID:        book.LibraryBookID,
		TotalCopies:   book.LibraryBookTotalCopies,
		ActiveLoans:   len(loans),
		ComputedAvail: AvailableCopies(book.LibraryBookTotalCopies, loans),
		StoredAvail:   book.LibraryBookAvailableCopies,
	}

	if report.ComputedAvail != report.StoredAvail {
		report.Corrected = true
		log.Printf("[LIBRARY RECONCILE] 📚 book=%s stored=%d computed=%d — dikoreksi",
			bookID, report.StoredAvail, report.ComputedAvail)
		if err := tx.Model(&model.LibraryBook{}).
			Where("library_book_id = ?", bookID).
			Update("library_book_available_copies", report.ComputedAvail).Error; err != nil {
			return nil, err
		}
	}
	return report, nil
}

// ReconcileSchool: pass penuh satu sekolah (dipakai scheduler & endpoint admin).
func (s *CirculationService) ReconcileSchool(schoolID uuid.UUID) ([]ReconcileReport, error) {
	var books []model.LibraryBook
	if err := model.ScopeAliveBooks(s.DB).
		Scopes(model.ScopeBooksBySchool(schoolID)).
		Find(&books).Error; err != nil {
		return nil, err
	}

	reports := make([]ReconcileReport, 0, len(books))
	for i := range books {
		r, err := s.ReconcileBook(s.DB, books[i].LibraryBookID)
		if err != nil {
			return nil, err
		}
		assessed, err := s.AssessOverdueFines(s.DB, books[i].LibraryBookID)
		if err != nil {
			return nil, err
		}
		r.OverdueAssessed = assessed
		reports = append(reports, *r)
	}
	return reports, nil
}

// AssessOverdueFines membuat fine untuk loan issued yang lewat due date.
// Unique index per loan menjamin pass berulang tidak menduplikasi denda;
// jumlah hari di-update bila keterlambatan bertambah.
func (s *CirculationService) AssessOverdueFines(tx *gorm.DB, bookID uuid.UUID) (int, error) {
	now := time.Now().UTC()

	var loans []model.LibraryLoan
	if err := model.ScopeAliveLoans(tx).
		Where("library_loan_book_id = ? AND library_loan_status = ?", bookID, model.LoanStatusIssued).
		Find(&loans).Error; err != nil {
		return 0, err
	}

	assessed := 0
	for i := range loans {
		days := OverdueDays(loans[i].LibraryLoanDueDate, now)
		if days == 0 {
			continue
		}
		amount := FineAmount(days, s.FinePerDayIDR)

		var fine model.LibraryFine
		err := tx.Where("library_fine_loan_id = ?", loans[i].LibraryLoanID).First(&fine).Error
		switch {
		case err == nil:
			if fine.LibraryFineStatus == model.FineStatusOutstanding && fine.LibraryFineDays != days {
				if uerr := tx.Model(&model.LibraryFine{}).
					Where("library_fine_id = ?", fine.LibraryFineID).
					Updates(map[string]any{
						"library_fine_days":       days,
						"library_fine_amount_idr": amount,
						"library_fine_updated_at": now,
					}).Error; uerr != nil {
					return assessed, uerr
				}
			}
		case err == gorm.ErrRecordNotFound:
			fine = model.LibraryFine{
				LibraryFineSchoolID:  loans[i].LibraryLoanSchoolID,
				LibraryFineLoanID:    loans[i].LibraryLoanID,
				LibraryFineAmountIDR: amount,
				LibraryFineDays:      days,
				LibraryFineStatus:    model.FineStatusOutstanding,
			}
			if cerr := tx.Create(&fine).Error; cerr != nil {
				return assessed, cerr
			}
			assessed++
		default:
			return assessed, err
		}
	}
	return assessed, nil
}

/* =========================================================
   Transisi loan dengan optimistic concurrency
   ========================================================= */

// ApplyLoanTransitionTx: sama polanya dengan pipeline admissions — version
// check, RowsAffected 0 berarti penulis lain sudah commit duluan.
func ApplyLoanTransitionTx(tx *gorm.DB, loan *model.LibraryLoan, outcome wf.Outcome, baseVersion int, loanDays int) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"library_loan_status":     outcome.NewState,
		"library_loan_version":    baseVersion + 1,
		"library_loan_updated_at": now,
	}
	switch outcome.NewState {
	case model.LoanStatusIssued:
		due := now.AddDate(0, 0, loanDays)
		updates["library_loan_issued_at"] = now
		updates["library_loan_due_date"] = due
	case model.LoanStatusReturned:
		updates["library_loan_returned_at"] = now
	}

	res := tx.Model(&model.LibraryLoan{}).
		Where("library_loan_id = ? AND library_loan_version = ?", loan.LibraryLoanID, baseVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cur model.LibraryLoan
		curVersion := baseVersion
		if err := tx.Select("library_loan_version").
			First(&cur, "library_loan_id = ?", loan.LibraryLoanID).Error; err == nil {
			curVersion = cur.LibraryLoanVersion
		}
		return wf.StaleVersion(baseVersion, curVersion)
	}

	loan.LibraryLoanStatus = outcome.NewState
	loan.LibraryLoanVersion = baseVersion + 1
	return nil
}
