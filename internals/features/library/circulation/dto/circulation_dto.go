package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolku_backend/internals/features/library/circulation/model"
	service "schoolku_backend/internals/features/library/circulation/service"
)

/* =========================================================
   REQUEST
   ========================================================= */

type CreateBookRequest struct {
	LibraryBookTitle       string `json:"library_book_title" validate:"required,max=200"`
	LibraryBookAuthor      string `json:"library_book_author" validate:"omitempty,max=120"`
	LibraryBookISBN        string `json:"library_book_isbn" validate:"omitempty,max=20"`
	LibraryBookTotalCopies int    `json:"library_book_total_copies" validate:"required,min=1"`
}

func (r *CreateBookRequest) ToModel(schoolID uuid.UUID) *model.LibraryBook {
	return &model.LibraryBook{
		LibraryBookSchoolID:        schoolID,
		LibraryBookTitle:           r.LibraryBookTitle,
		LibraryBookAuthor:          r.LibraryBookAuthor,
		LibraryBookISBN:            r.LibraryBookISBN,
		LibraryBookTotalCopies:     r.LibraryBookTotalCopies,
		LibraryBookAvailableCopies: r.LibraryBookTotalCopies,
	}
}

type CreateLoanRequest struct {
	LibraryLoanBookID         uuid.UUID `json:"library_loan_book_id" validate:"required"`
	LibraryLoanBorrowerUserID uuid.UUID `json:"library_loan_borrower_user_id" validate:"required"`
}

type LoanTransitionRequest struct {
	NextStatus  string `json:"next_status" validate:"required"`
	BaseVersion int    `json:"base_version" validate:"required,min=1"`
	LoanDays    int    `json:"loan_days" validate:"omitempty,min=1,max=90"`
}

/* =========================================================
   RESPONSE
   ========================================================= */

type LoanResponse struct {
	LibraryLoanID             uuid.UUID  `json:"library_loan_id"`
	LibraryLoanBookID         uuid.UUID  `json:"library_loan_book_id"`
	LibraryLoanBorrowerUserID uuid.UUID  `json:"library_loan_borrower_user_id"`
	LibraryLoanStatus         string     `json:"library_loan_status"`
	LibraryLoanVersion        int        `json:"library_loan_version"`
	LibraryLoanDueDate        *time.Time `json:"library_loan_due_date,omitempty"`
	LibraryLoanReturnedAt     *time.Time `json:"library_loan_returned_at,omitempty"`

	// derivasi — selalu dihitung saat read, bukan dari kolom
	IsOverdue   bool `json:"is_overdue"`
	OverdueDays int  `json:"overdue_days"`

	AllowedTransitions []string `json:"allowed_transitions,omitempty"`
}

func LoanFromModel(l *model.LibraryLoan, now time.Time, allowed []string) LoanResponse {
	return LoanResponse{
		LibraryLoanID:             l.LibraryLoanID,
		LibraryLoanBookID:         l.LibraryLoanBookID,
		LibraryLoanBorrowerUserID: l.LibraryLoanBorrowerUserID,
		LibraryLoanStatus:         l.LibraryLoanStatus,
		LibraryLoanVersion:        l.LibraryLoanVersion,
		LibraryLoanDueDate:        l.LibraryLoanDueDate,
		LibraryLoanReturnedAt:     l.LibraryLoanReturnedAt,
		IsOverdue:                 service.IsOverdue(l, now),
		OverdueDays:               service.OverdueDays(l.LibraryLoanDueDate, now),
		AllowedTransitions:        allowed,
	}
}
