package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	authzService "schoolku_backend/internals/features/authz/service"
	dto "schoolku_backend/internals/features/library/circulation/dto"
	model "schoolku_backend/internals/features/library/circulation/model"
	service "schoolku_backend/internals/features/library/circulation/service"
	wfService "schoolku_backend/internals/features/workflow/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type CirculationController struct {
	DB          *gorm.DB
	Validator   *validator.Validate
	Authz       *authzService.AuthzService
	Circulation *service.CirculationService
}

func NewCirculationController(db *gorm.DB, authz *authzService.AuthzService) *CirculationController {
	return &CirculationController{
		DB:          db,
		Validator:   validator.New(),
		Authz:       authz,
		Circulation: service.NewCirculationService(db),
	}
}

func (ctl *CirculationController) requireAccess(c *fiber.Ctx, action string) (helperAuth.SchoolContext, error) {
	sc, err := helperAuth.ResolveSchoolContext(c)
	if err != nil {
		return sc, err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return sc, err
	}
	dec, err := ctl.Authz.CanPerform(userID, sc.SchoolID, constants.ResLibrary, action,
		authzService.RecordContext{}, helperAuth.IsOwner(c))
	if err != nil {
		return sc, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !dec.Allow {
		return sc, fiber.NewError(authzService.DenyStatus(constants.ResLibrary), "Akses ditolak")
	}
	return sc, nil
}

/* =========================================================
   Books
   ========================================================= */

func (ctl *CirculationController) CreateBook(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}

	var req dto.CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	book := req.ToModel(sc.SchoolID)
	if err := ctl.DB.Create(book).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Buku ditambahkan", book)
}

func (ctl *CirculationController) ListBooks(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}

	p := helper.ParsePage(c, "library_book_title", "asc")
	q := model.ScopeAliveBooks(ctl.DB).
		Scopes(model.ScopeBooksBySchool(sc.SchoolID)).
		Model(&model.LibraryBook{})

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		q = q.Where("library_book_title ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.LibraryBook
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"items": rows, "meta": helper.BuildPageMeta(p, total)})
}

/* =========================================================
   Loans
   ========================================================= */

func (ctl *CirculationController) CreateLoan(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}

	var req dto.CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)

	var loan *model.LibraryLoan
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		// cek availability dari loan aktif, bukan dari kolom cache
		var book model.LibraryBook
		if err := model.ScopeAliveBooks(tx).
			Scopes(model.ScopeBooksBySchool(sc.SchoolID)).
			First(&book, "library_book_id = ?", req.LibraryLoanBookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Buku tidak ditemukan")
			}
			return err
		}
		var active []model.LibraryLoan
		if err := model.ScopeActiveLoans(tx).
			Where("library_loan_book_id = ?", book.LibraryBookID).
			Find(&active).Error; err != nil {
			return err
		}
		if service.AvailableCopies(book.LibraryBookTotalCopies, active) == 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Tidak ada copy tersedia")
		}

		loan = &model.LibraryLoan{
			LibraryLoanSchoolID:       sc.SchoolID,
			LibraryLoanBookID:         book.LibraryBookID,
			LibraryLoanBorrowerUserID: req.LibraryLoanBorrowerUserID,
			LibraryLoanStatus:         model.LoanStatusReserved,
			LibraryLoanVersion:        1,
			LibraryLoanReservedAt:     time.Now().UTC(),
		}
		if err := tx.Create(loan).Error; err != nil {
			return err
		}
		_, err := ctl.Circulation.ReconcileBook(tx, book.LibraryBookID)
		return err
	})
	if txErr != nil {
		var ferr *fiber.Error
		if errors.As(txErr, &ferr) {
			return helper.Error(c, ferr.Code, ferr.Message)
		}
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "library_loan.create",
		constants.ResLibrary, &loan.LibraryLoanID, nil, loan)

	m := service.LoanMachine()
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Loan dibuat",
		dto.LoanFromModel(loan, time.Now().UTC(), m.AllowedTransitions(loan.LibraryLoanStatus)))
}

func (ctl *CirculationController) GetLoan(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}
	loan, err := ctl.fetchLoan(c, sc.SchoolID)
	if err != nil {
		return err
	}
	m := service.LoanMachine()
	return helper.Success(c, "OK",
		dto.LoanFromModel(loan, time.Now().UTC(), m.AllowedTransitions(loan.LibraryLoanStatus)))
}

func (ctl *CirculationController) TransitionLoan(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	loan, err := ctl.fetchLoan(c, sc.SchoolID)
	if err != nil {
		return err
	}

	var req dto.LoanTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	m := service.LoanMachine()

	outcome, err := m.Apply(wfService.ApplyRequest{
		Current:   loan.LibraryLoanStatus,
		Next:      req.NextStatus,
		ActorID:   userID,
		ActorRole: sc.Role,
	})
	if err != nil {
		var terr *wfService.TransitionError
		if errors.As(err, &terr) {
			return helper.ErrorWithDetails(c, fiber.StatusUnprocessableEntity, "Transisi ditolak",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	loanDays := req.LoanDays
	if loanDays == 0 {
		loanDays = 14
	}

	before := loan.LibraryLoanStatus
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := service.ApplyLoanTransitionTx(tx, loan, outcome, req.BaseVersion, loanDays); err != nil {
			return err
		}
		for _, eff := range outcome.SideEffects {
			switch eff {
			case "assess_fine":
				if _, err := ctl.Circulation.AssessOverdueFines(tx, loan.LibraryLoanBookID); err != nil {
					return err
				}
			case "reconcile_book":
				if _, err := ctl.Circulation.ReconcileBook(tx, loan.LibraryLoanBookID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if txErr != nil {
		var terr *wfService.TransitionError
		if errors.As(txErr, &terr) && terr.Code == wfService.CodeStaleVersion {
			return helper.ErrorWithDetails(c, fiber.StatusConflict, "Versi basi",
				fiber.Map{"reason_code": terr.Code, "detail": terr.Message})
		}
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "library_loan.transition",
		constants.ResLibrary, &loan.LibraryLoanID,
		fiber.Map{"status": before},
		fiber.Map{"status": loan.LibraryLoanStatus, "version": loan.LibraryLoanVersion})

	return helper.Success(c, "Transisi berhasil",
		dto.LoanFromModel(loan, time.Now().UTC(), m.AllowedTransitions(loan.LibraryLoanStatus)))
}

func (ctl *CirculationController) fetchLoan(c *fiber.Ctx, schoolID uuid.UUID) (*model.LibraryLoan, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("loan_id")))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "loan_id tidak valid")
	}
	var loan model.LibraryLoan
	if err := model.ScopeAliveLoans(ctl.DB).
		Scopes(model.ScopeLoansBySchool(schoolID)).
		First(&loan, "library_loan_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Loan tidak ditemukan")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &loan, nil
}

/* =========================================================
   Fines & reconciliation
   ========================================================= */

func (ctl *CirculationController) ListFines(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}

	p := helper.ParsePage(c, "library_fine_created_at", "desc")
	q := ctl.DB.Where("library_fine_school_id = ? AND library_fine_deleted_at IS NULL", sc.SchoolID).
		Model(&model.LibraryFine{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("library_fine_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.LibraryFine
	if err := q.Order(p.SortBy + " " + p.SortOrder).
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"items": rows, "meta": helper.BuildPageMeta(p, total)})
}

// Reconcile: pass on-demand untuk admin; scheduler memanggil service yang sama.
func (ctl *CirculationController) Reconcile(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}

	reports, err := ctl.Circulation.ReconcileSchool(sc.SchoolID)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	ctl.Authz.WriteAudit(sc.SchoolID, userID, "library.reconcile",
		constants.ResLibrary, nil, nil, fiber.Map{"books": len(reports)})

	return helper.Success(c, "Rekonsiliasi selesai", reports)
}
