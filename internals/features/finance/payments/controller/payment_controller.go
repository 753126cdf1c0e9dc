package controller

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	authzService "schoolku_backend/internals/features/authz/service"
	dto "schoolku_backend/internals/features/finance/payments/dto"
	model "schoolku_backend/internals/features/finance/payments/model"
	service "schoolku_backend/internals/features/finance/payments/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type PaymentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Authz     *authzService.AuthzService
	Finance   *service.FinanceService
}

func NewPaymentController(db *gorm.DB, authz *authzService.AuthzService) *PaymentController {
	return &PaymentController{
		DB:        db,
		Validator: validator.New(),
		Authz:     authz,
		Finance:   service.NewFinanceService(db),
	}
}

func (ctl *PaymentController) requireAccess(c *fiber.Ctx, action string) (helperAuth.SchoolContext, error) {
	sc, err := helperAuth.ResolveSchoolContext(c)
	if err != nil {
		return sc, err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return sc, err
	}
	dec, err := ctl.Authz.CanPerform(userID, sc.SchoolID, constants.ResFinancialData, action,
		authzService.RecordContext{}, helperAuth.IsOwner(c))
	if err != nil {
		return sc, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !dec.Allow {
		return sc, fiber.NewError(authzService.DenyStatus(constants.ResFinancialData), "Akses ditolak")
	}
	return sc, nil
}

/* =========================================================
   Fee plans
   ========================================================= */

func (ctl *PaymentController) CreatePlan(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}

	var req dto.CreateFeePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	plan := model.FeePlan{
		FeePlanSchoolID:          sc.SchoolID,
		FeePlanStudentName:       req.FeePlanStudentName,
		FeePlanLabel:             req.FeePlanLabel,
		FeePlanOriginalAmountIDR: req.FeePlanOriginalAmountIDR,
		FeePlanStatus:            model.PlanStatusActive,
	}
	txErr := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		for i, in := range req.Installments {
			due, _ := time.Parse("2006-01-02", in.DueDate)
			inst := model.FeeInstallment{
				FeeInstallmentPlanID:    plan.FeePlanID,
				FeeInstallmentSeq:       i + 1,
				FeeInstallmentAmountIDR: in.AmountIDR,
				FeeInstallmentDueDate:   due,
				FeeInstallmentStatus:    model.InstallmentStatusPending,
			}
			if err := tx.Create(&inst).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return helper.Error(c, fiber.StatusInternalServerError, txErr.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Fee plan dibuat", plan)
}

func (ctl *PaymentController) GetPlan(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActRead)
	if err != nil {
		return err
	}
	planID, err := uuid.Parse(strings.TrimSpace(c.Params("plan_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "plan_id tidak valid")
	}

	var plan model.FeePlan
	if err := model.ScopeAlivePlans(ctl.DB).
		Scopes(model.ScopePlansBySchool(sc.SchoolID)).
		First(&plan, "fee_plan_id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Plan tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	// outstanding = derived, hitung saat read
	report, err := ctl.Finance.ReconcilePlan(ctl.DB, plan.FeePlanID)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", fiber.Map{"plan": plan, "reconciliation": report})
}

/* =========================================================
   Payments (idempotent per order id)
   ========================================================= */

func (ctl *PaymentController) CreatePayment(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}

	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)

	orderID := strings.TrimSpace(req.SchoolPaymentOrderID)
	if orderID == "" {
		orderID = fmt.Sprintf("FEE-%d", time.Now().UnixNano())
	}

	method := req.SchoolPaymentMethod
	if method == "" {
		method = model.PaymentMethodMidtrans
	}

	payment := model.SchoolPayment{
		SchoolPaymentSchoolID:      sc.SchoolID,
		SchoolPaymentPlanID:        req.SchoolPaymentPlanID,
		SchoolPaymentInstallmentID: req.SchoolPaymentInstallmentID,
		SchoolPaymentOrderID:       orderID,
		SchoolPaymentAmountIDR:     req.SchoolPaymentAmountIDR,
		SchoolPaymentMethod:        method,
		SchoolPaymentStatus:        model.PaymentStatusPending,
		SchoolPaymentPayerID:       &userID,
	}
	if err := ctl.DB.Create(&payment).Error; err != nil {
		// order id adalah natural key: retry setelah timeout mengembalikan
		// record pertama, tidak membuat pembayaran kedua
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing model.SchoolPayment
			if ferr := model.ScopeAlivePayments(ctl.DB).
				First(&existing, "school_payment_order_id = ?", orderID).Error; ferr == nil {
				return helper.Success(c, "Payment sudah ada (idempotent)", existing)
			}
		}
		if helper.IsForeignKeyViolation(err) {
			return helper.Error(c, fiber.StatusBadRequest, "Plan atau installment tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	if method == model.PaymentMethodMidtrans {
		token, err := service.GenerateSnapToken(payment, req.PayerName, req.PayerEmail)
		if err != nil {
			return helper.Error(c, fiber.StatusInternalServerError, "Gagal membuat token pembayaran")
		}
		payment.SchoolPaymentSnapToken = token
		ctl.DB.Model(&model.SchoolPayment{}).
			Where("school_payment_id = ?", payment.SchoolPaymentID).
			Update("school_payment_snap_token", token)
	}

	ctl.Authz.WriteAudit(sc.SchoolID, userID, "school_payment.create",
		constants.ResFinancialData, &payment.SchoolPaymentID, nil, payment)

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Payment dibuat", fiber.Map{
		"payment":    payment,
		"snap_token": payment.SchoolPaymentSnapToken,
	})
}

// HandleMidtransNotification: webhook Midtrans — path ini di-skip auth
// middleware. Notifikasi duplikat aman (settle idempoten).
func (ctl *PaymentController) HandleMidtransNotification(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid webhook")
	}
	log.Println("[PAYMENT WEBHOOK] 📩 notifikasi diterima:", body["order_id"], body["transaction_status"])

	orderID, _ := body["order_id"].(string)
	transactionStatus, _ := body["transaction_status"].(string)
	if orderID == "" || transactionStatus == "" {
		return helper.Error(c, fiber.StatusBadRequest, "order_id / transaction_status kosong")
	}

	if err := ctl.Finance.SettlePayment(orderID, transactionStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Payment tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "Notifikasi diproses", fiber.Map{"order_id": orderID})
}

/* =========================================================
   Collection sessions
   ========================================================= */

func (ctl *PaymentController) OpenSession(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	var req dto.OpenSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	session := model.CollectionSession{
		CollectionSessionSchoolID: sc.SchoolID,
		CollectionSessionLabel:    req.CollectionSessionLabel,
		CollectionSessionStatus:   model.SessionStatusOpen,
		CollectionSessionOpenedBy: userID,
	}
	if err := ctl.DB.Create(&session).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Sesi dibuka", session)
}

func (ctl *PaymentController) AppendLedger(c *fiber.Ctx) error {
	_, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(strings.TrimSpace(c.Params("session_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "session_id tidak valid")
	}

	var req dto.LedgerEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	entry := model.CollectionLedgerEntry{
		CollectionLedgerEntryPaymentID:  req.PaymentID,
		CollectionLedgerEntryAmountIDR:  req.AmountIDR,
		CollectionLedgerEntryRecordedBy: userID,
		CollectionLedgerEntryAt:         time.Now().UTC(),
	}
	if err := ctl.Finance.AppendLedger(sessionID, &entry); err != nil {
		if errors.Is(err, service.ErrSessionClosed) {
			return helper.Error(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Entry dicatat", entry)
}

func (ctl *PaymentController) CloseSession(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(strings.TrimSpace(c.Params("session_id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "session_id tidak valid")
	}

	session, err := ctl.Finance.CloseSession(sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionClosed) {
			return helper.Error(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	ctl.Authz.WriteAudit(sc.SchoolID, userID, "collection_session.close",
		constants.ResFinancialData, &session.CollectionSessionID, nil, session)

	return helper.Success(c, "Sesi ditutup", session)
}

/* =========================================================
   Reconciliation on-demand
   ========================================================= */

func (ctl *PaymentController) Reconcile(c *fiber.Ctx) error {
	sc, err := ctl.requireAccess(c, constants.ActWrite)
	if err != nil {
		return err
	}
	reports, err := ctl.Finance.ReconcileSchool(sc.SchoolID)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	userID, _ := helperAuth.GetUserIDFromToken(c)
	ctl.Authz.WriteAudit(sc.SchoolID, userID, "finance.reconcile",
		constants.ResFinancialData, nil, nil, fiber.Map{"plans": len(reports)})

	return helper.Success(c, "Rekonsiliasi selesai", reports)
}
