package dto

import (
	"github.com/google/uuid"
)

/* =========================================================
   REQUEST
   ========================================================= */

type InstallmentInput struct {
	AmountIDR int64  `json:"amount_idr" validate:"required,min=1"`
	DueDate   string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type CreateFeePlanRequest struct {
	FeePlanStudentName       string             `json:"fee_plan_student_name" validate:"required,max=120"`
	FeePlanLabel             string             `json:"fee_plan_label" validate:"required,max=120"`
	FeePlanOriginalAmountIDR int64              `json:"fee_plan_original_amount_idr" validate:"required,min=1"`
	Installments             []InstallmentInput `json:"installments" validate:"omitempty,dive"`
}

type CreatePaymentRequest struct {
	SchoolPaymentPlanID        uuid.UUID  `json:"school_payment_plan_id" validate:"required"`
	SchoolPaymentInstallmentID *uuid.UUID `json:"school_payment_installment_id"`
	SchoolPaymentOrderID       string     `json:"school_payment_order_id" validate:"omitempty,max=60"`
	SchoolPaymentAmountIDR     int64      `json:"school_payment_amount_idr" validate:"required,min=1"`
	SchoolPaymentMethod        string     `json:"school_payment_method" validate:"omitempty,oneof=midtrans cash"`

	PayerName  string `json:"payer_name" validate:"omitempty,max=120"`
	PayerEmail string `json:"payer_email" validate:"omitempty,email"`
}

type OpenSessionRequest struct {
	CollectionSessionLabel string `json:"collection_session_label" validate:"required,max=120"`
}

type LedgerEntryRequest struct {
	PaymentID *uuid.UUID `json:"payment_id"`
	AmountIDR int64      `json:"amount_idr" validate:"required,min=1"`
}
