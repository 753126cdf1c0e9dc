package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	model "schoolku_backend/internals/features/finance/payments/model"
)

func TestOutstanding_OnlySettledCounts(t *testing.T) {
	payments := []model.SchoolPayment{
		{SchoolPaymentStatus: model.PaymentStatusSettled, SchoolPaymentAmountIDR: 500_000},
		{SchoolPaymentStatus: model.PaymentStatusPending, SchoolPaymentAmountIDR: 300_000},
		{SchoolPaymentStatus: model.PaymentStatusFailed, SchoolPaymentAmountIDR: 200_000},
	}
	assert.Equal(t, int64(1_500_000), Outstanding(2_000_000, payments))
}

func TestOutstanding_NeverNegative(t *testing.T) {
	payments := []model.SchoolPayment{
		{SchoolPaymentStatus: model.PaymentStatusSettled, SchoolPaymentAmountIDR: 2_500_000},
	}
	assert.Equal(t, int64(0), Outstanding(2_000_000, payments))
}

func TestOutstanding_NoPayments(t *testing.T) {
	assert.Equal(t, int64(750_000), Outstanding(750_000, nil))
}

func TestRollupPlanStatus_AllSettledRequired(t *testing.T) {
	installments := []model.FeeInstallment{
		{FeeInstallmentStatus: model.InstallmentStatusSettled},
		{FeeInstallmentStatus: model.InstallmentStatusPending},
	}
	// satu pending → tetap active
	assert.Equal(t, model.PlanStatusActive, RollupPlanStatus(model.PlanStatusActive, installments))

	installments[1].FeeInstallmentStatus = model.InstallmentStatusSettled
	assert.Equal(t, model.PlanStatusSettled, RollupPlanStatus(model.PlanStatusActive, installments))
}

func TestRollupPlanStatus_CancelledStaysCancelled(t *testing.T) {
	installments := []model.FeeInstallment{
		{FeeInstallmentStatus: model.InstallmentStatusSettled},
	}
	assert.Equal(t, model.PlanStatusCancelled, RollupPlanStatus(model.PlanStatusCancelled, installments))
}

func TestRollupPlanStatus_NoInstallmentsNoChange(t *testing.T) {
	assert.Equal(t, model.PlanStatusActive, RollupPlanStatus(model.PlanStatusActive, nil))
}

func TestLedgerTotal(t *testing.T) {
	entries := []model.CollectionLedgerEntry{
		{CollectionLedgerEntryAmountIDR: 100_000},
		{CollectionLedgerEntryAmountIDR: 250_000},
	}
	assert.Equal(t, int64(350_000), LedgerTotal(entries))
	assert.Equal(t, int64(0), LedgerTotal(nil))
}

func TestOutstanding_Idempotent(t *testing.T) {
	payments := []model.SchoolPayment{
		{SchoolPaymentStatus: model.PaymentStatusSettled, SchoolPaymentAmountIDR: 400_000},
	}
	first := Outstanding(1_000_000, payments)
	second := Outstanding(1_000_000, payments)
	assert.Equal(t, first, second)
}
