package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "schoolku_backend/internals/features/library/circulation/model"
	wf "schoolku_backend/internals/features/workflow/service"
)

func TestLoanMachine_Graph(t *testing.T) {
	m := LoanMachine()

	assert.True(t, m.CanTransition(model.LoanStatusReserved, model.LoanStatusIssued))
	assert.True(t, m.CanTransition(model.LoanStatusIssued, model.LoanStatusReturned))
	assert.True(t, m.CanTransition(model.LoanStatusIssued, model.LoanStatusLost))
	assert.True(t, m.CanTransition(model.LoanStatusReserved, model.LoanStatusCancelled))

	// reserved tidak boleh langsung returned
	_, err := m.Apply(wf.ApplyRequest{Current: model.LoanStatusReserved, Next: model.LoanStatusReturned})
	var terr *wf.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, wf.CodeInvalidTransition, terr.Code)

	// terminal mati total
	assert.Nil(t, m.AllowedTransitions(model.LoanStatusReturned))
	assert.Nil(t, m.AllowedTransitions(model.LoanStatusCancelled))
}

func TestLoanMachine_ReturnTriggersFineAssessment(t *testing.T) {
	m := LoanMachine()
	out, err := m.Apply(wf.ApplyRequest{Current: model.LoanStatusIssued, Next: model.LoanStatusReturned})
	require.NoError(t, err)
	assert.Contains(t, out.SideEffects, "assess_fine")
	assert.Contains(t, out.SideEffects, "reconcile_book")
}

func TestAvailableCopies_Scenario(t *testing.T) {
	// total 3, dua issued aktif → available 1
	loans := []model.LibraryLoan{
		{LibraryLoanStatus: model.LoanStatusIssued},
		{LibraryLoanStatus: model.LoanStatusIssued},
		{LibraryLoanStatus: model.LoanStatusReturned}, // tidak memegang copy
	}
	assert.Equal(t, 1, AvailableCopies(3, loans))
}

func TestAvailableCopies_ReservedCountsAsHeld(t *testing.T) {
	loans := []model.LibraryLoan{
		{LibraryLoanStatus: model.LoanStatusReserved},
		{LibraryLoanStatus: model.LoanStatusIssued},
	}
	assert.Equal(t, 0, AvailableCopies(2, loans))
}

func TestAvailableCopies_ClampNegative(t *testing.T) {
	loans := []model.LibraryLoan{
		{LibraryLoanStatus: model.LoanStatusIssued},
		{LibraryLoanStatus: model.LoanStatusIssued},
	}
	assert.Equal(t, 0, AvailableCopies(1, loans))
}

func TestOverdueDays_Derivation(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	due := now.AddDate(0, 0, -3)
	assert.Equal(t, 3, OverdueDays(&due, now))

	// lewat beberapa jam saja tetap 1 hari
	due = now.Add(-6 * time.Hour)
	assert.Equal(t, 1, OverdueDays(&due, now))

	// belum lewat → 0
	due = now.AddDate(0, 0, 2)
	assert.Equal(t, 0, OverdueDays(&due, now))

	// tanpa due date → 0
	assert.Equal(t, 0, OverdueDays(nil, now))
}

func TestIsOverdue_OnlyIssuedLoans(t *testing.T) {
	now := time.Now().UTC()
	past := now.AddDate(0, 0, -5)

	issued := model.LibraryLoan{LibraryLoanStatus: model.LoanStatusIssued, LibraryLoanDueDate: &past}
	assert.True(t, IsOverdue(&issued, now))

	returned := model.LibraryLoan{LibraryLoanStatus: model.LoanStatusReturned, LibraryLoanDueDate: &past}
	assert.False(t, IsOverdue(&returned, now))
}

func TestFineAmount_FlatPerDay(t *testing.T) {
	assert.Equal(t, int64(5000), FineAmount(5, 1000))
	assert.Equal(t, int64(0), FineAmount(0, 1000))
	assert.Equal(t, int64(0), FineAmount(-1, 1000))
}

func TestAvailableCopies_Idempotent(t *testing.T) {
	loans := []model.LibraryLoan{
		{LibraryLoanStatus: model.LoanStatusIssued},
	}
	first := AvailableCopies(3, loans)
	second := AvailableCopies(3, loans)
	assert.Equal(t, first, second)
}
