package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekervik/kontoklar/internal/common"
	"github.com/ekervik/kontoklar/internal/model"
)

func testLoan(name string, principal, balance float64) *model.Loan {
	return &model.Loan{
		Name:           name,
		LoanNumber:     "9032 123-456",
		PaymentAccount: "8888-999",
		Principal:      principal,
		CurrentBalance: balance,
		InterestRate:   4.2,
	}
}

func TestCreateLoan_AssignsDefaults(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	loan := testLoan("Bolån Villa", 2_000_000, 0)
	require.NoError(t, store.CreateLoan(ctx, loan))

	assert.NotEmpty(t, loan.ID)
	assert.Equal(t, model.StatusPosted, loan.Status)
	assert.Equal(t, 2_000_000.0, loan.CurrentBalance, "fresh loans start at full principal")
	assert.False(t, loan.CreatedAt.IsZero())

	loans, err := store.GetActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, loan.ID, loans[0].ID)
	assert.Equal(t, "Bolån Villa", loans[0].Name)
	assert.Equal(t, "9032 123-456", loans[0].LoanNumber)
	assert.Equal(t, "8888-999", loans[0].PaymentAccount)
	assert.Equal(t, 4.2, loans[0].InterestRate)
}

func TestCreateLoan_Validation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	err := store.CreateLoan(ctx, testLoan("", 2_000_000, 0))
	assert.ErrorIs(t, err, ErrInvalidLoan)

	err = store.CreateLoan(ctx, testLoan("Bolån", 0, 0))
	assert.ErrorIs(t, err, ErrInvalidLoan)

	bad := testLoan("Bolån", 2_000_000, 0)
	bad.CurrentBalance = -1
	err = store.CreateLoan(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidLoan)
}

func TestGetActiveLoans_OrdersByCreation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	newer := testLoan("Billån", 150_000, 0)
	newer.CreatedAt = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	older := testLoan("Bolån Villa", 2_000_000, 0)
	older.CreatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreateLoan(ctx, newer))
	require.NoError(t, store.CreateLoan(ctx, older))

	loans, err := store.GetActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "Bolån Villa", loans[0].Name)
	assert.Equal(t, "Billån", loans[1].Name)
}

func TestRecordLoanPayment_AmortizationPaysDownBalance(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	loan := testLoan("Bolån Villa", 2_000_000, 500_000)
	require.NoError(t, store.CreateLoan(ctx, loan))

	txn := testTxn("txn-amort", time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC), "ÖVERFÖRING LÅN 9032 123-456", -3500)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	payment := &model.LoanPayment{
		LoanID:         loan.ID,
		TransactionRef: "txn-amort",
		PaymentType:    model.PaymentAmortization,
		Amount:         3500,
		Date:           time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.RecordLoanPayment(ctx, payment))
	assert.NotEmpty(t, payment.ID)

	loans, err := store.GetActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.InDelta(t, 496_500, loans[0].CurrentBalance, 0.001)

	payments, err := store.GetLoanPayments(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentAmortization, payments[0].PaymentType)
	assert.Equal(t, 3500.0, payments[0].Amount)
	assert.Equal(t, "txn-amort", payments[0].TransactionRef)

	stored, err := store.GetTransactionByID(ctx, "txn-amort")
	require.NoError(t, err)
	assert.True(t, stored.Reconciled, "the settling transaction is marked reconciled")
}

func TestRecordLoanPayment_InterestLeavesBalance(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	loan := testLoan("Bolån Villa", 2_000_000, 500_000)
	require.NoError(t, store.CreateLoan(ctx, loan))

	payment := &model.LoanPayment{
		LoanID:      loan.ID,
		PaymentType: model.PaymentInterest,
		Amount:      1200,
	}
	require.NoError(t, store.RecordLoanPayment(ctx, payment))

	loans, err := store.GetActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, 500_000.0, loans[0].CurrentBalance)

	payments, err := store.GetLoanPayments(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentInterest, payments[0].PaymentType)
}

func TestRecordLoanPayment_FloorsAtZeroAndSettlesLoan(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	loan := testLoan("Billån", 150_000, 3000)
	require.NoError(t, store.CreateLoan(ctx, loan))

	payment := &model.LoanPayment{
		LoanID:      loan.ID,
		PaymentType: model.PaymentAmortization,
		Amount:      5000,
	}
	require.NoError(t, store.RecordLoanPayment(ctx, payment))

	loans, err := store.GetActiveLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, loans, "a fully amortized loan is settled and leaves the active set")
}

func TestRecordLoanPayment_MissingLoan(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	err := store.RecordLoanPayment(ctx, &model.LoanPayment{
		LoanID:      "no-such-loan",
		PaymentType: model.PaymentAmortization,
		Amount:      3500,
	})
	assert.ErrorIs(t, err, common.ErrNotFound)

	payments, err := store.GetLoanPayments(ctx, "no-such-loan")
	require.NoError(t, err)
	assert.Empty(t, payments, "the rejected payment is not recorded")
}

func TestRecordLoanPayment_Validation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	loan := testLoan("Bolån Villa", 2_000_000, 0)
	require.NoError(t, store.CreateLoan(ctx, loan))

	err := store.RecordLoanPayment(ctx, &model.LoanPayment{
		LoanID: loan.ID, PaymentType: "balloon", Amount: 3500,
	})
	assert.ErrorIs(t, err, ErrInvalidPayment)

	err = store.RecordLoanPayment(ctx, &model.LoanPayment{
		LoanID: loan.ID, PaymentType: model.PaymentAmortization,
	})
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestGetLoanPayments_OldestFirst(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	loan := testLoan("Bolån Villa", 2_000_000, 500_000)
	require.NoError(t, store.CreateLoan(ctx, loan))

	march := &model.LoanPayment{
		LoanID:      loan.ID,
		PaymentType: model.PaymentInterest,
		Amount:      1200,
		Date:        time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC),
	}
	february := &model.LoanPayment{
		LoanID:      loan.ID,
		PaymentType: model.PaymentInterest,
		Amount:      1250,
		Date:        time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.RecordLoanPayment(ctx, march))
	require.NoError(t, store.RecordLoanPayment(ctx, february))

	payments, err := store.GetLoanPayments(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, 1250.0, payments[0].Amount)
	assert.Equal(t, 1200.0, payments[1].Amount)
}
