package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ekervik/kontoklar/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidRule        = errors.New("invalid rule")
	ErrInvalidBill        = errors.New("invalid bill")
	ErrInvalidLoan        = errors.New("invalid loan")
	ErrInvalidPayment     = errors.New("invalid loan payment")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	return nil
}

// validateRule validates a categorization rule.
func validateRule(rule *model.ClassificationRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return fmt.Errorf("%w: missing pattern", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidRule)
	}
	return nil
}

// validateBill validates an obligation before insertion.
func validateBill(bill *model.Obligation) error {
	if bill == nil {
		return fmt.Errorf("%w: bill", ErrNilParameter)
	}
	if strings.TrimSpace(bill.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBill)
	}
	if bill.DueDate.IsZero() {
		return fmt.Errorf("%w: missing due date", ErrInvalidBill)
	}
	if bill.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBill)
	}
	return nil
}

// validateLoan validates a loan before insertion.
func validateLoan(loan *model.Loan) error {
	if loan == nil {
		return fmt.Errorf("%w: loan", ErrNilParameter)
	}
	if strings.TrimSpace(loan.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidLoan)
	}
	if loan.Principal <= 0 {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidLoan)
	}
	if loan.CurrentBalance < 0 {
		return fmt.Errorf("%w: balance cannot be negative", ErrInvalidLoan)
	}
	return nil
}

// validateLoanPayment validates a payment before insertion.
func validateLoanPayment(payment *model.LoanPayment) error {
	if payment == nil {
		return fmt.Errorf("%w: payment", ErrNilParameter)
	}
	if payment.LoanID == "" {
		return fmt.Errorf("%w: missing loan ID", ErrInvalidPayment)
	}
	if payment.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	switch payment.PaymentType {
	case model.PaymentAmortization, model.PaymentInterest:
	default:
		return fmt.Errorf("%w: unknown payment type %q", ErrInvalidPayment, payment.PaymentType)
	}
	return nil
}
