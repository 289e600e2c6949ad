package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ekervik/kontoklar/internal/model"
)

// interestKeywords mark a loan payment as interest rather than
// amortization. Swedish banks label interest rows with one of these.
var interestKeywords = []string{"ränteinbetalning", "räntekostnad", "ränta", "interest"}

// ReconcileLoans records loan payments for transactions that reference
// an active loan. Interest payments are recorded without touching the
// balance; amortizations pay the balance down, never below zero, and a
// loan reaching zero is marked paid.
func (m *Matcher) ReconcileLoans(ctx context.Context, loans []model.Loan, transactions []model.Transaction) ([]model.LoanPayment, error) {
	return m.reconcileLoans(ctx, loans, transactions, make(map[string]bool), true)
}

// reconcileLoans walks transactions in input order and assigns each one
// to the first active loan it references. With persist false nothing is
// written or mutated, only the claim set advances.
func (m *Matcher) reconcileLoans(ctx context.Context, loans []model.Loan, transactions []model.Transaction, claimed map[string]bool, persist bool) ([]model.LoanPayment, error) {
	if len(loans) == 0 {
		return nil, nil
	}

	var payments []model.LoanPayment
	for j := range transactions {
		txn := &transactions[j]
		if !txn.IsExpense() || txn.Reconciled || claimed[txn.ID] {
			continue
		}

		for i := range loans {
			loan := &loans[i]
			if loan.Status == model.StatusPaid || !referencesLoan(loan, txn) {
				continue
			}

			payment := model.LoanPayment{
				Date:           txn.Date,
				ID:             uuid.NewString(),
				LoanID:         loan.ID,
				TransactionRef: txn.ID,
				PaymentType:    classifyPayment(txn.Description),
				Amount:         math.Abs(txn.Amount),
			}

			if persist {
				if err := m.store.RecordLoanPayment(ctx, &payment); err != nil {
					return payments, fmt.Errorf("failed to record payment against loan %s: %w", loan.Name, err)
				}
				if payment.PaymentType == model.PaymentAmortization {
					loan.CurrentBalance = math.Max(0, loan.CurrentBalance-payment.Amount)
					if loan.CurrentBalance == 0 {
						loan.Status = model.StatusPaid
					}
				}
				txn.Reconciled = true

				slog.Info("recorded loan payment",
					"loan", loan.Name,
					"type", payment.PaymentType,
					"amount", payment.Amount,
					"balance", loan.CurrentBalance)
			}

			claimed[txn.ID] = true
			payments = append(payments, payment)
			break
		}
	}
	return payments, nil
}

// classifyPayment decides what a payment pays down from its
// description. Anything not explicitly interest is amortization.
func classifyPayment(description string) model.PaymentType {
	lower := strings.ToLower(description)
	for _, keyword := range interestKeywords {
		if strings.Contains(lower, keyword) {
			return model.PaymentInterest
		}
	}
	return model.PaymentAmortization
}

// referencesLoan reports whether the transaction plausibly belongs to
// the loan: drawn from its payment account, or carrying the loan number
// or loan name in the description.
func referencesLoan(loan *model.Loan, txn *model.Transaction) bool {
	if acct := normalizeAccount(loan.PaymentAccount); acct != "" && acct == normalizeAccount(txn.AccountRef) {
		return true
	}

	desc := strings.ToLower(txn.Description)
	if number := normalizeAccount(strings.ToLower(loan.LoanNumber)); number != "" && strings.Contains(normalizeAccount(desc), number) {
		return true
	}
	if name := strings.ToLower(strings.TrimSpace(loan.Name)); name != "" && strings.Contains(desc, name) {
		return true
	}
	return false
}
