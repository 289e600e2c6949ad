package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ekervik/kontoklar/internal/common"
	"github.com/ekervik/kontoklar/internal/model"
)

// GetActiveLoans returns loans that still carry a balance, in creation
// order.
func (s *SQLiteStorage) GetActiveLoans(ctx context.Context) ([]model.Loan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, loan_number, payment_account, principal, current_balance, interest_rate, status, created_at
		FROM loans
		WHERE status != 'paid'
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loans []model.Loan
	for rows.Next() {
		var loan model.Loan
		var loanNumber, paymentAccount sql.NullString
		if err := rows.Scan(
			&loan.ID,
			&loan.Name,
			&loanNumber,
			&paymentAccount,
			&loan.Principal,
			&loan.CurrentBalance,
			&loan.InterestRate,
			&loan.Status,
			&loan.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loan.LoanNumber = loanNumber.String
		loan.PaymentAccount = paymentAccount.String
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}

	slog.Debug("retrieved active loans", "count", len(loans))
	return loans, nil
}

// CreateLoan inserts a loan. A zero current balance on a fresh loan
// defaults to the full principal.
func (s *SQLiteStorage) CreateLoan(ctx context.Context, loan *model.Loan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLoan(loan); err != nil {
		return err
	}

	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	if loan.Status == "" {
		loan.Status = model.StatusPosted
	}
	if loan.CurrentBalance == 0 {
		loan.CurrentBalance = loan.Principal
	}
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans (id, name, loan_number, payment_account, principal, current_balance, interest_rate, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID,
		loan.Name,
		loan.LoanNumber,
		loan.PaymentAccount,
		loan.Principal,
		loan.CurrentBalance,
		loan.InterestRate,
		string(loan.Status),
		loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}

	slog.Info("created loan",
		"name", loan.Name,
		"principal", loan.Principal,
		"balance", loan.CurrentBalance)
	return nil
}

// RecordLoanPayment stores a payment and, for amortizations, pays the
// loan balance down in the same database transaction. The balance never
// goes below zero; a loan reaching zero is marked paid. A referenced
// account transaction is marked reconciled.
func (s *SQLiteStorage) RecordLoanPayment(ctx context.Context, payment *model.LoanPayment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLoanPayment(payment); err != nil {
		return err
	}

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM loans WHERE id = ?`, payment.LoanID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check loan existence: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("loan %s: %w", payment.LoanID, common.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO loan_payments (id, loan_id, transaction_ref, payment_type, amount, date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			payment.ID,
			payment.LoanID,
			payment.TransactionRef,
			string(payment.PaymentType),
			payment.Amount,
			payment.Date); err != nil {
			return fmt.Errorf("failed to insert loan payment: %w", err)
		}

		if payment.PaymentType == model.PaymentAmortization {
			if _, err := tx.ExecContext(ctx, `
				UPDATE loans
				SET current_balance = MAX(current_balance - ?, 0),
				    status = CASE WHEN current_balance - ? <= 0 THEN 'paid' ELSE status END
				WHERE id = ?`,
				payment.Amount, payment.Amount, payment.LoanID); err != nil {
				return fmt.Errorf("failed to update loan balance: %w", err)
			}
		}

		if payment.TransactionRef != "" {
			if _, err := tx.ExecContext(ctx,
				`UPDATE transactions SET reconciled = 1 WHERE id = ?`,
				payment.TransactionRef); err != nil {
				return fmt.Errorf("failed to mark transaction reconciled: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("recorded loan payment",
		"loan", payment.LoanID,
		"type", payment.PaymentType,
		"amount", payment.Amount)
	return nil
}

// GetLoanPayments returns the payment history for a loan, oldest first.
func (s *SQLiteStorage) GetLoanPayments(ctx context.Context, loanID string) ([]model.LoanPayment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(loanID, "loanID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, loan_id, transaction_ref, payment_type, amount, date
		FROM loan_payments
		WHERE loan_id = ?
		ORDER BY date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query loan payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []model.LoanPayment
	for rows.Next() {
		var payment model.LoanPayment
		var transactionRef sql.NullString
		if err := rows.Scan(
			&payment.ID,
			&payment.LoanID,
			&transactionRef,
			&payment.PaymentType,
			&payment.Amount,
			&payment.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan loan payment: %w", err)
		}
		payment.TransactionRef = transactionRef.String
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loan payments: %w", err)
	}
	return payments, nil
}
