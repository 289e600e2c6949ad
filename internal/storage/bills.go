package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ekervik/kontoklar/internal/common"
	"github.com/ekervik/kontoklar/internal/model"
)

// GetOpenBills returns every obligation not yet settled, earliest due
// date first.
func (s *SQLiteStorage) GetOpenBills(ctx context.Context) ([]model.Obligation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, due_date, amount, account_ref, category, status, kind, loan_id, matched_transaction_ref
		FROM bills
		WHERE status != 'paid'
		ORDER BY due_date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bills []model.Obligation
	for rows.Next() {
		var bill model.Obligation
		var accountRef, category, loanID, matchedRef sql.NullString
		if err := rows.Scan(
			&bill.ID,
			&bill.Name,
			&bill.DueDate,
			&bill.Amount,
			&accountRef,
			&category,
			&bill.Status,
			&bill.Kind,
			&loanID,
			&matchedRef,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bill.AccountRef = accountRef.String
		bill.Category = category.String
		bill.LoanID = loanID.String
		bill.MatchedTransactionRef = matchedRef.String
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}

	slog.Debug("retrieved open bills", "count", len(bills))
	return bills, nil
}

// CreateBill inserts an obligation, assigning an ID and default status
// when the caller left them empty.
func (s *SQLiteStorage) CreateBill(ctx context.Context, bill *model.Obligation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBill(bill); err != nil {
		return err
	}

	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	if bill.Status == "" {
		bill.Status = model.StatusScheduled
	}
	if bill.Kind == "" {
		bill.Kind = model.KindBill
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills (id, name, due_date, amount, account_ref, category, status, kind, loan_id, matched_transaction_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID,
		bill.Name,
		bill.DueDate,
		bill.Amount,
		bill.AccountRef,
		bill.Category,
		string(bill.Status),
		string(bill.Kind),
		bill.LoanID,
		bill.MatchedTransactionRef)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}

	slog.Info("created bill",
		"name", bill.Name,
		"due_date", bill.DueDate.Format("2006-01-02"),
		"amount", bill.Amount)
	return nil
}

// MarkObligationPaid settles an obligation against a transaction. An
// obligation settles at most once; resettling returns
// common.ErrAlreadyLinked.
func (s *SQLiteStorage) MarkObligationPaid(ctx context.Context, obligationID, transactionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(obligationID, "obligationID"); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE bills
		SET status = 'paid', matched_transaction_ref = ?
		WHERE id = ? AND (matched_transaction_ref IS NULL OR matched_transaction_ref = '')`,
		transactionID, obligationID)
	if err != nil {
		return fmt.Errorf("failed to mark obligation paid: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bills WHERE id = ?`, obligationID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check obligation existence: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("obligation %s: %w", obligationID, common.ErrNotFound)
		}
		return fmt.Errorf("obligation %s: %w", obligationID, common.ErrAlreadyLinked)
	}

	slog.Info("marked obligation paid",
		"obligation", obligationID,
		"transaction", transactionID)
	return nil
}
