package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ekervik/kontoklar/internal/common"
	"github.com/ekervik/kontoklar/internal/model"
	"github.com/ekervik/kontoklar/internal/service"
)

const transactionColumns = `id, date, description, merchant, account_ref, amount,
	category, subcategory, classification_source, confidence_score,
	matched_obligation_ref, reconciled`

// SaveTransactions inserts transactions, silently skipping IDs that are
// already stored. Imports are re-runnable because of it.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (
				id, date, description, merchant, account_ref, amount,
				category, subcategory, classification_source,
				confidence_score, matched_obligation_ref, reconciled
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, txn := range transactions {
			if _, err := stmt.ExecContext(ctx,
				txn.ID,
				txn.Date,
				txn.Description,
				txn.Merchant,
				txn.AccountRef,
				txn.Amount,
				txn.Category,
				txn.Subcategory,
				string(txn.ClassificationSource),
				txn.ConfidenceScore,
				txn.MatchedObligationRef,
				txn.Reconciled,
			); err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
			}
		}

		slog.Debug("saved transactions", "count", len(transactions))
		return nil
	})
}

// GetTransactionByID returns one transaction or common.ErrNotFound.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return &txn, nil
}

// GetTransactionsToClassify returns transactions the pipeline has not
// touched yet, oldest first. A limit of zero or less means no limit.
func (s *SQLiteStorage) GetTransactionsToClassify(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE classification_source IS NULL OR classification_source = ''
		ORDER BY date ASC, id ASC`

	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetTransactions returns transactions matching the filter, oldest
// first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []any{}

	if filter.StartDate != nil {
		query += ` AND date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND date <= ?`
		args = append(args, *filter.EndDate)
	}

	query += ` ORDER BY date ASC, id ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetUnreconciledExpenses returns expense transactions not yet linked
// to any obligation, oldest first.
func (s *SQLiteStorage) GetUnreconciledExpenses(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE reconciled = 0 AND amount < 0
		ORDER BY date ASC, id ASC`

	return s.queryTransactions(ctx, query)
}

// UpdateTransactionClassification writes a classification outcome onto
// a stored transaction.
func (s *SQLiteStorage) UpdateTransactionClassification(ctx context.Context, id string, result model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, subcategory = ?, classification_source = ?, confidence_score = ?
		WHERE id = ?`,
		result.Category, result.Subcategory, string(result.Source), result.ConfidenceScore, id)
	if err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// LinkTransactionToObligation marks a transaction reconciled against an
// obligation. A transaction links at most once; relinking returns
// common.ErrAlreadyLinked.
func (s *SQLiteStorage) LinkTransactionToObligation(ctx context.Context, transactionID, obligationID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}
	if err := validateString(obligationID, "obligationID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET matched_obligation_ref = ?, reconciled = 1
		WHERE id = ? AND reconciled = 0`,
		obligationID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to link transaction: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check link result: %w", err)
	}
	if rows == 0 {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE id = ?`, transactionID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check transaction existence: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
		}
		return fmt.Errorf("transaction %s: %w", transactionID, common.ErrAlreadyLinked)
	}
	return nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var txn model.Transaction
	var merchant, accountRef, category, subcategory, source, obligationRef sql.NullString

	err := row.Scan(
		&txn.ID,
		&txn.Date,
		&txn.Description,
		&merchant,
		&accountRef,
		&txn.Amount,
		&category,
		&subcategory,
		&source,
		&txn.ConfidenceScore,
		&obligationRef,
		&txn.Reconciled,
	)
	if err != nil {
		return model.Transaction{}, err
	}

	txn.Merchant = merchant.String
	txn.AccountRef = accountRef.String
	txn.Category = category.String
	txn.Subcategory = subcategory.String
	txn.ClassificationSource = model.ClassificationSource(source.String)
	txn.MatchedObligationRef = obligationRef.String
	return txn, nil
}
