// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ekervik/kontoklar/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsToClassify(ctx context.Context, limit int) ([]model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetUnreconciledExpenses(ctx context.Context) ([]model.Transaction, error)
	UpdateTransactionClassification(ctx context.Context, id string, result model.Classification) error
	LinkTransactionToObligation(ctx context.Context, transactionID, obligationID string) error

	// Category operations
	GetTaxonomy(ctx context.Context) (model.Taxonomy, error)
	CreateCategory(ctx context.Context, name string, subcategories []string) (*model.Category, error)
	AddSubcategory(ctx context.Context, category, subcategory string) error

	// Rule operations
	GetRules(ctx context.Context) ([]model.ClassificationRule, error)
	CreateRule(ctx context.Context, rule *model.ClassificationRule) (int, error)
	RuleExistsForPattern(ctx context.Context, pattern string) (bool, error)

	// Bill operations
	GetOpenBills(ctx context.Context) ([]model.Obligation, error)
	CreateBill(ctx context.Context, bill *model.Obligation) error
	MarkObligationPaid(ctx context.Context, obligationID, transactionID string) error

	// Loan operations
	GetActiveLoans(ctx context.Context) ([]model.Loan, error)
	CreateLoan(ctx context.Context, loan *model.Loan) error
	RecordLoanPayment(ctx context.Context, payment *model.LoanPayment) error
	GetLoanPayments(ctx context.Context, loanID string) ([]model.LoanPayment, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// EmbeddingProvider converts text into fixed-length vectors. Its absence
// degrades the semantic matcher to permanently unavailable, never an error.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
