// Package model defines the core domain models used throughout the application.
package model

import (
	"time"
)

// Transaction represents a single financial transaction from any source.
// Negative amounts are expenses, positive amounts are income.
type Transaction struct {
	Date                 time.Time
	ID                   string
	Description          string // Raw transaction description
	Merchant             string // Cleaned merchant name, if the source provides one
	AccountRef           string
	Category             string
	Subcategory          string
	ClassificationSource ClassificationSource
	MatchedObligationRef string
	Amount               float64
	ConfidenceScore      float64
	Reconciled           bool
}

// IsExpense reports whether the transaction moves money out of the account.
func (t *Transaction) IsExpense() bool {
	return t.Amount < 0
}

// IsClassified reports whether the transaction has been through the pipeline.
func (t *Transaction) IsClassified() bool {
	return t.ClassificationSource != ""
}
