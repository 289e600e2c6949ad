package model

import "time"

// ObligationStatus tracks an obligation through its settlement lifecycle.
type ObligationStatus string

// Obligation status constants.
const (
	StatusScheduled ObligationStatus = "scheduled"
	StatusPosted    ObligationStatus = "posted"
	StatusPaid      ObligationStatus = "paid"
	StatusOverdue   ObligationStatus = "overdue"
)

// ObligationKind distinguishes bills from scheduled loan payments.
type ObligationKind string

// Obligation kind constants.
const (
	KindBill        ObligationKind = "bill"
	KindLoanPayment ObligationKind = "loan_payment"
)

// Obligation is a financial commitment awaiting settlement: a bill or a
// scheduled loan payment. Amount is positive; the settling transaction is
// an expense of roughly the same magnitude.
type Obligation struct {
	DueDate               time.Time
	ID                    string
	Name                  string
	AccountRef            string
	Category              string
	Status                ObligationStatus
	Kind                  ObligationKind
	MatchedTransactionRef string
	LoanID                string // Set for loan payment obligations
	Amount                float64
}

// Matchable reports whether the obligation is still eligible for
// reconciliation. Paid is terminal; an existing match is never replaced.
func (o *Obligation) Matchable() bool {
	if o.MatchedTransactionRef != "" {
		return false
	}
	switch o.Status {
	case StatusScheduled, StatusPosted, StatusOverdue:
		return true
	case StatusPaid:
		return false
	default:
		return false
	}
}

// RefreshStatus moves scheduled/posted obligations to overdue once their
// due date has passed. Paid obligations are left alone.
func (o *Obligation) RefreshStatus(today time.Time) {
	if o.Status == StatusPaid || o.Status == StatusOverdue {
		return
	}
	if o.DueDate.Before(today.Truncate(24 * time.Hour)) {
		o.Status = StatusOverdue
	}
}

// MatchCandidate is an ephemeral pairing of an obligation with the
// transaction that may settle it. Produced and discarded within a single
// reconciliation pass; only accepted candidates are applied.
type MatchCandidate struct {
	Obligation  *Obligation
	Transaction *Transaction
	Confidence  float64
	AmountDiff  float64
	PaymentType PaymentType // Loan matches only
}
