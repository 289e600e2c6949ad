package model

import "time"

// PaymentType classifies a loan payment by what it pays down.
type PaymentType string

// Payment type constants. Only amortization reduces the outstanding balance.
const (
	PaymentAmortization PaymentType = "amortization"
	PaymentInterest     PaymentType = "interest"
)

// Loan represents an outstanding loan tracked for payment reconciliation.
type Loan struct {
	CreatedAt      time.Time
	ID             string
	Name           string
	LoanNumber     string
	PaymentAccount string
	Status         ObligationStatus
	Principal      float64
	CurrentBalance float64
	InterestRate   float64 // Annual rate in percent
}

// LoanPayment records one settled payment against a loan.
type LoanPayment struct {
	Date           time.Time
	ID             string
	LoanID         string
	TransactionRef string
	PaymentType    PaymentType
	Amount         float64
}
