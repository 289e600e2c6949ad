// Package reconcile matches open financial obligations against posted
// account transactions. Scoring is a fixed weighted sum over account,
// amount, description and category evidence, so identical inputs always
// produce identical pairings.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ekervik/kontoklar/internal/model"
)

// Scoring weights. A candidate needs evidence from at least two factors
// to clear the default acceptance threshold.
const (
	accountWeight      = 0.4
	amountExactWeight  = 0.5
	amountCloseWeight  = 0.3
	amountLooseWeight  = 0.2
	descContainsWeight = 0.3
	descStrongWeight   = 0.2
	descWeakWeight     = 0.1
	categoryWeight     = 0.1

	// exactAmountEpsilon absorbs floating-point noise on "same" amounts.
	exactAmountEpsilon = 0.01
	// looseAmountFraction is the outer band for a weak amount signal.
	looseAmountFraction = 0.10
)

// Options tunes one reconciliation pass.
type Options struct {
	DateToleranceDays   int     // Window around the due date, in days
	AmountTolerancePct  float64 // Inner amount band, percent of the obligation
	AcceptanceThreshold float64 // Minimum score an accepted match needs
}

// DefaultOptions returns the standard pass configuration.
func DefaultOptions() Options {
	return Options{
		DateToleranceDays:   7,
		AmountTolerancePct:  5,
		AcceptanceThreshold: 0.7,
	}
}

// Store is the slice of storage a reconciliation pass persists through.
type Store interface {
	MarkObligationPaid(ctx context.Context, obligationID, transactionID string) error
	LinkTransactionToObligation(ctx context.Context, transactionID, obligationID string) error
	RecordLoanPayment(ctx context.Context, payment *model.LoanPayment) error
}

// Matcher runs reconciliation passes.
type Matcher struct {
	store Store
	opts  Options
}

// NewMatcher returns a matcher persisting through store. Zero-value
// option fields fall back to the defaults.
func NewMatcher(store Store, opts Options) *Matcher {
	defaults := DefaultOptions()
	if opts.DateToleranceDays <= 0 {
		opts.DateToleranceDays = defaults.DateToleranceDays
	}
	if opts.AmountTolerancePct <= 0 {
		opts.AmountTolerancePct = defaults.AmountTolerancePct
	}
	if opts.AcceptanceThreshold <= 0 {
		opts.AcceptanceThreshold = defaults.AcceptanceThreshold
	}
	return &Matcher{store: store, opts: opts}
}

// Result aggregates one full reconciliation pass.
type Result struct {
	BillMatches  []model.MatchCandidate
	LoanPayments []model.LoanPayment
}

// Reconcile matches open obligations against transactions and persists
// every accepted pairing: the obligation is marked paid and the
// transaction linked. Accepted candidates are returned in obligation
// input order.
func (m *Matcher) Reconcile(ctx context.Context, obligations []model.Obligation, transactions []model.Transaction) ([]model.MatchCandidate, error) {
	accepted := m.findMatches(obligations, transactions, make(map[string]bool))
	if err := m.apply(ctx, accepted); err != nil {
		return accepted, err
	}
	return accepted, nil
}

// ReconcileAll runs the bill pass then the loan pass over the same
// transaction set. A transaction claimed by either pass is off the
// table for the rest of the run.
func (m *Matcher) ReconcileAll(ctx context.Context, obligations []model.Obligation, loans []model.Loan, transactions []model.Transaction) (Result, error) {
	claimed := make(map[string]bool)

	accepted := m.findMatches(obligations, transactions, claimed)
	if err := m.apply(ctx, accepted); err != nil {
		return Result{BillMatches: accepted}, err
	}

	payments, err := m.reconcileLoans(ctx, loans, transactions, claimed, true)
	return Result{BillMatches: accepted, LoanPayments: payments}, err
}

// Preview computes the pairings a full pass would make without touching
// storage or mutating its inputs.
func (m *Matcher) Preview(obligations []model.Obligation, loans []model.Loan, transactions []model.Transaction) Result {
	claimed := make(map[string]bool)
	accepted := m.findMatches(obligations, transactions, claimed)
	payments, _ := m.reconcileLoans(context.Background(), loans, transactions, claimed, false)
	return Result{BillMatches: accepted, LoanPayments: payments}
}

// findMatches selects at most one transaction per matchable obligation,
// in obligation input order. The strictly-greater comparison keeps the
// first transaction on a tied score, and claimed transactions are
// excluded for the rest of the pass.
func (m *Matcher) findMatches(obligations []model.Obligation, transactions []model.Transaction, claimed map[string]bool) []model.MatchCandidate {
	if len(obligations) == 0 {
		return nil
	}

	var accepted []model.MatchCandidate
	for i := range obligations {
		obligation := &obligations[i]
		if !obligation.Matchable() {
			continue
		}

		var best model.MatchCandidate
		for j := range transactions {
			txn := &transactions[j]
			if !txn.IsExpense() || txn.Reconciled || claimed[txn.ID] {
				continue
			}
			if !withinWindow(obligation.DueDate, txn.Date, m.opts.DateToleranceDays) {
				continue
			}

			score := m.score(obligation, txn)
			if score > best.Confidence {
				best = model.MatchCandidate{
					Obligation:  obligation,
					Transaction: txn,
					Confidence:  score,
					AmountDiff:  math.Abs(obligation.Amount - math.Abs(txn.Amount)),
				}
			}
		}

		if best.Transaction == nil || best.Confidence < m.opts.AcceptanceThreshold {
			continue
		}
		claimed[best.Transaction.ID] = true
		accepted = append(accepted, best)
	}
	return accepted
}

// apply persists accepted candidates and mirrors the outcome onto the
// in-memory objects.
func (m *Matcher) apply(ctx context.Context, accepted []model.MatchCandidate) error {
	for _, c := range accepted {
		if err := m.store.MarkObligationPaid(ctx, c.Obligation.ID, c.Transaction.ID); err != nil {
			return fmt.Errorf("failed to mark obligation %s paid: %w", c.Obligation.ID, err)
		}
		if err := m.store.LinkTransactionToObligation(ctx, c.Transaction.ID, c.Obligation.ID); err != nil {
			return fmt.Errorf("failed to link transaction %s: %w", c.Transaction.ID, err)
		}

		c.Obligation.Status = model.StatusPaid
		c.Obligation.MatchedTransactionRef = c.Transaction.ID
		c.Transaction.Reconciled = true
		c.Transaction.MatchedObligationRef = c.Obligation.ID

		slog.Info("reconciled obligation",
			"obligation", c.Obligation.Name,
			"transaction", c.Transaction.ID,
			"confidence", c.Confidence,
			"amount_diff", c.AmountDiff)
	}
	return nil
}

// score rates how plausibly txn settles obligation, clamped to 1.0.
func (m *Matcher) score(obligation *model.Obligation, txn *model.Transaction) float64 {
	score := 0.0

	if acct := normalizeAccount(obligation.AccountRef); acct != "" && acct == normalizeAccount(txn.AccountRef) {
		score += accountWeight
	}

	paid := math.Abs(txn.Amount)
	diff := math.Abs(obligation.Amount - paid)
	switch {
	case diff < exactAmountEpsilon:
		score += amountExactWeight
	case diff <= obligation.Amount*m.opts.AmountTolerancePct/100:
		score += amountCloseWeight
	case diff <= obligation.Amount*looseAmountFraction:
		score += amountLooseWeight
	}

	score += descriptionScore(obligation.Name, txn.Description)

	if obligation.Category != "" && obligation.Category == txn.Category {
		score += categoryWeight
	}

	return math.Min(score, 1.0)
}

// descriptionScore rates the textual evidence: containment either way
// beats token overlap, which beats nothing.
func descriptionScore(name, description string) float64 {
	name = strings.ToLower(strings.TrimSpace(name))
	description = strings.ToLower(strings.TrimSpace(description))
	if name == "" || description == "" {
		return 0
	}

	if strings.Contains(description, name) || strings.Contains(name, description) {
		return descContainsWeight
	}

	switch shared := sharedTokens(name, description); {
	case shared >= 2:
		return descStrongWeight
	case shared == 1:
		return descWeakWeight
	}
	return 0
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// sharedTokens counts distinct tokens of three or more runes that
// appear in both strings.
func sharedTokens(a, b string) int {
	inA := make(map[string]bool)
	for _, token := range tokenPattern.FindAllString(a, -1) {
		if len([]rune(token)) > 2 {
			inA[token] = true
		}
	}

	shared := 0
	seen := make(map[string]bool)
	for _, token := range tokenPattern.FindAllString(b, -1) {
		if inA[token] && !seen[token] {
			shared++
			seen[token] = true
		}
	}
	return shared
}

// normalizeAccount strips the separators banks format account numbers
// with, leaving a deterministic comparison key.
func normalizeAccount(account string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.':
			return -1
		}
		return r
	}, account)
}

// withinWindow reports whether date falls inside the tolerance window
// around due, endpoints included.
func withinWindow(due, date time.Time, days int) bool {
	delta := due.Sub(date)
	if delta < 0 {
		delta = -delta
	}
	return delta <= time.Duration(days)*24*time.Hour
}
