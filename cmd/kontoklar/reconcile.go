package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ekervik/kontoklar/internal/cli"
	"github.com/ekervik/kontoklar/internal/config"
	"github.com/ekervik/kontoklar/internal/model"
	"github.com/ekervik/kontoklar/internal/reconcile"
)

func reconcileCmd() *cobra.Command {
	var (
		billsOnly bool
		loansOnly bool
		days      int
		tolerance float64
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match transactions against bills and loans",
		Long: `Run a fuzzy matching pass pairing unreconciled expense transactions
with open bills and active loans. Matched bills are settled, loan
payments are recorded, and each transaction is used at most once.

Examples:
  kontoklar reconcile                # Full pass: bills then loans
  kontoklar reconcile --bills        # Bills only
  kontoklar reconcile --loans        # Loans only
  kontoklar reconcile --days 14      # Widen the due-date window
  kontoklar reconcile --dry-run      # Preview without saving`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				cfg.DateToleranceDays = days
			}
			if cmd.Flags().Changed("tolerance") {
				cfg.AmountTolerancePct = tolerance
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close database", "error", closeErr)
				}
			}()

			// Default is a full pass over both obligation kinds.
			doBills := billsOnly || !loansOnly
			doLoans := loansOnly || !billsOnly

			var bills []model.Obligation
			if doBills {
				if bills, err = store.GetOpenBills(ctx); err != nil {
					return fmt.Errorf("failed to load bills: %w", err)
				}
			}
			var loans []model.Loan
			if doLoans {
				if loans, err = store.GetActiveLoans(ctx); err != nil {
					return fmt.Errorf("failed to load loans: %w", err)
				}
			}
			transactions, err := store.GetUnreconciledExpenses(ctx)
			if err != nil {
				return fmt.Errorf("failed to load transactions: %w", err)
			}

			matcher := reconcile.NewMatcher(store, reconcile.Options{
				DateToleranceDays:   cfg.DateToleranceDays,
				AmountTolerancePct:  cfg.AmountTolerancePct,
				AcceptanceThreshold: cfg.AcceptanceThreshold,
			})

			var result reconcile.Result
			switch {
			case dryRun:
				result = matcher.Preview(bills, loans, transactions)
			case doBills && doLoans:
				if result, err = matcher.ReconcileAll(ctx, bills, loans, transactions); err != nil {
					return fmt.Errorf("reconciliation failed: %w", err)
				}
			case doBills:
				if result.BillMatches, err = matcher.Reconcile(ctx, bills, transactions); err != nil {
					return fmt.Errorf("reconciliation failed: %w", err)
				}
			default:
				if result.LoanPayments, err = matcher.ReconcileLoans(ctx, loans, transactions); err != nil {
					return fmt.Errorf("reconciliation failed: %w", err)
				}
			}

			summary := cli.ReconcileSummary{
				BillsMatched: len(result.BillMatches),
				BillsOpen:    len(bills) - len(result.BillMatches),
				DryRun:       dryRun,
			}
			for _, payment := range result.LoanPayments {
				if payment.PaymentType == model.PaymentAmortization {
					summary.Amortizations++
					summary.AmortizedTotal += payment.Amount
				} else {
					summary.Interests++
				}
			}

			fmt.Println(summary.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&billsOnly, "bills", false, "Reconcile bills only")
	cmd.Flags().BoolVar(&loansOnly, "loans", false, "Reconcile loans only")
	cmd.Flags().IntVar(&days, "days", 7, "Due-date window in days")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 5, "Amount tolerance in percent")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without saving changes")

	return cmd
}
