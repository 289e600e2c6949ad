package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ekervik/kontoklar/internal/cli"
	"github.com/ekervik/kontoklar/internal/config"
	"github.com/ekervik/kontoklar/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Categorize unclassified transactions",
		Long: `Run every unclassified transaction through the classification
waterfall: the statistical model first, then semantic matching, then
stored rules, and finally the Other/Unknown bucket.

Examples:
  kontoklar classify              # Classify all unclassified transactions
  kontoklar classify --limit 50   # Classify at most 50 transactions
  kontoklar classify --dry-run    # Preview without saving`,
		RunE: runClassify,
	}

	cmd.Flags().IntP("limit", "n", 0, "Maximum number of transactions to classify (0 = all)")
	cmd.Flags().Bool("dry-run", false, "Preview without saving changes")

	_ = viper.BindPFlag("classification.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("classification.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit := viper.GetInt("classification.limit")
	dryRun := viper.GetBool("classification.dry_run")

	cfg, err := config.Load()
	if err != nil {
		return err
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

	eng, err := buildEngine(ctx, store, cfg)
	if err != nil {
		return err
	}

	transactions, err := store.GetTransactionsToClassify(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		fmt.Println(cli.FormatInfo("Nothing to classify. Import transactions first."))
		return nil
	}

	handler := cli.NewInterruptHandler(os.Stdout)
	ctx = handler.HandleInterrupts(ctx, !dryRun)
	defer handler.Stop()

	bar := cli.NewProgressBar(os.Stdout, len(transactions), "Classifying transactions...")
	summary := cli.ClassifySummary{
		BySource: make(map[model.ClassificationSource]int),
		DryRun:   dryRun,
	}
	start := time.Now()

	for i := range transactions {
		if ctx.Err() != nil {
			break
		}
		txn := &transactions[i]

		result := eng.ClassifyTransaction(ctx, txn)
		if !dryRun {
			if err := store.UpdateTransactionClassification(ctx, txn.ID, result); err != nil {
				if ctx.Err() != nil {
					break
				}
				return fmt.Errorf("failed to save classification for %s: %w", txn.ID, err)
			}
		}

		summary.Total++
		summary.BySource[result.Source]++
		if result.Flagged {
			summary.Flagged++
		}
		_ = bar.Add(1)
	}

	if handler.WasInterrupted() {
		return nil
	}
	handler.Stop()

	summary.Duration = time.Since(start)
	fmt.Println(summary.Render())
	return nil
}
