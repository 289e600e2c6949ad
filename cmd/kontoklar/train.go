package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ekervik/kontoklar/internal/cli"
	"github.com/ekervik/kontoklar/internal/config"
)

func trainCmd() *cobra.Command {
	var (
		showStats bool
		suggest   bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Retrain the statistical model",
		Long: `Retrain the statistical classifier from the accumulated training
data. Every run is recorded in the retraining audit log, successful
or not.

Examples:
  kontoklar train                  # Retrain from the current corpus
  kontoklar train --stats          # Show corpus statistics
  kontoklar train --suggest-rules  # Turn manual corrections into rules`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			classifier := loadClassifier(cfg)
			trainer := buildTrainer(cfg, classifier)

			if showStats {
				stats, err := trainer.Stats()
				if err != nil {
					return fmt.Errorf("failed to read training data: %w", err)
				}
				fmt.Println(cli.RenderTrainingStats(stats))
				return nil
			}

			if suggest {
				store, err := initStorage(ctx, cfg)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer func() {
					if closeErr := store.Close(); closeErr != nil {
						slog.Error("Failed to close database", "error", closeErr)
					}
				}()

				result, err := trainer.SuggestRules(ctx, store)
				if err != nil {
					return fmt.Errorf("failed to suggest rules: %w", err)
				}
				if result.Success {
					fmt.Println(cli.FormatSuccess(result.Message))
				} else {
					fmt.Println(cli.FormatWarning(result.Message))
				}
				return nil
			}

			report := trainer.Run(ctx)
			fmt.Println(cli.RenderRetrainReport(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "Show training data statistics")
	cmd.Flags().BoolVar(&suggest, "suggest-rules", false, "Generate categorization rules from manual corrections")

	return cmd
}
