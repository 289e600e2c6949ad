package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ekervik/kontoklar/internal/cli"
	"github.com/ekervik/kontoklar/internal/config"
)

func overrideCmd() *cobra.Command {
	var (
		category    string
		subcategory string
	)

	cmd := &cobra.Command{
		Use:   "override <description>",
		Short: "Correct a classification by hand",
		Long: `Record the right category for a transaction description. Corrections
are appended to the training data and, after enough of them, trigger
an automatic retraining run.

Example:
  kontoklar override "ICA SUPERMARKET LINDHAGEN" --category Mat --subcategory Livsmedel`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			description := args[0]

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

			report, err := eng.RegisterOverride(ctx, description, category, subcategory)
			if err != nil {
				return fmt.Errorf("failed to record correction: %w", err)
			}

			label := category
			if subcategory != "" {
				label += "/" + subcategory
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded correction: %s → %s", description, label)))

			if report != nil {
				fmt.Println(cli.RenderRetrainReport(*report))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Correct category (required)")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "Correct subcategory")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}
