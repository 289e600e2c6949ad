package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekervik/kontoklar/internal/cli"
	"github.com/ekervik/kontoklar/internal/common"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category tree",
		Long:  `List and extend the category/subcategory tree transactions are sorted into.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Long:  `Display the full category tree with subcategories.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			taxonomy, err := store.GetTaxonomy(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(taxonomy) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'kontoklar categories add' to create one."))
				return nil
			}

			for _, category := range taxonomy {
				fmt.Println(cli.TableHeaderStyle.Render(category.Name))
				if len(category.Subcategories) == 0 {
					fmt.Println(cli.SubtleStyle.Render("  (no subcategories)"))
					continue
				}
				for _, sub := range category.Subcategories {
					fmt.Printf("  • %s\n", sub)
				}
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var subcategories []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category or extend one",
		Long: `Create a new category, optionally with subcategories. Adding to a
category that already exists appends the new subcategories instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			created, err := store.CreateCategory(ctx, name, subcategories)
			if errors.Is(err, common.ErrDuplicateEntry) && len(subcategories) > 0 {
				// Category exists: just extend it.
				added := 0
				for _, sub := range subcategories {
					if subErr := store.AddSubcategory(ctx, name, sub); subErr != nil {
						if errors.Is(subErr, common.ErrDuplicateEntry) {
							continue
						}
						return fmt.Errorf("failed to add subcategory %q: %w", sub, subErr)
					}
					added++
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %d subcategories to %q", added, name)))
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (ID: %d)", created.Name, created.ID)))
			for _, sub := range created.Subcategories {
				fmt.Printf("  • %s\n", sub)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&subcategories, "subcategories", nil, "Subcategories (comma separated)")

	return cmd
}
