package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ekervik/kontoklar/internal/cli"
	"github.com/ekervik/kontoklar/internal/model"
)

// rulesFile is the YAML seed document accepted by `rules import`.
type rulesFile struct {
	CategorizationRules []model.ClassificationRule `yaml:"categorization_rules"`
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long:  `List, add and import the pattern rules used as the final classification layer.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(importRulesCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		Long:  `Display every categorization rule, highest priority first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			ruleSet, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(ruleSet) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules found. Use 'kontoklar rules add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Pattern"),
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Priority"),
				cli.TableHeaderStyle.Render("Origin"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 20),
				strings.Repeat("-", 20),
				strings.Repeat("-", 8),
				strings.Repeat("-", 6))

			for _, rule := range ruleSet {
				label := rule.Category
				if rule.Subcategory != "" {
					label += "/" + rule.Subcategory
				}
				origin := "manual"
				if rule.AIGenerated {
					origin = "ai"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", rule.ID, rule.Pattern, label, rule.Priority, origin)
			}

			return nil
		},
	}
}

func addRuleCmd() *cobra.Command {
	var (
		category    string
		subcategory string
		priority    int
	)

	cmd := &cobra.Command{
		Use:   "add <pattern>",
		Short: "Add a rule",
		Long: `Create a categorization rule. The pattern is matched against
transaction descriptions case-insensitively; regular expressions are
supported, with plain substring search as the fallback.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pattern := args[0]

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			exists, err := store.RuleExistsForPattern(ctx, pattern)
			if err != nil {
				return fmt.Errorf("failed to check existing rules: %w", err)
			}
			if exists {
				return fmt.Errorf("a rule for pattern %q already exists", pattern)
			}

			rule := model.ClassificationRule{
				Pattern:     pattern,
				Category:    category,
				Subcategory: subcategory,
				Priority:    priority,
			}
			id, err := store.CreateRule(ctx, &rule)
			if err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %q (ID: %d)", pattern, id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category the rule assigns (required)")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "Subcategory the rule assigns")
	cmd.Flags().IntVar(&priority, "priority", 50, "Rule priority, higher wins")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func importRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import rules from a YAML seed file",
		Long: `Read a YAML document with a categorization_rules list and create
every rule in it. Patterns that already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			var doc rulesFile
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			if len(doc.CategorizationRules) == 0 {
				fmt.Println(cli.FormatWarning("No rules found under categorization_rules."))
				return nil
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			created, skipped := 0, 0
			for i := range doc.CategorizationRules {
				rule := doc.CategorizationRules[i]

				exists, err := store.RuleExistsForPattern(ctx, rule.Pattern)
				if err != nil {
					return fmt.Errorf("failed to check pattern %q: %w", rule.Pattern, err)
				}
				if exists {
					skipped++
					continue
				}

				if _, err := store.CreateRule(ctx, &rule); err != nil {
					return fmt.Errorf("failed to import rule %q: %w", rule.Pattern, err)
				}
				created++
			}

			msg := fmt.Sprintf("Imported %d rules", created)
			if skipped > 0 {
				msg += fmt.Sprintf(" (%d already existed)", skipped)
			}
			fmt.Println(cli.FormatSuccess(msg))
			return nil
		},
	}
}

