package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360/balanceguard/rule"
)

func (c *cli) rulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the rule catalog",
	}
	cmd.AddCommand(c.rulesListCommand(), c.rulesStatsCommand())
	return cmd
}

func (c *cli) rulesListCommand() *cobra.Command {
	var (
		category    string
		severity    string
		enabledOnly bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			filter, err := parseFilter(category, severity)
			if err != nil {
				return err
			}
			if enabledOnly {
				filter.Enabled = rule.Bool(true)
			}

			rules := a.registry.Rules(filter)
			if asJSON {
				type ruleView struct {
					Name        string        `json:"name"`
					Category    rule.Category `json:"category"`
					Severity    rule.Severity `json:"severity"`
					Enabled     bool          `json:"enabled"`
					AutoFix     bool          `json:"auto_fix"`
					Priority    int           `json:"priority"`
					Description string        `json:"description"`
				}
				views := make([]ruleView, 0, len(rules))
				for _, r := range rules {
					views = append(views, ruleView{r.Name, r.Category, r.Severity, r.Enabled, r.AutoFix, r.Priority, r.Description})
				}
				return writeJSON(cmd.OutOrStdout(), views)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tCATEGORY\tSEVERITY\tENABLED\tAUTOFIX\tDESCRIPTION")
			for _, r := range rules {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\n",
					r.Name, r.Category, r.Severity, r.Enabled, r.AutoFix, r.Description)
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&category, "category", "", "Only rules of this category")
	f.StringVar(&severity, "severity", "", "Only rules of this severity")
	f.BoolVar(&enabledOnly, "enabled", false, "Only enabled rules")
	f.BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func (c *cli) rulesStatsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			stats := a.registry.Statistics()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Total: %d\nEnabled: %d\nDisabled: %d\nAuto-fix: %d\n",
				stats.Total, stats.Enabled, stats.Disabled, stats.AutoFix)

			_, _ = fmt.Fprintln(w, "\nBy severity:")
			for _, s := range rule.Severities() {
				if n := stats.BySeverity[s]; n > 0 {
					_, _ = fmt.Fprintf(w, "  %-9s %d\n", s, n)
				}
			}

			_, _ = fmt.Fprintln(w, "\nBy category:")
			categories := make([]string, 0, len(stats.ByCategory))
			for category := range stats.ByCategory {
				categories = append(categories, string(category))
			}
			sort.Strings(categories)
			for _, category := range categories {
				_, _ = fmt.Fprintf(w, "  %-15s %d\n", category, stats.ByCategory[rule.Category(category)])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
