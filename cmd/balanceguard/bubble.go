package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) bubbleCommand() *cobra.Command {
	var (
		bubbleType string
		current    []string
		proposed   []string
		related    []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "bubble",
		Short: "Validate every changed property of one bubble type",
		Example: `  balanceguard bubble --bubble-type normal --current health=2,score=2 \
    --proposed health=3,score=3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}

			currentValues, err := parseAssignments(current)
			if err != nil {
				return err
			}
			proposedValues, err := parseAssignments(proposed)
			if err != nil {
				return err
			}
			relatedValues, err := parseRelated(related)
			if err != nil {
				return err
			}

			report := a.validator.ValidateBubbleConfig(cmd.Context(), bubbleType, currentValues, proposedValues, relatedValues)

			w := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(w, report); err != nil {
					return err
				}
			} else {
				_, _ = fmt.Fprintf(w, "%s %s: %d changed, %d errors, %d warnings (%s)\n",
					verdict(report.Valid), report.BubbleType, len(report.Properties),
					report.ErrorCount, report.WarningCount, report.ValidationID)
				for _, prop := range report.Properties {
					_, _ = fmt.Fprintf(w, "  %s: %v -> %v %s\n",
						prop.Property, prop.OldValue, prop.NewValue, verdict(prop.Result.Valid))
					writeIssues(w, "error", prop.Result.Errors)
					writeIssues(w, "warning", prop.Result.Warnings)
				}
			}

			if !report.Valid {
				return errRejected
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&bubbleType, "bubble-type", "b", "", "Bubble type")
	f.StringSliceVar(&current, "current", nil, "Current values as prop=value")
	f.StringSliceVar(&proposed, "proposed", nil, "Proposed values as prop=value")
	f.StringSliceVarP(&related, "related", "r", nil, "Other bubble types as type.prop=value")
	f.BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("bubble-type")
	_ = cmd.MarkFlagRequired("proposed")

	return cmd
}
