package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360/balanceguard/rule"
	"github.com/c360/balanceguard/validator"
)

func (c *cli) validateCommand() *cobra.Command {
	var (
		bubbleType       string
		property         string
		oldValue         string
		newValue         string
		related          []string
		canvas           string
		checkPerformance bool
		category         string
		severity         string
		asJSON           bool
		showMetrics      bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate one property change",
		Example: `  balanceguard validate --bubble-type boss --property health --old 40 --new 50 \
    --related normal.health=2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}

			relatedValues, err := parseRelated(related)
			if err != nil {
				return err
			}
			canvasSize, err := parseCanvas(canvas)
			if err != nil {
				return err
			}
			filter, err := parseFilter(category, severity)
			if err != nil {
				return err
			}

			out := a.validator.Validate(cmd.Context(), validator.Request{
				Filter:   filter,
				OldValue: parseValue(oldValue),
				NewValue: parseValue(newValue),
				Context: rule.Context{
					BubbleType:       bubbleType,
					PropertyType:     property,
					RelatedValues:    relatedValues,
					CanvasSize:       canvasSize,
					CheckPerformance: checkPerformance,
				},
			})

			w := cmd.OutOrStdout()
			if asJSON {
				err = writeJSON(w, out)
			} else {
				err = writeReport(w, a.processor, out)
			}
			if err != nil {
				return err
			}
			if showMetrics {
				_, _ = fmt.Fprintln(w)
				if err := a.metrics.WriteText(w); err != nil {
					return err
				}
			}

			if !out.Valid {
				return errRejected
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&bubbleType, "bubble-type", "b", "", "Bubble type, e.g. normal, boss, electric")
	f.StringVarP(&property, "property", "p", "", "Property name, e.g. health, size, score, maxAge")
	f.StringVar(&oldValue, "old", "", "Current value (omit for new properties)")
	f.StringVar(&newValue, "new", "", "Proposed value")
	f.StringSliceVarP(&related, "related", "r", nil, "Related values as type.prop=value (repeatable)")
	f.StringVar(&canvas, "canvas", "", "Canvas size as WIDTHxHEIGHT (default 800x600)")
	f.BoolVar(&checkPerformance, "check-performance", false, "Include performance rules")
	f.StringVar(&category, "category", "", "Only run rules of this category")
	f.StringVar(&severity, "severity", "", "Only run rules of this severity")
	f.BoolVar(&asJSON, "json", false, "Print the result as JSON")
	f.BoolVar(&showMetrics, "metrics", false, "Print Prometheus metrics after the report")
	_ = cmd.MarkFlagRequired("bubble-type")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}
