package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360/balanceguard/result"
	"github.com/c360/balanceguard/rule"
	"github.com/c360/balanceguard/validator"
)

// batchFile is the YAML document read by the batch command
type batchFile struct {
	Requests []batchRequest `yaml:"requests"`
}

type batchRequest struct {
	BubbleType       string                        `yaml:"bubble_type"`
	Property         string                        `yaml:"property"`
	Old              any                           `yaml:"old"`
	New              any                           `yaml:"new"`
	Related          map[string]map[string]float64 `yaml:"related"`
	Canvas           *rule.CanvasSize              `yaml:"canvas"`
	CheckPerformance bool                          `yaml:"check_performance"`
}

func (r batchRequest) request() validator.Request {
	return validator.Request{
		OldValue: r.Old,
		NewValue: r.New,
		Context: rule.Context{
			BubbleType:       r.BubbleType,
			PropertyType:     r.Property,
			RelatedValues:    r.Related,
			CanvasSize:       r.Canvas,
			CheckPerformance: r.CheckPerformance,
		},
	}
}

func readBatchFile(path string) ([]validator.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc batchFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reqs := make([]validator.Request, 0, len(doc.Requests))
	for i, r := range doc.Requests {
		if r.BubbleType == "" || r.Property == "" {
			return nil, fmt.Errorf("%s: request %d needs bubble_type and property", path, i+1)
		}
		reqs = append(reqs, r.request())
	}
	return reqs, nil
}

type batchOutput struct {
	Results []*result.ProcessedResult `json:"results"`
	Stats   validator.Stats           `json:"stats"`
}

func (c *cli) batchCommand() *cobra.Command {
	var (
		file    string
		workers int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Validate a YAML file of independent changes concurrently",
		Example: `  balanceguard batch --file changes.yaml --workers 4

  # changes.yaml
  requests:
    - {bubble_type: normal, property: health, old: 3, new: 4}
    - {bubble_type: iron, property: size, old: 28, new: 25, related: {normal: {size: 30}}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}

			reqs, err := readBatchFile(file)
			if err != nil {
				return err
			}

			results, err := a.validator.ValidateBatch(cmd.Context(), reqs, validator.BatchOptions{Workers: workers})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			stats := a.validator.Stats()
			if asJSON {
				if err := writeJSON(w, batchOutput{Results: results, Stats: stats}); err != nil {
					return err
				}
			} else {
				for i, out := range results {
					ctx := reqs[i].Context
					_, _ = fmt.Fprintf(w, "%3d. %s.%s: %s (%d errors, %d warnings)\n",
						i+1, ctx.BubbleType, ctx.PropertyType, verdict(out.Valid), len(out.Errors), len(out.Warnings))
					writeIssues(w, "error", out.Errors)
					writeIssues(w, "warning", out.Warnings)
				}
				_, _ = fmt.Fprintf(w, "\n%d validated, %d rejected, success rate %.1f%%\n",
					stats.TotalValidations, stats.FailedValidations, stats.SuccessRate)
			}

			if stats.FailedValidations > 0 {
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a requests list")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Concurrent validations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results and statistics as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
