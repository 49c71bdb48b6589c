package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360/balanceguard/result"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport prints the detailed report, or a one-line verdict when detailed
// reports are disabled.
func writeReport(w io.Writer, proc *result.Processor, out *result.ProcessedResult) error {
	if report := proc.DetailedReport(out); report != result.DetailedReportDisabled {
		_, err := fmt.Fprint(w, report)
		return err
	}
	_, err := fmt.Fprintf(w, "%s (%d errors, %d warnings)\n", verdict(out.Valid), len(out.Errors), len(out.Warnings))
	return err
}

func writeIssues(w io.Writer, label string, issues []result.Issue) {
	for _, issue := range issues {
		_, _ = fmt.Fprintf(w, "    %s [%s] %s: %s\n", label, issue.Severity, issue.Rule, issue.Message)
	}
}

func verdict(valid bool) string {
	if valid {
		return "VALID"
	}
	return "INVALID"
}
