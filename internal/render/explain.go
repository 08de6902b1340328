// Package render provides presentation-layer helpers for gcpaudit CLI output.
// It is a pure rendering package: no check logic and no Google API calls.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// FindFindingByRule returns a pointer to the first Finding in findings whose
// RuleID equals ruleID, or nil when no match is found. The caller owns the
// returned pointer; it points into the slice element directly.
func FindFindingByRule(findings []models.Finding, ruleID string) *models.Finding {
	for i := range findings {
		if findings[i].RuleID == ruleID {
			return &findings[i]
		}
	}
	return nil
}

// FindIndeterminateByRule returns a pointer to the indeterminate marker for
// ruleID, or nil when the check completed.
func FindIndeterminateByRule(markers []models.IndeterminateCheck, ruleID string) *models.IndeterminateCheck {
	for i := range markers {
		if markers[i].RuleID == ruleID {
			return &markers[i]
		}
	}
	return nil
}

// RenderFindingExplanation writes a structured breakdown of a single check's
// finding to w: one ✗ line per violation, in the order the check emitted them.
//
// Example output:
//
//	CHECK 2.4 (Severity: HIGH)
//	Title: 2.4 [Level 1] Ensure log metric filter and alerts exist for project ownership assignments/changes (Scored)
//
//	Violations (2):
//
//	  ✗ Log metric filter and alerts do not exist for Project Ownership assignments/changes for project [p1]
//	  ✗ Log metric filter and alerts do not exist for Project Ownership assignments/changes for project [p2]
//
//	Remediation: Create a logs-based metric matching ownership changes and an enabled alert policy on it.
func RenderFindingExplanation(w io.Writer, f models.Finding) {
	// Header.
	fmt.Fprintf(w, "CHECK %s (Severity: %s)\n", f.RuleID, f.Severity.Label())
	fmt.Fprintf(w, "Title: %s\n", f.Title)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Violations (%d):\n", len(f.Details))
	fmt.Fprintln(w)
	for _, line := range f.Details {
		fmt.Fprintf(w, "  ✗ %s\n", line)
	}

	if f.Remediation != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Remediation: %s\n", f.Remediation)
	}
}

// RenderIndeterminateExplanation writes the marker for a check whose result
// could not be computed. The output names the failed scope when known so the
// reader does not mistake the missing finding for compliance.
func RenderIndeterminateExplanation(w io.Writer, ind models.IndeterminateCheck) {
	fmt.Fprintf(w, "CHECK %s (INDETERMINATE)\n", ind.RuleID)
	fmt.Fprintf(w, "Title: %s\n", ind.Title)
	fmt.Fprintln(w)
	if ind.Scope != "" {
		fmt.Fprintf(w, "Scope: %s\n", ind.Scope)
	}
	fmt.Fprintf(w, "Cause: %s\n", ind.Cause)
}

// WriteExplainJSON writes the check explanation as indented JSON to w.
//
// When f is non-nil, the output is:
//
//	{"finding": { ...wire fields... }}
//
// When f is nil (check not present in the report), the output is:
//
//	{"error": "No finding for check 2.4"}
func WriteExplainJSON(w io.Writer, f *models.Finding, ruleID string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if f == nil {
		return enc.Encode(map[string]string{
			"error": fmt.Sprintf("No finding for check %s", ruleID),
		})
	}
	return enc.Encode(map[string]any{
		"finding": f,
	})
}
