package engine

import (
	"strings"
	"testing"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// ── computeSummary ───────────────────────────────────────────────────────────

func TestComputeSummary_Empty(t *testing.T) {
	s := computeSummary(nil, nil)
	if s.TotalFindings != 0 {
		t.Errorf("TotalFindings = %d; want 0", s.TotalFindings)
	}
	if s.TotalViolations != 0 {
		t.Errorf("TotalViolations = %d; want 0", s.TotalViolations)
	}
	if s.IndeterminateChecks != 0 {
		t.Errorf("IndeterminateChecks = %d; want 0", s.IndeterminateChecks)
	}
	if s.CriticalFindings != 0 || s.HighFindings != 0 || s.MediumFindings != 0 || s.LowFindings != 0 {
		t.Error("all severity counts must be 0 for empty input")
	}
}

func TestComputeSummary_CountsPerSeverity(t *testing.T) {
	findings := []models.Finding{
		{Severity: models.SeverityCritical, Details: []string{"a"}},
		{Severity: models.SeverityHigh, Details: []string{"a", "b"}},
		{Severity: models.SeverityMedium, Details: []string{"a"}},
		{Severity: models.SeverityLow, Details: []string{"a"}},
		{Severity: models.SeverityInfo, Details: []string{"a"}},
	}
	s := computeSummary(findings, nil)

	if s.TotalFindings != 5 {
		t.Errorf("TotalFindings = %d; want 5", s.TotalFindings)
	}
	if s.CriticalFindings != 1 {
		t.Errorf("CriticalFindings = %d; want 1", s.CriticalFindings)
	}
	if s.HighFindings != 1 {
		t.Errorf("HighFindings = %d; want 1", s.HighFindings)
	}
	if s.MediumFindings != 1 {
		t.Errorf("MediumFindings = %d; want 1", s.MediumFindings)
	}
	if s.LowFindings != 1 {
		t.Errorf("LowFindings = %d; want 1", s.LowFindings)
	}
}

func TestComputeSummary_InfoCountedInTotalOnly(t *testing.T) {
	// INFO findings count toward TotalFindings but no severity-specific bucket.
	findings := []models.Finding{
		{Severity: models.SeverityInfo},
		{Severity: models.SeverityInfo},
	}
	s := computeSummary(findings, nil)

	if s.TotalFindings != 2 {
		t.Errorf("TotalFindings = %d; want 2", s.TotalFindings)
	}
	if s.CriticalFindings+s.HighFindings+s.MediumFindings+s.LowFindings != 0 {
		t.Error("severity buckets must all be 0 for INFO findings")
	}
}

func TestComputeSummary_SumsViolationLines(t *testing.T) {
	findings := []models.Finding{
		{Severity: models.SeverityHigh, Details: []string{"a", "b", "c"}},
		{Severity: models.SeverityHigh, Details: []string{"d"}},
		{Severity: models.SeverityHigh},
	}
	s := computeSummary(findings, nil)

	if s.TotalViolations != 4 {
		t.Errorf("TotalViolations = %d; want 4 (3+1+0)", s.TotalViolations)
	}
}

func TestComputeSummary_CountsIndeterminate(t *testing.T) {
	indeterminate := []models.IndeterminateCheck{
		{RuleID: "2.2", Cause: "list log sinks: boom"},
		{RuleID: "2.3", Cause: "probe retention of gs://b: boom"},
	}
	s := computeSummary(nil, indeterminate)

	if s.IndeterminateChecks != 2 {
		t.Errorf("IndeterminateChecks = %d; want 2", s.IndeterminateChecks)
	}
	if s.TotalFindings != 0 {
		t.Errorf("TotalFindings = %d; want 0", s.TotalFindings)
	}
}

// ── newReportID ──────────────────────────────────────────────────────────────

func TestNewReportID_PrefixAndUniqueness(t *testing.T) {
	a := newReportID()
	b := newReportID()

	if !strings.HasPrefix(a, "audit-") {
		t.Errorf("report ID %q missing audit- prefix", a)
	}
	if a == b {
		t.Errorf("consecutive report IDs collided: %q", a)
	}
}
