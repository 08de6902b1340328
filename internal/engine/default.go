package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// newReportID returns a fresh report identifier. Report IDs only need to
// be unique, not sortable.
func newReportID() string {
	return fmt.Sprintf("audit-%s", uuid.NewString())
}

// computeSummary aggregates finding and violation counts across all
// severity levels. TotalViolations counts individual detail lines, since
// one finding carries every violation its check detected.
func computeSummary(findings []models.Finding, indeterminate []models.IndeterminateCheck) models.AuditSummary {
	var s models.AuditSummary
	s.TotalFindings = len(findings)
	s.IndeterminateChecks = len(indeterminate)
	for _, f := range findings {
		s.TotalViolations += len(f.Details)
		switch f.Severity {
		case models.SeverityCritical:
			s.CriticalFindings++
		case models.SeverityHigh:
			s.HighFindings++
		case models.SeverityMedium:
			s.MediumFindings++
		case models.SeverityLow:
			s.LowFindings++
		}
	}
	return s
}
