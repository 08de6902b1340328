package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Severity ranks findings from 1 (informational) to 5 (critical).
// The wire form is the bare digit as a string (e.g. "4") because the
// upstream issue importer stores ratings that way.
type Severity int

const (
	SeverityInfo     Severity = 1
	SeverityLow      Severity = 2
	SeverityMedium   Severity = 3
	SeverityHigh     Severity = 4
	SeverityCritical Severity = 5
)

// String returns the digit wire form, e.g. "4" for SeverityHigh.
func (s Severity) String() string {
	return strconv.Itoa(int(s))
}

// Label returns the human-readable name, e.g. "HIGH". Out-of-range
// values render as "UNKNOWN".
func (s Severity) Label() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	case SeverityInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity accepts both severity spellings: the digit form ("1".."5")
// and the label form ("INFO".."CRITICAL", case-insensitive). The second
// return value is false for anything else.
func ParseSeverity(v string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "5", "CRITICAL":
		return SeverityCritical, true
	case "4", "HIGH":
		return SeverityHigh, true
	case "3", "MEDIUM":
		return SeverityMedium, true
	case "2", "LOW":
		return SeverityLow, true
	case "1", "INFO":
		return SeverityInfo, true
	}
	return 0, false
}

// MarshalJSON emits the digit form as a JSON string.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts any spelling ParseSeverity accepts.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := ParseSeverity(raw)
	if !ok {
		return fmt.Errorf("invalid severity %q", raw)
	}
	*s = parsed
	return nil
}

// IssueIDPrefix is prepended to a rule ID to form the stable issue ID,
// e.g. "cis-gcp-bench-check-2.4" for rule 2.4.
const IssueIDPrefix = "cis-gcp-bench-check-"

// Finding is a single benchmark check that failed. One Finding covers the
// whole estate for its check; every violating location contributes one line
// to Details. It is the atomic output unit of the rule engine.
//
// Findings carry no timestamps or other run-local state: two runs against
// identical inventory produce byte-identical findings.
type Finding struct {
	ID          string
	RuleID      string
	Title       string
	Details     []string
	Severity    Severity
	Reference   string
	Remediation string
}

// findingWire is the serialized shape consumed by the upstream issue
// importer: details collapse to one newline-joined string and severity
// to its digit form.
type findingWire struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Details     string `json:"details"`
	Severity    string `json:"severity"`
	Reference   string `json:"reference"`
	Remediation string `json:"remediation"`
}

// MarshalJSON implements the importer wire shape.
func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(findingWire{
		ID:          f.ID,
		Title:       f.Title,
		Details:     strings.Join(f.Details, "\n"),
		Severity:    f.Severity.String(),
		Reference:   f.Reference,
		Remediation: f.Remediation,
	})
}

// UnmarshalJSON reverses MarshalJSON. RuleID is recovered from the issue ID.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var w findingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	sev, ok := ParseSeverity(w.Severity)
	if !ok {
		return fmt.Errorf("finding %q: invalid severity %q", w.ID, w.Severity)
	}
	f.ID = w.ID
	f.RuleID = strings.TrimPrefix(w.ID, IssueIDPrefix)
	f.Title = w.Title
	f.Details = nil
	if w.Details != "" {
		f.Details = strings.Split(w.Details, "\n")
	}
	f.Severity = sev
	f.Reference = w.Reference
	f.Remediation = w.Remediation
	return nil
}

// IndeterminateCheck records a check whose result could not be computed
// because a data fetch failed mid-evaluation. It is neither a pass nor a
// violation; consumers must not treat the absence of a Finding for this
// rule as compliance.
type IndeterminateCheck struct {
	RuleID string `json:"rule_id"`
	Title  string `json:"title"`
	// Scope names the hierarchy node whose fetch failed, when known
	// (e.g. "project/acme-prod").
	Scope string `json:"scope,omitempty"`
	Cause string `json:"cause"`
}

// AuditSummary aggregates counts across all findings of a run.
// TotalViolations counts individual detail lines, not findings.
type AuditSummary struct {
	TotalFindings       int `json:"total_findings"`
	CriticalFindings    int `json:"critical_findings"`
	HighFindings        int `json:"high_findings"`
	MediumFindings      int `json:"medium_findings"`
	LowFindings         int `json:"low_findings"`
	TotalViolations     int `json:"total_violations"`
	IndeterminateChecks int `json:"indeterminate_checks"`
}

// AuditReport is the top-level, SaaS-compatible output of an audit run.
// AssetID and AssetName identify the tracked asset on the reporting
// backend; they are caller-supplied and never derived from inventory.
type AuditReport struct {
	ReportID      string               `json:"report_id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	AuditType     string               `json:"audit_type"`
	AssetID       string               `json:"asset_id"`
	AssetName     string               `json:"asset_name,omitempty"`
	Summary       AuditSummary         `json:"summary"`
	Findings      []Finding            `json:"findings"`
	Indeterminate []IndeterminateCheck `json:"indeterminate,omitempty"`
}
