package rules

import (
	"context"

	"github.com/cloudtriage/gcpaudit/internal/models"
	gcpinventory "github.com/cloudtriage/gcpaudit/internal/providers/gcp/inventory"
)

// Rule is a single benchmark check. Rules are stateless and safe to call
// concurrently; every cloud read goes through the Accessor handed to Check,
// never through API clients of their own.
type Rule interface {
	// ID returns the stable catalog identifier for this check (e.g. "2.4").
	ID() string

	// Title returns the full benchmark recommendation title.
	Title() string

	// Severity returns the fixed severity assigned to this check.
	Severity() models.Severity

	// Check evaluates the control against the estate visible through inv.
	// It returns a finding listing every violation, or nil when the estate
	// is compliant. A non-nil error means the control could not be
	// evaluated; no finding accompanies an error.
	Check(ctx context.Context, inv gcpinventory.Accessor) (*models.Finding, error)
}

// RuleRegistry manages the fixed, ordered benchmark catalog.
type RuleRegistry interface {
	// Register adds a rule to the catalog. Panics on duplicate ID.
	Register(rule Rule)

	// All returns the registered rules in registration order.
	All() []Rule
}

// ruleInfo is the static identity every catalog check embeds. It provides
// the identity accessors; the embedding rule supplies Check.
type ruleInfo struct {
	id          string
	title       string
	severity    models.Severity
	remediation string
}

func (r ruleInfo) ID() string                { return r.id }
func (r ruleInfo) Title() string             { return r.title }
func (r ruleInfo) Severity() models.Severity { return r.severity }

// newFinding wraps the given violation lines in a finding carrying the
// rule's identity. Returns nil when details is empty: findings are never
// created without at least one violation.
func (r ruleInfo) newFinding(details []string) *models.Finding {
	if len(details) == 0 {
		return nil
	}
	return &models.Finding{
		ID:          models.IssueIDPrefix + r.id,
		RuleID:      r.id,
		Title:       r.title,
		Details:     details,
		Severity:    r.severity,
		Remediation: r.remediation,
	}
}
