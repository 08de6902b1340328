package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudtriage/gcpaudit/internal/models"
	gcpinventory "github.com/cloudtriage/gcpaudit/internal/providers/gcp/inventory"
)

// AuditLoggingConfiguredRule implements check 2.1. A project audits every
// service and every user only when its IAM policy carries an allServices
// audit config with both DATA_READ and DATA_WRITE log types and no exempted
// users. Anything less leaves admin or data activity invisible to the audit
// trail, so each gap becomes its own violation line.
type AuditLoggingConfiguredRule struct {
	ruleInfo
}

// NewAuditLoggingConfiguredRule returns the audit logging configuration check.
func NewAuditLoggingConfiguredRule() *AuditLoggingConfiguredRule {
	return &AuditLoggingConfiguredRule{ruleInfo{
		id:       "2.1",
		title:    "2.1 [Level 1] Ensure that Cloud Audit Logging is configured properly across all services and all users from a project (Scored)",
		severity: models.SeverityHigh,
		remediation: "Add an allServices audit config with DATA_READ and DATA_WRITE log types to the project IAM policy " +
			"and remove all exempted members from it.",
	}}
}

// Check inspects every project's IAM policy. Projects are visited in
// lexicographic ID order so the emitted lines are stable across runs.
func (r *AuditLoggingConfiguredRule) Check(ctx context.Context, inv gcpinventory.Accessor) (*models.Finding, error) {
	policies, err := inv.ProjectIAMPolicies(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]string, 0, len(policies))
	for p := range policies {
		projects = append(projects, p)
	}
	sort.Strings(projects)

	var details []string
	for _, projectID := range projects {
		details = append(details, auditConfigViolations(projectID, policies[projectID])...)
	}
	return r.newFinding(details), nil
}

// auditConfigViolations evaluates one project's audit configuration and
// returns its violation lines. A policy with no auditConfigs block at all
// is one violation; a policy with an empty block is compliant. Importers
// match these lines verbatim, the double space before "project" in the
// DATA_READ and DATA_WRITE lines included.
func auditConfigViolations(projectID string, pol models.ProjectPolicy) []string {
	if pol.AuditConfigs == nil {
		return []string{fmt.Sprintf("Cloud Audit Logging is not configured for project [%s]", projectID)}
	}
	var details []string
	for _, ac := range pol.AuditConfigs {
		if ac.Service != "allServices" {
			details = append(details, fmt.Sprintf("Cloud Audit Logging is not configured for all services for project [%s]", projectID))
			continue
		}
		if ac.AuditLogConfigs == nil {
			details = append(details, fmt.Sprintf("Cloud Audit Logging is not configured properly for project [%s]", projectID))
			continue
		}
		dataRead := false
		dataWrite := false
		for _, alc := range ac.AuditLogConfigs {
			switch alc.LogType {
			case "DATA_READ":
				dataRead = true
			case "DATA_WRITE":
				dataWrite = true
			}
			for _, em := range alc.ExemptedMembers {
				if !strings.HasPrefix(em, "user:") {
					continue
				}
				details = append(details, fmt.Sprintf("Audit configuration has exempted member [%s] for log type [%s] for project [%s]",
					strings.Split(em, ":")[1], alc.LogType, projectID))
			}
		}
		if !dataRead {
			details = append(details, fmt.Sprintf("Cloud audit logging configuration is not enabled for DATA_READ operation for  project [%s]", projectID))
		}
		if !dataWrite {
			details = append(details, fmt.Sprintf("Cloud audit logging configuration is not enabled for DATA_WRITE operation for  project [%s]", projectID))
		}
	}
	return details
}
