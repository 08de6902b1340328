package models

// ScopeKind identifies one level of the GCP resource hierarchy.
type ScopeKind string

const (
	ScopeOrganization ScopeKind = "organization"
	ScopeFolder       ScopeKind = "folder"
	ScopeProject      ScopeKind = "project"
)

// Scope addresses a single node of the resource hierarchy: an organization,
// a folder, or a project.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id"`
}

// OrganizationScope returns the Scope for a numeric organization ID.
func OrganizationScope(id string) Scope {
	return Scope{Kind: ScopeOrganization, ID: id}
}

// FolderScope returns the Scope for a numeric folder ID.
func FolderScope(id string) Scope {
	return Scope{Kind: ScopeFolder, ID: id}
}

// ProjectScope returns the Scope for a project ID.
func ProjectScope(id string) Scope {
	return Scope{Kind: ScopeProject, ID: id}
}

// String renders the scope as kind/id, e.g. "project/acme-prod".
func (s Scope) String() string {
	return string(s.Kind) + "/" + s.ID
}

// ResourceName renders the scope in the plural REST form the Cloud Logging
// API expects as a parent, e.g. "organizations/123".
func (s Scope) ResourceName() string {
	switch s.Kind {
	case ScopeOrganization:
		return "organizations/" + s.ID
	case ScopeFolder:
		return "folders/" + s.ID
	default:
		return "projects/" + s.ID
	}
}

// EmptySinkFilter is the presentation of an unfiltered (catch-all) export
// sink. The inventory layer maps an empty API filter string to this literal
// so that rules and fixtures share a single spelling.
const EmptySinkFilter = "(empty filter)"

// AuditLogConfig is one log-type entry inside a per-service audit
// configuration.
type AuditLogConfig struct {
	// LogType is ADMIN_READ, DATA_READ, or DATA_WRITE.
	LogType string `json:"log_type"`
	// ExemptedMembers lists principals excluded from this log type,
	// in the prefixed form the IAM API uses (e.g. "user:alice@example.com").
	ExemptedMembers []string `json:"exempted_members,omitempty"`
}

// AuditConfig is the audit logging configuration for one service inside a
// project IAM policy. Service is "allServices" for the wildcard entry.
//
// AuditLogConfigs is nil when the service entry carries no auditLogConfigs
// block at all; that is distinct from an empty list and the two cases are
// judged differently.
type AuditConfig struct {
	Service         string           `json:"service"`
	AuditLogConfigs []AuditLogConfig `json:"audit_log_configs,omitempty"`
}

// ProjectPolicy is the audit-relevant slice of one project's IAM policy.
// AuditConfigs is nil when the policy has no auditConfigs block.
type ProjectPolicy struct {
	AuditConfigs []AuditConfig `json:"audit_configs,omitempty"`
}

// LogSink is a log export sink attached to an organization, folder, or
// project. Filter holds EmptySinkFilter when the sink exports everything.
type LogSink struct {
	Name        string `json:"name"`
	Filter      string `json:"filter"`
	Destination string `json:"destination"`
}

// LogMetric is a log-based metric: the log filter it counts and the
// monitoring metric type it produces.
type LogMetric struct {
	Name       string `json:"name"`
	Filter     string `json:"filter"`
	MetricType string `json:"metric_type"`
}

// AlertCondition is a single condition inside an alerting policy.
// ThresholdFilter is the monitoring filter of its threshold condition;
// empty when the condition is not threshold-based.
type AlertCondition struct {
	ThresholdFilter string `json:"threshold_filter"`
}

// AlertPolicy is a Cloud Monitoring alerting policy.
type AlertPolicy struct {
	Name       string           `json:"name"`
	Enabled    bool             `json:"enabled"`
	Conditions []AlertCondition `json:"conditions,omitempty"`
}
