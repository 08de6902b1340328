// Package logging provides the Cloud Logging benchmark rule pack.
// It groups the eleven logging and monitoring checks into a single New()
// function that the CLI wires into a DefaultRuleRegistry before invoking
// the logging engine.
//
// Convention: every rule pack lives in internal/rulepacks/<domain>/pack.go
// and exposes a single New() func returning []rules.Rule. This catalog is
// fixed: its order is the report order, and the engine emits findings in
// exactly this sequence.
package logging

import "github.com/cloudtriage/gcpaudit/internal/rules"

// New returns the logging benchmark catalog in report order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.NewAuditLoggingConfiguredRule(),  // 2.1:  audit logging across all services and users
		rules.NewSinkCoverageRule(),            // 2.2:  catch-all log sinks
		rules.NewBucketRetentionRule(),         // 2.3:  locked retention on log buckets
		rules.NewProjectOwnershipAlertRule(),   // 2.4:  project ownership change alerts
		rules.NewAuditConfigChangeAlertRule(),  // 2.5:  audit configuration change alerts
		rules.NewCustomRoleChangeAlertRule(),   // 2.6:  custom role change alerts
		rules.NewFirewallRuleChangeAlertRule(), // 2.7:  firewall rule change alerts
		rules.NewRouteChangeAlertRule(),        // 2.8:  network route change alerts
		rules.NewNetworkChangeAlertRule(),      // 2.9:  network change alerts
		rules.NewStorageIAMChangeAlertRule(),   // 2.10: storage IAM change alerts
		rules.NewSQLInstanceChangeAlertRule(),  // 2.11: SQL instance configuration change alerts
	}
}
