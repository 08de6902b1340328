package rules

// Target metric filters for checks 2.4 through 2.11. Each is the exact
// filter text the CIS GCP benchmark prescribes for the activity, in
// single-line form; observed metric filters are normalized to the same
// form before comparison. Do not reformat these strings: matching is
// literal.
const (
	projectOwnershipFilter = `(protoPayload.serviceName="cloudresourcemanager.googleapis.com") AND (ProjectOwnership OR projectOwnerInvitee) OR (protoPayload.serviceData.policyDelta.bindingDeltas.action="REMOVE" AND protoPayload.serviceData.policyDelta.bindingDeltas.role="roles/owner") OR (protoPayload.serviceData.policyDelta.bindingDeltas.action="ADD" AND protoPayload.serviceData.policyDelta.bindingDeltas.role="roles/owner")`

	auditConfigChangeFilter = `protoPayload.methodName="SetIamPolicy" AND protoPayload.serviceData.policyDelta.auditConfigDeltas:*`

	customRoleChangeFilter = `resource.type="iam_role" AND protoPayload.methodName = "google.iam.admin.v1.CreateRole" OR protoPayload.methodName="google.iam.admin.v1.DeleteRole" OR protoPayload.methodName="google.iam.admin.v1.UpdateRole"`

	firewallRuleChangeFilter = `resource.type="gce_firewall_rule" AND jsonPayload.event_subtype="compute.firewalls.patch" OR jsonPayload.event_subtype="compute.firewalls.insert"`

	routeChangeFilter = `resource.type="gce_route" AND jsonPayload.event_subtype="compute.routes.delete" OR jsonPayload.event_subtype="compute.routes.insert"`

	networkChangeFilter = `resource.type=gce_network AND jsonPayload.event_subtype="compute.networks.insert" OR jsonPayload.event_subtype="compute.networks.patch" OR jsonPayload.event_subtype="compute.networks.delete" OR jsonPayload.event_subtype="compute.networks.removePeering" OR jsonPayload.event_subtype="compute.networks.addPeering"`

	storageIAMChangeFilter = `resource.type=gcs_bucket AND protoPayload.methodName="storage.setIamPermissions"`

	sqlInstanceChangeFilter = `protoPayload.methodName="cloudsql.instances.update"`
)

// NewProjectOwnershipAlertRule returns check 2.4: ownership grants and
// transfers are the highest-impact IAM changes a project can see.
func NewProjectOwnershipAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.4",
		"2.4 [Level 1] Ensure log metric filter and alerts exist for project ownership assignments/changes (Scored)",
		"Project Ownership assignments/changes",
		projectOwnershipFilter,
	)
}

// NewAuditConfigChangeAlertRule returns check 2.5: tampering with audit
// configs is how an attacker silences the audit trail itself.
func NewAuditConfigChangeAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.5",
		"2.5 [Level 1] Ensure that the log metric filter and alerts exist for Audit Configuration changes (Scored)",
		"Audit Configuration changes",
		auditConfigChangeFilter,
	)
}

// NewCustomRoleChangeAlertRule returns check 2.6.
func NewCustomRoleChangeAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.6",
		"2.6 [Level 1] Ensure that the log metric filter and alerts exist for Custom Role changes (Scored)",
		"Custom Role changes",
		customRoleChangeFilter,
	)
}

// NewFirewallRuleChangeAlertRule returns check 2.7.
func NewFirewallRuleChangeAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.7",
		"2.7 [Level 1] Ensure that the log metric filter and alerts exist for VPC Network Firewall rule changes (Scored)",
		"VPC Network Firewall Rule changes",
		firewallRuleChangeFilter,
	)
}

// NewRouteChangeAlertRule returns check 2.8.
func NewRouteChangeAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.8",
		"2.8 [Level 1] Ensure that the log metric filter and alerts exist for VPC network route changes (Scored)",
		"VPC Network Route changes",
		routeChangeFilter,
	)
}

// NewNetworkChangeAlertRule returns check 2.9.
func NewNetworkChangeAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.9",
		"2.9 [Level 1] Ensure that the log metric filter and alerts exist for VPC network changes (Scored)",
		"VPC Network changes",
		networkChangeFilter,
	)
}

// NewStorageIAMChangeAlertRule returns check 2.10.
func NewStorageIAMChangeAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.10",
		"2.10 [Level 1] Ensure that the log metric filter and alerts exist for Cloud Storage IAM permission changes (Scored)",
		"Cloud Storage IAM Permission changes",
		storageIAMChangeFilter,
	)
}

// NewSQLInstanceChangeAlertRule returns check 2.11.
func NewSQLInstanceChangeAlertRule() *MetricAlertRule {
	return newMetricAlertRule(
		"2.11",
		"2.11 [Level 1] Ensure that the log metric filter and alerts exist for SQL instance configuration changes (Scored)",
		"SQL Instance Configuration changes",
		sqlInstanceChangeFilter,
	)
}
