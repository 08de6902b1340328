package gcpinventory

import (
	"context"
	"strings"

	"google.golang.org/api/cloudresourcemanager/v1"

	"github.com/cloudtriage/gcpaudit/internal/models"
	"github.com/cloudtriage/gcpaudit/internal/providers/gcp/common"
)

const (
	// loggingServiceName is the API whose activation qualifies a project
	// for sink and metric evaluation.
	loggingServiceName = "logging.googleapis.com"

	serviceStateEnabled = "ENABLED"
)

// DefaultAccessor is the production Accessor. It reads through the Google
// APIs and converts raw responses into the provider-neutral documents the
// rules consume. It applies no benchmark logic and produces no findings.
//
// DefaultAccessor performs one API round-trip per call; wrap it in a
// CachingAccessor for audit runs.
type DefaultAccessor struct {
	clients *invClients
}

// NewDefaultAccessor returns an accessor backed by the real Google APIs.
func NewDefaultAccessor(services *common.ServiceSet) *DefaultAccessor {
	return &DefaultAccessor{clients: newDefaultInvClients(services)}
}

// NewDefaultAccessorWithFactory returns an accessor that uses f to create
// its clients. Pass a fake factory in tests; services may be nil then.
func NewDefaultAccessorWithFactory(services *common.ServiceSet, f invClientFactory) *DefaultAccessor {
	return &DefaultAccessor{clients: f(services)}
}

// ListOrganizations implements Accessor. Organization resource names arrive
// as "organizations/<number>"; only the number is returned.
func (a *DefaultAccessor) ListOrganizations(ctx context.Context) ([]string, error) {
	raw, err := a.clients.Organizations.SearchOrganizations(ctx)
	if err != nil {
		return nil, &QueryError{Op: "search organizations", Err: err}
	}
	ids := make([]string, 0, len(raw))
	for _, org := range raw {
		ids = append(ids, strings.TrimPrefix(org.Name, "organizations/"))
	}
	return ids, nil
}

// ListFolders implements Accessor. Folder resource names arrive as
// "folders/<number>"; only the number is returned.
func (a *DefaultAccessor) ListFolders(ctx context.Context) ([]string, error) {
	raw, err := a.clients.Folders.SearchFolders(ctx)
	if err != nil {
		return nil, &QueryError{Op: "search folders", Err: err}
	}
	ids := make([]string, 0, len(raw))
	for _, f := range raw {
		ids = append(ids, strings.TrimPrefix(f.Name, "folders/"))
	}
	return ids, nil
}

// ListLoggingEnabledProjects implements Accessor. It lists active projects
// and keeps those with the Cloud Logging API enabled, preserving the
// project list order.
func (a *DefaultAccessor) ListLoggingEnabledProjects(ctx context.Context) ([]string, error) {
	projects, err := a.clients.Projects.ListActiveProjects(ctx)
	if err != nil {
		return nil, &QueryError{Op: "list active projects", Err: err}
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		state, err := a.clients.Usage.ServiceState(ctx, p.ProjectId, loggingServiceName)
		if err != nil {
			return nil, &QueryError{
				Op:    "check logging api state",
				Scope: models.ProjectScope(p.ProjectId),
				Err:   err,
			}
		}
		if state == serviceStateEnabled {
			ids = append(ids, p.ProjectId)
		}
	}
	return ids, nil
}

// ProjectIAMPolicies implements Accessor. Every active project contributes
// an entry, including projects whose policy carries no audit configuration.
func (a *DefaultAccessor) ProjectIAMPolicies(ctx context.Context) (map[string]models.ProjectPolicy, error) {
	projects, err := a.clients.Projects.ListActiveProjects(ctx)
	if err != nil {
		return nil, &QueryError{Op: "list active projects", Err: err}
	}
	policies := make(map[string]models.ProjectPolicy, len(projects))
	for _, p := range projects {
		raw, err := a.clients.Projects.GetProjectIamPolicy(ctx, p.ProjectId)
		if err != nil {
			return nil, &QueryError{
				Op:    "get iam policy",
				Scope: models.ProjectScope(p.ProjectId),
				Err:   err,
			}
		}
		policies[p.ProjectId] = convertProjectPolicy(raw)
	}
	return policies, nil
}

// ListLogSinks implements Accessor.
func (a *DefaultAccessor) ListLogSinks(ctx context.Context, scope models.Scope) ([]models.LogSink, error) {
	raw, err := a.clients.Sinks.ListSinks(ctx, scope.ResourceName())
	if err != nil {
		return nil, &QueryError{Op: "list log sinks", Scope: scope, Err: err}
	}
	sinks := make([]models.LogSink, 0, len(raw))
	for _, s := range raw {
		sinks = append(sinks, models.LogSink{
			Name:        s.Name,
			Filter:      presentSinkFilter(s.Filter),
			Destination: s.Destination,
		})
	}
	return sinks, nil
}

// ListLogMetrics implements Accessor. The metric type comes from the
// metric descriptor; metrics without a descriptor convert with an empty
// MetricType and can never satisfy an alert correlation.
func (a *DefaultAccessor) ListLogMetrics(ctx context.Context, projectID string) ([]models.LogMetric, error) {
	raw, err := a.clients.Metrics.ListMetrics(ctx, projectID)
	if err != nil {
		return nil, &QueryError{
			Op:    "list log metrics",
			Scope: models.ProjectScope(projectID),
			Err:   err,
		}
	}
	metrics := make([]models.LogMetric, 0, len(raw))
	for _, m := range raw {
		conv := models.LogMetric{Name: m.Name, Filter: m.Filter}
		if m.MetricDescriptor != nil {
			conv.MetricType = m.MetricDescriptor.Type
		}
		metrics = append(metrics, conv)
	}
	return metrics, nil
}

// ListAlertPolicies implements Accessor. Only threshold conditions carry a
// filter; other condition kinds convert with an empty ThresholdFilter.
func (a *DefaultAccessor) ListAlertPolicies(ctx context.Context, projectID string) ([]models.AlertPolicy, error) {
	raw, err := a.clients.Alerts.ListAlertPolicies(ctx, projectID)
	if err != nil {
		return nil, &QueryError{
			Op:    "list alert policies",
			Scope: models.ProjectScope(projectID),
			Err:   err,
		}
	}
	policies := make([]models.AlertPolicy, 0, len(raw))
	for _, p := range raw {
		conv := models.AlertPolicy{Name: p.Name, Enabled: p.Enabled}
		for _, cond := range p.Conditions {
			var filter string
			if cond.ConditionThreshold != nil {
				filter = cond.ConditionThreshold.Filter
			}
			conv.Conditions = append(conv.Conditions, models.AlertCondition{ThresholdFilter: filter})
		}
		policies = append(policies, conv)
	}
	return policies, nil
}

// presentSinkFilter maps the API's empty filter string to the catch-all
// literal the rules match on.
func presentSinkFilter(filter string) string {
	if filter == "" {
		return models.EmptySinkFilter
	}
	return filter
}

// convertProjectPolicy keeps the nil-versus-empty distinction of the raw
// policy: a policy without an auditConfigs block converts to a nil slice,
// and a service entry without an auditLogConfigs block likewise.
func convertProjectPolicy(raw *cloudresourcemanager.Policy) models.ProjectPolicy {
	var out models.ProjectPolicy
	if raw == nil || raw.AuditConfigs == nil {
		return out
	}
	out.AuditConfigs = make([]models.AuditConfig, 0, len(raw.AuditConfigs))
	for _, ac := range raw.AuditConfigs {
		conv := models.AuditConfig{Service: ac.Service}
		if ac.AuditLogConfigs != nil {
			conv.AuditLogConfigs = make([]models.AuditLogConfig, 0, len(ac.AuditLogConfigs))
			for _, alc := range ac.AuditLogConfigs {
				conv.AuditLogConfigs = append(conv.AuditLogConfigs, models.AuditLogConfig{
					LogType:         alc.LogType,
					ExemptedMembers: append([]string(nil), alc.ExemptedMembers...),
				})
			}
		}
		out.AuditConfigs = append(out.AuditConfigs, conv)
	}
	return out
}
