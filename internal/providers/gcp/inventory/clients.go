package gcpinventory

import (
	"context"

	"cloud.google.com/go/storage"
	"google.golang.org/api/cloudresourcemanager/v1"
	cloudresourcemanagerv2 "google.golang.org/api/cloudresourcemanager/v2"
	"google.golang.org/api/logging/v2"
	"google.golang.org/api/monitoring/v3"
	"google.golang.org/api/serviceusage/v1"

	"github.com/cloudtriage/gcpaudit/internal/providers/gcp/common"
)

// ---------------------------------------------------------------------------
// Per-API client interfaces
//
// Each interface covers only the calls this package issues, with pagination
// already folded in. Using narrow interfaces instead of the full generated
// services makes mocking in unit tests trivial: create a struct that
// satisfies the interface and return canned raw responses.
// ---------------------------------------------------------------------------

// organizationAPIClient is the Resource Manager surface for organization
// discovery.
type organizationAPIClient interface {
	SearchOrganizations(ctx context.Context) ([]*cloudresourcemanager.Organization, error)
}

// folderAPIClient is the Resource Manager v2 surface for folder discovery.
type folderAPIClient interface {
	SearchFolders(ctx context.Context) ([]*cloudresourcemanagerv2.Folder, error)
}

// projectAPIClient covers active-project listing and per-project IAM policy
// reads.
type projectAPIClient interface {
	ListActiveProjects(ctx context.Context) ([]*cloudresourcemanager.Project, error)
	GetProjectIamPolicy(ctx context.Context, projectID string) (*cloudresourcemanager.Policy, error)
}

// sinkAPIClient lists log export sinks under a parent resource
// ("organizations/123", "folders/456", or "projects/p").
type sinkAPIClient interface {
	ListSinks(ctx context.Context, parent string) ([]*logging.LogSink, error)
}

// metricAPIClient lists the log-based metrics of one project.
type metricAPIClient interface {
	ListMetrics(ctx context.Context, projectID string) ([]*logging.LogMetric, error)
}

// alertPolicyAPIClient lists the alerting policies of one project.
type alertPolicyAPIClient interface {
	ListAlertPolicies(ctx context.Context, projectID string) ([]*monitoring.AlertPolicy, error)
}

// serviceUsageAPIClient reports the activation state of one API on one
// project ("ENABLED" or "DISABLED").
type serviceUsageAPIClient interface {
	ServiceState(ctx context.Context, projectID, service string) (string, error)
}

// bucketAPIClient reads storage bucket attributes for the retention probe.
type bucketAPIClient interface {
	BucketAttrs(ctx context.Context, bucket string) (*storage.BucketAttrs, error)
}

// invClients bundles the narrow API clients used by the inventory collectors.
type invClients struct {
	Organizations organizationAPIClient
	Folders       folderAPIClient
	Projects      projectAPIClient
	Sinks         sinkAPIClient
	Metrics       metricAPIClient
	Alerts        alertPolicyAPIClient
	Usage         serviceUsageAPIClient
	Buckets       bucketAPIClient
}

// invClientFactory creates invClients from a ServiceSet.
// Injection point: tests replace this with a function returning fakes.
type invClientFactory func(s *common.ServiceSet) *invClients

// newDefaultInvClients wraps the real Google API services from s.
func newDefaultInvClients(s *common.ServiceSet) *invClients {
	return &invClients{
		Organizations: &crmOrganizations{svc: s.ResourceManager},
		Folders:       &crmFolders{svc: s.ResourceManagerV2},
		Projects:      &crmProjects{svc: s.ResourceManager},
		Sinks:         &loggingSinks{svc: s.Logging},
		Metrics:       &loggingMetrics{svc: s.Logging},
		Alerts:        &monitoringAlerts{svc: s.Monitoring},
		Usage:         &serviceUsage{svc: s.ServiceUsage},
		Buckets:       &storageBuckets{client: s.Storage},
	}
}

// ---------------------------------------------------------------------------
// Production implementations
// ---------------------------------------------------------------------------

type crmOrganizations struct {
	svc *cloudresourcemanager.Service
}

func (c *crmOrganizations) SearchOrganizations(ctx context.Context) ([]*cloudresourcemanager.Organization, error) {
	var orgs []*cloudresourcemanager.Organization
	call := c.svc.Organizations.Search(&cloudresourcemanager.SearchOrganizationsRequest{})
	err := call.Pages(ctx, func(page *cloudresourcemanager.SearchOrganizationsResponse) error {
		orgs = append(orgs, page.Organizations...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

type crmFolders struct {
	svc *cloudresourcemanagerv2.Service
}

func (c *crmFolders) SearchFolders(ctx context.Context) ([]*cloudresourcemanagerv2.Folder, error) {
	var folders []*cloudresourcemanagerv2.Folder
	call := c.svc.Folders.Search(&cloudresourcemanagerv2.SearchFoldersRequest{})
	err := call.Pages(ctx, func(page *cloudresourcemanagerv2.SearchFoldersResponse) error {
		folders = append(folders, page.Folders...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

type crmProjects struct {
	svc *cloudresourcemanager.Service
}

func (c *crmProjects) ListActiveProjects(ctx context.Context) ([]*cloudresourcemanager.Project, error) {
	var projects []*cloudresourcemanager.Project
	call := c.svc.Projects.List().Filter("lifecycleState:ACTIVE")
	err := call.Pages(ctx, func(page *cloudresourcemanager.ListProjectsResponse) error {
		projects = append(projects, page.Projects...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *crmProjects) GetProjectIamPolicy(ctx context.Context, projectID string) (*cloudresourcemanager.Policy, error) {
	return c.svc.Projects.GetIamPolicy(projectID, &cloudresourcemanager.GetIamPolicyRequest{}).Context(ctx).Do()
}

type loggingSinks struct {
	svc *logging.Service
}

func (c *loggingSinks) ListSinks(ctx context.Context, parent string) ([]*logging.LogSink, error) {
	var sinks []*logging.LogSink
	err := c.svc.Sinks.List(parent).Pages(ctx, func(page *logging.ListSinksResponse) error {
		sinks = append(sinks, page.Sinks...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sinks, nil
}

type loggingMetrics struct {
	svc *logging.Service
}

func (c *loggingMetrics) ListMetrics(ctx context.Context, projectID string) ([]*logging.LogMetric, error) {
	var metrics []*logging.LogMetric
	call := c.svc.Projects.Metrics.List("projects/" + projectID)
	err := call.Pages(ctx, func(page *logging.ListLogMetricsResponse) error {
		metrics = append(metrics, page.Metrics...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

type monitoringAlerts struct {
	svc *monitoring.Service
}

func (c *monitoringAlerts) ListAlertPolicies(ctx context.Context, projectID string) ([]*monitoring.AlertPolicy, error) {
	var policies []*monitoring.AlertPolicy
	call := c.svc.Projects.AlertPolicies.List("projects/" + projectID)
	err := call.Pages(ctx, func(page *monitoring.ListAlertPoliciesResponse) error {
		policies = append(policies, page.AlertPolicies...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return policies, nil
}

type serviceUsage struct {
	svc *serviceusage.Service
}

func (c *serviceUsage) ServiceState(ctx context.Context, projectID, service string) (string, error) {
	name := "projects/" + projectID + "/services/" + service
	out, err := c.svc.Services.Get(name).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return out.State, nil
}

type storageBuckets struct {
	client *storage.Client
}

func (c *storageBuckets) BucketAttrs(ctx context.Context, bucket string) (*storage.BucketAttrs, error) {
	return c.client.Bucket(bucket).Attrs(ctx)
}
