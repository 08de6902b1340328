// Package gcpinventory collects the logging and monitoring configuration
// state that the benchmark rules evaluate. All reads go through the Accessor
// interface so rule logic stays independent of the Google API clients and
// can be tested against in-memory fakes.
package gcpinventory

import (
	"context"
	"fmt"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// Accessor is the read-only inventory surface consumed by the rules.
// One Accessor serves a single audit run. Implementations must be safe for
// concurrent use (rules run in parallel) and must be side-effect free:
// calling any method repeatedly within a run returns equivalent data.
//
// Callers must treat returned slices and maps as read-only; they may be
// shared between rules by a caching implementation.
type Accessor interface {
	// ListOrganizations returns the numeric IDs of every organization
	// visible to the caller, in API return order.
	ListOrganizations(ctx context.Context) ([]string, error)

	// ListFolders returns the numeric IDs of every folder visible to the
	// caller, across the whole hierarchy, in API return order.
	ListFolders(ctx context.Context) ([]string, error)

	// ListLoggingEnabledProjects returns the IDs of active projects that
	// have the Cloud Logging API enabled, in API return order.
	ListLoggingEnabledProjects(ctx context.Context) ([]string, error)

	// ProjectIAMPolicies returns the audit-relevant IAM policy slice of
	// every active project, keyed by project ID.
	ProjectIAMPolicies(ctx context.Context) (map[string]models.ProjectPolicy, error)

	// ListLogSinks returns the log export sinks attached to scope.
	ListLogSinks(ctx context.Context, scope models.Scope) ([]models.LogSink, error)

	// ListLogMetrics returns the log-based metrics of one project.
	ListLogMetrics(ctx context.Context, projectID string) ([]models.LogMetric, error)

	// ListAlertPolicies returns the alerting policies of one project.
	ListAlertPolicies(ctx context.Context, projectID string) ([]models.AlertPolicy, error)

	// ProbeBucketRetention reports the retention state of one storage
	// bucket as probe text in the gsutil presentation; the retention rule
	// classifies the text by substring. bucketRef is the gs:// form.
	ProbeBucketRetention(ctx context.Context, bucketRef string) (string, error)
}

// QueryError is the error type every Accessor implementation in this
// package returns. It carries the failed operation and, when the query was
// directed at a single hierarchy node, that node's scope, so the engine can
// attribute indeterminate results.
type QueryError struct {
	Op    string
	Scope models.Scope
	Err   error
}

func (e *QueryError) Error() string {
	if e.Scope != (models.Scope{}) {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Scope, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
