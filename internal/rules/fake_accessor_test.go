package rules

import (
	"context"
	"sync"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// fakeAccessor is a canned Accessor for rule tests. The zero value is an
// empty, fully compliant estate; tests fill only the fields their scenario
// touches. Map lookups for absent keys return empty results, and the errs
// map forces a failure for one operation kind.
type fakeAccessor struct {
	orgs     []string
	folders  []string
	projects []string
	policies map[string]models.ProjectPolicy
	sinks    map[string][]models.LogSink     // keyed by scope.String()
	metrics  map[string][]models.LogMetric   // keyed by project ID
	alerts   map[string][]models.AlertPolicy // keyed by project ID
	probes   map[string]string               // keyed by bucket ref
	errs     map[string]error                // keyed by operation kind

	mu         sync.Mutex
	alertCalls int
	probeCalls int
}

func (f *fakeAccessor) ListOrganizations(ctx context.Context) ([]string, error) {
	if err := f.errs["organizations"]; err != nil {
		return nil, err
	}
	return f.orgs, nil
}

func (f *fakeAccessor) ListFolders(ctx context.Context) ([]string, error) {
	if err := f.errs["folders"]; err != nil {
		return nil, err
	}
	return f.folders, nil
}

func (f *fakeAccessor) ListLoggingEnabledProjects(ctx context.Context) ([]string, error) {
	if err := f.errs["projects"]; err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeAccessor) ProjectIAMPolicies(ctx context.Context) (map[string]models.ProjectPolicy, error) {
	if err := f.errs["policies"]; err != nil {
		return nil, err
	}
	return f.policies, nil
}

func (f *fakeAccessor) ListLogSinks(ctx context.Context, scope models.Scope) ([]models.LogSink, error) {
	if err := f.errs["sinks"]; err != nil {
		return nil, err
	}
	return f.sinks[scope.String()], nil
}

func (f *fakeAccessor) ListLogMetrics(ctx context.Context, projectID string) ([]models.LogMetric, error) {
	if err := f.errs["metrics"]; err != nil {
		return nil, err
	}
	return f.metrics[projectID], nil
}

func (f *fakeAccessor) ListAlertPolicies(ctx context.Context, projectID string) ([]models.AlertPolicy, error) {
	f.mu.Lock()
	f.alertCalls++
	f.mu.Unlock()
	if err := f.errs["alerts"]; err != nil {
		return nil, err
	}
	return f.alerts[projectID], nil
}

func (f *fakeAccessor) ProbeBucketRetention(ctx context.Context, bucketRef string) (string, error) {
	f.mu.Lock()
	f.probeCalls++
	f.mu.Unlock()
	if err := f.errs["probe"]; err != nil {
		return "", err
	}
	return f.probes[bucketRef], nil
}

// alertCallCount returns how many times alert policies were listed.
func (f *fakeAccessor) alertCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alertCalls
}

// probeCallCount returns how many retention probes ran.
func (f *fakeAccessor) probeCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCalls
}
