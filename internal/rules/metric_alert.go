package rules

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cloudtriage/gcpaudit/internal/models"
	gcpinventory "github.com/cloudtriage/gcpaudit/internal/providers/gcp/inventory"
)

// metricAlertWorkers is the maximum number of projects correlated in parallel.
const metricAlertWorkers = 8

// MetricAlertRule is the shared implementation of checks 2.4 through 2.11:
// a log-based metric with a specific filter must exist in every
// logging-enabled project, and an enabled alert policy must watch the
// metric that filter produces. The eight catalog instances differ only in
// their target filter and message subject.
type MetricAlertRule struct {
	ruleInfo
	filter     string
	missingMsg string
}

// newMetricAlertRule builds one metric/alert check. subject names the
// monitored activity as it appears in the violation line; filter is the
// exact metric filter the check looks for, in single-line form.
func newMetricAlertRule(id, title, subject, filter string) *MetricAlertRule {
	return &MetricAlertRule{
		ruleInfo: ruleInfo{
			id:          id,
			title:       title,
			severity:    models.SeverityHigh,
			remediation: fmt.Sprintf("Create a log-based metric for %s and an enabled alert policy on the metric it produces.", subject),
		},
		filter:     filter,
		missingMsg: fmt.Sprintf("Log metric filter and alerts do not exist for %s for project [%%s]", subject),
	}
}

// Check correlates metrics and alert policies across all logging-enabled
// projects. Violation lines follow the project enumeration order even
// though projects are correlated in parallel.
func (r *MetricAlertRule) Check(ctx context.Context, inv gcpinventory.Accessor) (*models.Finding, error) {
	projects, err := inv.ListLoggingEnabledProjects(ctx)
	if err != nil {
		return nil, err
	}
	covered, err := correlateMetricAlerts(ctx, inv, projects, r.filter)
	if err != nil {
		return nil, err
	}
	var details []string
	for i, projectID := range projects {
		if !covered[i] {
			details = append(details, fmt.Sprintf(r.missingMsg, projectID))
		}
	}
	return r.newFinding(details), nil
}

// correlateMetricAlerts reports, per project, whether a metric matching
// target is watched by an enabled alert. The result slice is indexed like
// projects: each worker writes only its own slot, so enumeration order
// survives worker scheduling. The semaphore channel limits concurrent
// in-flight project correlations to metricAlertWorkers; if any project
// fails, errgroup cancels the context and the first error is returned.
func correlateMetricAlerts(ctx context.Context, inv gcpinventory.Accessor, projects []string, target string) ([]bool, error) {
	covered := make([]bool, len(projects))
	sem := make(chan struct{}, metricAlertWorkers)

	g, gctx := errgroup.WithContext(ctx)

PROJECTS:
	for i, projectID := range projects {
		i, projectID := i, projectID // capture loop variables for goroutine closure
		select {
		case sem <- struct{}{}: // acquire semaphore slot; blocks when at capacity
		case <-gctx.Done():
			break PROJECTS // context cancelled by a prior goroutine error
		}

		g.Go(func() error {
			defer func() { <-sem }() // release semaphore slot on return

			ok, err := metricAlertCovered(gctx, inv, projectID, target)
			if err != nil {
				return err
			}
			covered[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return covered, nil
}

// metricAlertCovered reports whether projectID has a log metric whose
// filter matches target and an enabled alert policy with a threshold
// condition on the metric type that metric produces. Alert policies are
// fetched only after some metric filter matches, so uncovered projects
// cost a single metrics read.
func metricAlertCovered(ctx context.Context, inv gcpinventory.Accessor, projectID, target string) (bool, error) {
	metrics, err := inv.ListLogMetrics(ctx, projectID)
	if err != nil {
		return false, err
	}
	var metricTypes []string
	for _, m := range metrics {
		if normalizeFilter(m.Filter) == target && m.MetricType != "" {
			metricTypes = append(metricTypes, m.MetricType)
		}
	}
	if len(metricTypes) == 0 {
		return false, nil
	}

	policies, err := inv.ListAlertPolicies(ctx, projectID)
	if err != nil {
		return false, err
	}
	for _, metricType := range metricTypes {
		want := `metric.type="` + metricType + `"`
		for _, policy := range policies {
			if !policy.Enabled {
				continue
			}
			for _, cond := range policy.Conditions {
				if cond.ThresholdFilter == want {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// normalizeFilter puts an observed metric filter into single-line form:
// surrounding whitespace trimmed, embedded newlines replaced by spaces.
// Catalog target filters are written in that form.
func normalizeFilter(filter string) string {
	return strings.ReplaceAll(strings.TrimSpace(filter), "\n", " ")
}
