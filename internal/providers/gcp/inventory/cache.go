package gcpinventory

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// CachingAccessor memoises every Accessor query for the lifetime of one
// audit run. The metric-alert rules re-request identical per-project metric
// and alert-policy lists eight times over; the cache collapses those to one
// round-trip per (query kind, scope) pair.
//
// Failed fetches are cached too: a query that failed once is not retried
// within the run, so every rule sharing that input reports the same cause.
// Concurrent first requests for the same key are deduplicated so exactly
// one upstream call is in flight per key.
type CachingAccessor struct {
	inner Accessor

	group singleflight.Group

	mu      sync.Mutex
	results map[string]cacheEntry
}

type cacheEntry struct {
	value any
	err   error
}

// NewCachingAccessor wraps inner with a per-run cache.
func NewCachingAccessor(inner Accessor) *CachingAccessor {
	return &CachingAccessor{
		inner:   inner,
		results: make(map[string]cacheEntry),
	}
}

// fetch returns the cached result for key, or runs fill exactly once across
// concurrent callers and caches whatever it returns.
//
// The context of the first caller governs the upstream call; later callers
// share its outcome.
func (c *CachingAccessor) fetch(key string, fill func() (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.results[key]; ok {
		c.mu.Unlock()
		return e.value, e.err
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the key's flight: a caller that missed the cache
		// may arrive here after an earlier flight already stored the entry.
		c.mu.Lock()
		if e, ok := c.results[key]; ok {
			c.mu.Unlock()
			return e.value, e.err
		}
		c.mu.Unlock()

		value, fillErr := fill()
		c.mu.Lock()
		c.results[key] = cacheEntry{value: value, err: fillErr}
		c.mu.Unlock()
		return value, fillErr
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListOrganizations implements Accessor.
func (c *CachingAccessor) ListOrganizations(ctx context.Context) ([]string, error) {
	v, err := c.fetch("organizations", func() (any, error) {
		ids, err := c.inner.ListOrganizations(ctx)
		return ids, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// ListFolders implements Accessor.
func (c *CachingAccessor) ListFolders(ctx context.Context) ([]string, error) {
	v, err := c.fetch("folders", func() (any, error) {
		ids, err := c.inner.ListFolders(ctx)
		return ids, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// ListLoggingEnabledProjects implements Accessor.
func (c *CachingAccessor) ListLoggingEnabledProjects(ctx context.Context) ([]string, error) {
	v, err := c.fetch("logging-projects", func() (any, error) {
		ids, err := c.inner.ListLoggingEnabledProjects(ctx)
		return ids, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// ProjectIAMPolicies implements Accessor. The cached map is shared between
// callers and must not be mutated.
func (c *CachingAccessor) ProjectIAMPolicies(ctx context.Context) (map[string]models.ProjectPolicy, error) {
	v, err := c.fetch("iam-policies", func() (any, error) {
		policies, err := c.inner.ProjectIAMPolicies(ctx)
		return policies, err
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]models.ProjectPolicy), nil
}

// ListLogSinks implements Accessor.
func (c *CachingAccessor) ListLogSinks(ctx context.Context, scope models.Scope) ([]models.LogSink, error) {
	v, err := c.fetch("sinks/"+scope.String(), func() (any, error) {
		sinks, err := c.inner.ListLogSinks(ctx, scope)
		return sinks, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.LogSink), nil
}

// ListLogMetrics implements Accessor.
func (c *CachingAccessor) ListLogMetrics(ctx context.Context, projectID string) ([]models.LogMetric, error) {
	v, err := c.fetch("metrics/"+projectID, func() (any, error) {
		metrics, err := c.inner.ListLogMetrics(ctx, projectID)
		return metrics, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.LogMetric), nil
}

// ListAlertPolicies implements Accessor.
func (c *CachingAccessor) ListAlertPolicies(ctx context.Context, projectID string) ([]models.AlertPolicy, error) {
	v, err := c.fetch("alerts/"+projectID, func() (any, error) {
		policies, err := c.inner.ListAlertPolicies(ctx, projectID)
		return policies, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.AlertPolicy), nil
}

// ProbeBucketRetention implements Accessor.
func (c *CachingAccessor) ProbeBucketRetention(ctx context.Context, bucketRef string) (string, error) {
	v, err := c.fetch("retention/"+bucketRef, func() (any, error) {
		text, err := c.inner.ProbeBucketRetention(ctx, bucketRef)
		return text, err
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
