package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cloudtriage/gcpaudit/internal/models"
	"github.com/cloudtriage/gcpaudit/internal/policy"
	gcpinventory "github.com/cloudtriage/gcpaudit/internal/providers/gcp/inventory"
	"github.com/cloudtriage/gcpaudit/internal/rules"
)

// defaultRuleWorkers is the default number of checks evaluated in parallel.
const defaultRuleWorkers = 4

// GCPLoggingEngine implements Engine for AuditTypeLogging.
// It runs the registered benchmark catalog against the estate visible
// through its Accessor and assembles the findings into a report. It never
// calls Google APIs directly; all reads are delegated to the Accessor and
// all judgments to the rules.
//
// Every run reads through a fresh per-run cache layered over the accessor,
// so checks sharing an input see a single fetch and one consistent result.
type GCPLoggingEngine struct {
	accessor gcpinventory.Accessor
	registry rules.RuleRegistry
	policy   *policy.PolicyConfig
}

// NewGCPLoggingEngine constructs a GCPLoggingEngine wired to the supplied
// accessor and rule registry.
func NewGCPLoggingEngine(
	accessor gcpinventory.Accessor,
	registry rules.RuleRegistry,
	policyCfg *policy.PolicyConfig,
) *GCPLoggingEngine {
	return &GCPLoggingEngine{
		accessor: accessor,
		registry: registry,
		policy:   policyCfg,
	}
}

// ruleResult is the outcome of one isolated check execution: a finding, an
// indeterminate marker, or neither (compliant).
type ruleResult struct {
	finding       *models.Finding
	indeterminate *models.IndeterminateCheck
}

// RunAudit implements Engine. Only AuditTypeLogging is accepted.
//
// Checks run in parallel under a bounded worker pool, but each one writes
// into its own catalog-indexed slot, and the report is assembled by walking
// those slots in catalog order. Findings therefore appear in catalog order
// regardless of completion order, and are never reordered, merged, or
// deduplicated afterwards.
func (e *GCPLoggingEngine) RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error) {
	if opts.AuditType != AuditTypeLogging {
		return nil, fmt.Errorf("unsupported audit type: %q", opts.AuditType)
	}
	if opts.AssetID == "" {
		return nil, fmt.Errorf("asset ID is required")
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = defaultRuleWorkers
	}

	inv := gcpinventory.NewCachingAccessor(e.accessor)
	catalog := e.registry.All()
	results := make([]ruleResult, len(catalog))

	sem := make(chan struct{}, workers)
	g, gctx := errgroup.WithContext(ctx)

CHECKS:
	for i, rule := range catalog {
		i, rule := i, rule // capture loop variables for goroutine closure
		select {
		case sem <- struct{}{}: // acquire semaphore slot; blocks when at capacity
		case <-gctx.Done():
			break CHECKS // run cancelled
		}

		g.Go(func() error {
			defer func() { <-sem }() // release semaphore slot on return

			results[i] = runRule(gctx, inv, rule)
			return nil // check failures become indeterminate markers, never worker errors
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		findings      []models.Finding
		indeterminate []models.IndeterminateCheck
	)
	for _, res := range results {
		if res.finding != nil {
			findings = append(findings, *res.finding)
		}
		if res.indeterminate != nil {
			indeterminate = append(indeterminate, *res.indeterminate)
		}
	}
	return buildLoggingReport(opts, findings, indeterminate, e.policy), nil
}

// runRule executes one check in isolation. A check that returns an error
// or panics becomes an indeterminate marker; it must never abort the
// remaining catalog.
func runRule(ctx context.Context, inv gcpinventory.Accessor, rule rules.Rule) (res ruleResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ruleResult{indeterminate: &models.IndeterminateCheck{
				RuleID: rule.ID(),
				Title:  rule.Title(),
				Cause:  fmt.Sprintf("panic: %v", r),
			}}
		}
	}()

	finding, err := rule.Check(ctx, inv)
	if err != nil {
		ind := &models.IndeterminateCheck{
			RuleID: rule.ID(),
			Title:  rule.Title(),
			Cause:  err.Error(),
		}
		var qe *gcpinventory.QueryError
		if errors.As(err, &qe) && qe.Scope != (models.Scope{}) {
			ind.Scope = qe.Scope.String()
		}
		return ruleResult{indeterminate: ind}
	}
	return ruleResult{finding: finding}
}

// buildLoggingReport assembles the final AuditReport for a logging audit.
func buildLoggingReport(
	opts AuditOptions,
	findings []models.Finding,
	indeterminate []models.IndeterminateCheck,
	policyCfg *policy.PolicyConfig,
) *models.AuditReport {
	findings = policy.ApplyPolicy(findings, "logging", policyCfg)
	return &models.AuditReport{
		ReportID:      newReportID(),
		GeneratedAt:   time.Now().UTC(),
		AuditType:     string(AuditTypeLogging),
		AssetID:       opts.AssetID,
		AssetName:     opts.AssetName,
		Summary:       computeSummary(findings, indeterminate),
		Findings:      findings,
		Indeterminate: indeterminate,
	}
}
