package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudtriage/gcpaudit/internal/models"
	gcpinventory "github.com/cloudtriage/gcpaudit/internal/providers/gcp/inventory"
)

// sinkStorageDestPrefix marks a sink destination that is a storage bucket.
const sinkStorageDestPrefix = "storage.googleapis.com/"

// BucketRetentionRule implements check 2.3. Log buckets that lack a locked
// retention policy can have their audit trail shortened or deleted by
// anyone with bucket write access. The check collects every storage bucket
// any sink exports to, at all three scope levels, and probes each distinct
// bucket's retention state once.
//
// The probe yields the retention presentation as text and the probe output
// is classified by substring: a bucket may be missing a policy, carry an
// unlocked one, or (in pathological probe output) both, in which case both
// lines are emitted for the same bucket.
type BucketRetentionRule struct {
	ruleInfo
}

// NewBucketRetentionRule returns the log bucket retention check.
func NewBucketRetentionRule() *BucketRetentionRule {
	return &BucketRetentionRule{ruleInfo{
		id:       "2.3",
		title:    "2.3 [Level 1] Ensure that retention policies on log buckets are configured using Bucket Lock (Scored)",
		severity: models.SeverityHigh,
		remediation: "Configure a retention policy on every log sink bucket and lock it with Bucket Lock " +
			"so the audit trail cannot be shortened.",
	}}
}

// Check gathers sink bucket destinations from organizations, folders, and
// logging-enabled projects, then probes each distinct bucket in first-seen
// order.
func (r *BucketRetentionRule) Check(ctx context.Context, inv gcpinventory.Accessor) (*models.Finding, error) {
	var scopes []models.Scope
	orgs, err := inv.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	for _, org := range orgs {
		scopes = append(scopes, models.OrganizationScope(org))
	}
	folders, err := inv.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		scopes = append(scopes, models.FolderScope(folder))
	}
	projects, err := inv.ListLoggingEnabledProjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, projectID := range projects {
		scopes = append(scopes, models.ProjectScope(projectID))
	}

	var buckets []string
	seen := make(map[string]struct{})
	for _, scope := range scopes {
		sinks, err := inv.ListLogSinks(ctx, scope)
		if err != nil {
			return nil, err
		}
		for _, s := range sinks {
			if !strings.HasPrefix(s.Destination, sinkStorageDestPrefix) {
				continue
			}
			bucket := "gs://" + strings.TrimPrefix(s.Destination, sinkStorageDestPrefix)
			if _, ok := seen[bucket]; ok {
				continue
			}
			seen[bucket] = struct{}{}
			buckets = append(buckets, bucket)
		}
	}

	var details []string
	for _, bucket := range buckets {
		probe, err := inv.ProbeBucketRetention(ctx, bucket)
		if err != nil {
			return nil, err
		}
		if strings.Contains(probe, "has no Retention Policy") {
			details = append(details, fmt.Sprintf("No retention policy is configured for log bucket [%s]", bucket))
		}
		if strings.Contains(probe, "Retention Policy (UNLOCKED)") {
			details = append(details, fmt.Sprintf("Retention policy is not locked for log bucket [%s]", bucket))
		}
	}
	return r.newFinding(details), nil
}
