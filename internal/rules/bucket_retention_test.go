package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

func TestBucketRetentionRule_ID(t *testing.T) {
	r := NewBucketRetentionRule()
	if r.ID() != "2.3" {
		t.Errorf("expected 2.3, got %s", r.ID())
	}
}

func TestBucketRetentionRule_UnlockedPolicy_Flagged(t *testing.T) {
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"project/p1": {{Name: "all", Filter: models.EmptySinkFilter, Destination: "storage.googleapis.com/p1-logs"}},
		},
		probes: map[string]string{
			"gs://p1-logs": "Retention Policy (UNLOCKED):\n  Duration: 90 Day(s)\n",
		},
	}

	finding, err := r.Check(context.Background(), inv)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if finding == nil {
		t.Fatal("expected a finding, got nil")
	}
	want := "Retention policy is not locked for log bucket [gs://p1-logs]"
	if len(finding.Details) != 1 || finding.Details[0] != want {
		t.Errorf("details = %v; want [%s]", finding.Details, want)
	}
}

func TestBucketRetentionRule_NoPolicy_Flagged(t *testing.T) {
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"project/p1": {{Name: "all", Filter: models.EmptySinkFilter, Destination: "storage.googleapis.com/p1-logs"}},
		},
		probes: map[string]string{
			"gs://p1-logs": "gs://p1-logs/ has no Retention Policy.",
		},
	}

	finding, err := r.Check(context.Background(), inv)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if finding == nil {
		t.Fatal("expected a finding, got nil")
	}
	want := "No retention policy is configured for log bucket [gs://p1-logs]"
	if len(finding.Details) != 1 || finding.Details[0] != want {
		t.Errorf("details = %v; want [%s]", finding.Details, want)
	}
}

func TestBucketRetentionRule_BothSubstrings_TwoLines(t *testing.T) {
	// Probe output carrying both markers yields two independent lines for
	// the same bucket, no-policy first.
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"project/p1": {{Name: "all", Filter: models.EmptySinkFilter, Destination: "storage.googleapis.com/p1-logs"}},
		},
		probes: map[string]string{
			"gs://p1-logs": "gs://p1-logs/ has no Retention Policy.\nRetention Policy (UNLOCKED):\n",
		},
	}

	finding, err := r.Check(context.Background(), inv)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if finding == nil {
		t.Fatal("expected a finding, got nil")
	}
	want := []string{
		"No retention policy is configured for log bucket [gs://p1-logs]",
		"Retention policy is not locked for log bucket [gs://p1-logs]",
	}
	if len(finding.Details) != len(want) {
		t.Fatalf("expected %d detail lines, got %d: %v", len(want), len(finding.Details), finding.Details)
	}
	for i := range want {
		if finding.Details[i] != want[i] {
			t.Errorf("detail[%d] = %q; want %q", i, finding.Details[i], want[i])
		}
	}
}

func TestBucketRetentionRule_LockedPolicy_NotFlagged(t *testing.T) {
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"project/p1": {{Name: "all", Filter: models.EmptySinkFilter, Destination: "storage.googleapis.com/p1-logs"}},
		},
		probes: map[string]string{
			"gs://p1-logs": "Retention Policy (LOCKED):\n  Duration: 365 Day(s)\n",
		},
	}

	finding, err := r.Check(context.Background(), inv)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if finding != nil {
		t.Errorf("expected no finding for a locked policy, got %v", finding.Details)
	}
}

func TestBucketRetentionRule_NonStorageDestination_NotProbed(t *testing.T) {
	// Sinks exporting to BigQuery or Pub/Sub are outside this check.
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"project/p1": {{Name: "bq", Filter: models.EmptySinkFilter, Destination: "bigquery.googleapis.com/projects/p1/datasets/logs"}},
		},
	}

	finding, err := r.Check(context.Background(), inv)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if finding != nil {
		t.Errorf("expected no finding, got %v", finding.Details)
	}
	if inv.probeCallCount() != 0 {
		t.Errorf("expected 0 probes, got %d", inv.probeCallCount())
	}
}

func TestBucketRetentionRule_DuplicateDestination_ProbedOnce(t *testing.T) {
	// The same bucket referenced by sinks at different scopes is probed a
	// single time and flagged a single time.
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		orgs:     []string{"111111"},
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"organization/111111": {{Name: "all", Filter: models.EmptySinkFilter, Destination: "storage.googleapis.com/shared-logs"}},
			"project/p1":          {{Name: "all", Filter: models.EmptySinkFilter, Destination: "storage.googleapis.com/shared-logs"}},
		},
		probes: map[string]string{
			"gs://shared-logs": "gs://shared-logs/ has no Retention Policy.",
		},
	}

	finding, err := r.Check(context.Background(), inv)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if inv.probeCallCount() != 1 {
		t.Errorf("expected 1 probe, got %d", inv.probeCallCount())
	}
	if finding == nil {
		t.Fatal("expected a finding, got nil")
	}
	if len(finding.Details) != 1 {
		t.Errorf("expected 1 detail line, got %d: %v", len(finding.Details), finding.Details)
	}
}

func TestBucketRetentionRule_AllScopesCollected(t *testing.T) {
	// Buckets are gathered from organization, folder, and project sinks,
	// probed in first-seen order.
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		orgs:     []string{"111111"},
		folders:  []string{"222222"},
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"organization/111111": {{Name: "org", Filter: "x", Destination: "storage.googleapis.com/org-logs"}},
			"folder/222222":       {{Name: "folder", Filter: "x", Destination: "storage.googleapis.com/folder-logs"}},
			"project/p1":          {{Name: "proj", Filter: "x", Destination: "storage.googleapis.com/p1-logs"}},
		},
		probes: map[string]string{
			"gs://org-logs":    "gs://org-logs/ has no Retention Policy.",
			"gs://folder-logs": "gs://folder-logs/ has no Retention Policy.",
			"gs://p1-logs":     "gs://p1-logs/ has no Retention Policy.",
		},
	}

	finding, err := r.Check(context.Background(), inv)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if finding == nil {
		t.Fatal("expected a finding, got nil")
	}
	want := []string{
		"No retention policy is configured for log bucket [gs://org-logs]",
		"No retention policy is configured for log bucket [gs://folder-logs]",
		"No retention policy is configured for log bucket [gs://p1-logs]",
	}
	if len(finding.Details) != len(want) {
		t.Fatalf("expected %d detail lines, got %d: %v", len(want), len(finding.Details), finding.Details)
	}
	for i := range want {
		if finding.Details[i] != want[i] {
			t.Errorf("detail[%d] = %q; want %q", i, finding.Details[i], want[i])
		}
	}
}

func TestBucketRetentionRule_ProbeFault_Propagates(t *testing.T) {
	r := NewBucketRetentionRule()
	inv := &fakeAccessor{
		projects: []string{"p1"},
		sinks: map[string][]models.LogSink{
			"project/p1": {{Name: "all", Filter: "x", Destination: "storage.googleapis.com/p1-logs"}},
		},
		errs: map[string]error{"probe": errors.New("storage unavailable")},
	}

	if _, err := r.Check(context.Background(), inv); err == nil {
		t.Fatal("expected an error, got nil")
	}
}
