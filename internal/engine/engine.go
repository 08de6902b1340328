package engine

import (
	"context"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// AuditType identifies the category of audit to run.
type AuditType string

const (
	AuditTypeLogging AuditType = "logging"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatTable ReportFormat = "table"
)

// AuditOptions configures a single audit run.
// It is the sole input to Engine.RunAudit.
type AuditOptions struct {
	// AuditType selects the audit module (e.g. "logging").
	AuditType AuditType

	// AssetID identifies the audited estate in the resulting report.
	// Required: findings are assigned to this asset downstream.
	AssetID string

	// AssetName is an optional display name for the asset.
	AssetName string

	// Concurrency bounds how many checks run in parallel. Defaults to
	// defaultRuleWorkers when zero or negative.
	Concurrency int

	// ReportFormat controls how the CLI renders the returned report.
	ReportFormat ReportFormat
}

// Engine is the central orchestration interface.
// It coordinates inventory access, rule evaluation, and report assembly.
//
// Engine must not call Google APIs directly; every cloud read is delegated
// to the Accessor, and every judgment to the registered rules.
type Engine interface {
	RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error)
}
