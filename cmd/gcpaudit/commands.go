package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudtriage/gcpaudit/internal/config"
	"github.com/cloudtriage/gcpaudit/internal/engine"
	"github.com/cloudtriage/gcpaudit/internal/models"
	"github.com/cloudtriage/gcpaudit/internal/output"
	"github.com/cloudtriage/gcpaudit/internal/policy"
	gcpcommon "github.com/cloudtriage/gcpaudit/internal/providers/gcp/common"
	gcpinventory "github.com/cloudtriage/gcpaudit/internal/providers/gcp/inventory"
	"github.com/cloudtriage/gcpaudit/internal/render"
	loggingpack "github.com/cloudtriage/gcpaudit/internal/rulepacks/logging"
	"github.com/cloudtriage/gcpaudit/internal/rules"
	"github.com/cloudtriage/gcpaudit/internal/version"
)

// defaultPolicyFile is the conventional per-repo policy location, checked
// when neither the --policy flag nor the config file names one.
const defaultPolicyFile = "gcpaudit.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gcpaudit",
		Short: "Audit GCP logging and monitoring posture against the CIS benchmark",
	}
	root.AddCommand(newGCPCmd())
	root.AddCommand(newExplainCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newGCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gcp",
		Short: "GCP provider commands",
	}
	cmd.AddCommand(newAuditCmd())
	return cmd
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run an audit against a GCP estate",
	}
	cmd.AddCommand(newLoggingCmd())
	return cmd
}

func newLoggingCmd() *cobra.Command {
	var (
		assetID     string
		assetName   string
		reportFmt   string
		summary     bool
		outputPath  string
		remediation bool
		colored     bool
		settings    auditSettings
	)

	cmd := &cobra.Command{
		Use:   "logging",
		Short: "Audit Cloud Logging and Monitoring configuration (checks 2.1 to 2.11)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if assetID == "" {
				return fmt.Errorf("--asset-id is required")
			}
			fileCfg, err := config.NewDefaultLoader().Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			settings.mergeConfig(fileCfg)
			settings.policyFile = resolvePolicyPath(settings.policyFile)

			policyCfg, err := loadAuditPolicy(settings.policyFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if settings.timeout != "" {
				d, err := time.ParseDuration(settings.timeout)
				if err != nil {
					return fmt.Errorf("invalid timeout %q: %w", settings.timeout, err)
				}
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}

			provider := gcpcommon.NewDefaultGCPClientProvider(settings.credentials, settings.quotaProject)
			services, err := provider.Services(ctx)
			if err != nil {
				return fmt.Errorf("initialise GCP clients: %w", err)
			}
			accessor := gcpinventory.NewDefaultAccessor(services)

			registry := rules.NewDefaultRuleRegistry()
			for _, r := range loggingpack.New() {
				registry.Register(r)
			}

			eng := engine.NewGCPLoggingEngine(accessor, registry, policyCfg)

			opts := engine.AuditOptions{
				AuditType:    engine.AuditTypeLogging,
				AssetID:      assetID,
				AssetName:    assetName,
				Concurrency:  settings.concurrency,
				ReportFormat: engine.ReportFormat(reportFmt),
			}

			report, err := eng.RunAudit(ctx, opts)
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			if outputPath != "" {
				if err := writeReportToFile(outputPath, report); err != nil {
					return err
				}
			}

			switch {
			case summary:
				printSummary(os.Stdout, report)
			case reportFmt == "json":
				if err := printJSON(report); err != nil {
					return err
				}
			default:
				printTable(report, remediation, colored)
			}

			if policy.ShouldFail("logging", report.Findings, policyCfg) {
				// Exit directly: the report was rendered, the gate tripped.
				// Code 2 separates a tripped gate from a failed run.
				fmt.Fprintf(os.Stderr, "fail_on_severity %s reached; failing per policy\n",
					policyCfg.Enforcement["logging"].FailOnSeverity)
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetID, "asset-id", "", "Asset identifier recorded in the report (required)")
	cmd.Flags().StringVar(&assetName, "asset-name", "", "Human-readable asset name recorded in the report")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print compact summary: totals, severity breakdown, top-5 findings by violations")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	cmd.Flags().BoolVar(&remediation, "remediation", false, "Include the remediation column in table output")
	cmd.Flags().BoolVar(&colored, "color", false, "Colorize severity cells in table output")
	cmd.Flags().IntVar(&settings.concurrency, "concurrency", 0, "Checks evaluated in parallel (default: engine default)")
	cmd.Flags().StringVar(&settings.timeout, "timeout", "", `Abort the audit after this duration, e.g. "5m" (default: no timeout)`)
	cmd.Flags().StringVar(&settings.policyFile, "policy", "", "Policy file tuning check severities and enablement (default: ./gcpaudit.yaml if present)")
	cmd.Flags().StringVar(&settings.credentials, "credentials", "", "Service account key file (default: application default credentials)")
	cmd.Flags().StringVar(&settings.quotaProject, "quota-project", "", "Project billed for API quota (default: the credential's project)")

	return cmd
}

// auditSettings holds the audit inputs that can come from either a flag or
// the config file. Flags win; the config file supplies a value only where
// the flag was left at its zero value.
type auditSettings struct {
	concurrency  int
	timeout      string
	policyFile   string
	credentials  string
	quotaProject string
}

// mergeConfig fills unset settings from cfg.
func (s *auditSettings) mergeConfig(cfg *config.Config) {
	if s.concurrency == 0 {
		s.concurrency = cfg.Audit.Concurrency
	}
	if s.timeout == "" {
		s.timeout = cfg.Audit.Timeout
	}
	if s.policyFile == "" {
		s.policyFile = cfg.Audit.PolicyFile
	}
	if s.credentials == "" {
		s.credentials = cfg.GCP.CredentialsFile
	}
	if s.quotaProject == "" {
		s.quotaProject = cfg.GCP.QuotaProjectID
	}
}

// resolvePolicyPath returns path unchanged when set, otherwise the
// conventional per-repo policy file when one exists in the working
// directory. An empty return means no policy applies.
func resolvePolicyPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(defaultPolicyFile); err == nil {
		return defaultPolicyFile
	}
	return ""
}

// loadAuditPolicy loads and validates the policy file at path. A nil config
// with nil error means no policy applies (empty path).
func loadAuditPolicy(path string) (*policy.PolicyConfig, error) {
	if path == "" {
		return nil, nil
	}
	cfg, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("load policy %q: %w", path, err)
	}
	if errs := policy.Validate(cfg, loggingRuleIDs()); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("policy file %q failed validation:\n  %s", path, strings.Join(msgs, "\n  "))
	}
	return cfg, nil
}

// loggingRuleIDs returns the check IDs of the logging catalog.
func loggingRuleIDs() []string {
	var ids []string
	for _, r := range loggingpack.New() {
		ids = append(ids, r.ID())
	}
	return ids
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func newExplainCmd() *cobra.Command {
	var (
		reportPath string
		checkID    string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain one check's result from a saved report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportPath == "" || checkID == "" {
				return fmt.Errorf("--report and --check are required")
			}
			report, err := readReportFile(reportPath)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			f := render.FindFindingByRule(report.Findings, checkID)
			if format == "json" {
				return render.WriteExplainJSON(w, f, checkID)
			}
			if f != nil {
				render.RenderFindingExplanation(w, *f)
				return nil
			}
			if ind := render.FindIndeterminateByRule(report.Indeterminate, checkID); ind != nil {
				render.RenderIndeterminateExplanation(w, *ind)
				return nil
			}
			fmt.Fprintf(w, "No finding for check %s.\n", checkID)
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Path to a JSON report saved with --output")
	cmd.Flags().StringVar(&checkID, "check", "", `Check ID to explain, e.g. "2.4"`)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

// readReportFile loads a previously saved JSON report from path.
func readReportFile(path string) (*models.AuditReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report file %q: %w", path, err)
	}
	var report models.AuditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report file %q: %w", path, err)
	}
	return &report, nil
}

// printJSON writes the report as indented JSON to stdout.
func printJSON(report *models.AuditReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *models.AuditReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}

// printSummary renders a compact summary view to w:
//   - Asset / report header
//   - Finding, violation, and indeterminate totals
//   - Per-severity finding counts
//   - Top 5 findings ranked by violation count
//   - One line per indeterminate check
//
// It reuses the already-computed AuditReport; no engine logic is duplicated.
func printSummary(w io.Writer, report *models.AuditReport) {
	s := report.Summary

	fmt.Fprintf(w, "Asset:   %s\n", report.AssetID)
	if report.AssetName != "" {
		fmt.Fprintf(w, "Name:    %s\n", report.AssetName)
	}
	fmt.Fprintf(w, "Report:  %s\n", report.ReportID)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Findings:        %d\n", s.TotalFindings)
	fmt.Fprintf(w, "Total Violations:      %d\n", s.TotalViolations)
	fmt.Fprintf(w, "Indeterminate Checks:  %d\n", s.IndeterminateChecks)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Severity Breakdown")
	fmt.Fprintf(w, "  %-10s  %d\n", "CRITICAL", s.CriticalFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "HIGH", s.HighFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "MEDIUM", s.MediumFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "LOW", s.LowFindings)

	top := topFindingsByViolations(report.Findings, 5)
	if len(top) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top Findings by Violations")
		fmt.Fprintf(w, "  %-8s  %-10s  %-10s  %s\n", "RULE ID", "SEVERITY", "VIOLATIONS", "TITLE")
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 88))
		for _, f := range top {
			fmt.Fprintf(w, "  %-8s  %-10s  %-10d  %s\n",
				f.RuleID, f.Severity.Label(), len(f.Details), output.ShortenMessage(f.Title, 56))
		}
	}

	if len(report.Indeterminate) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Indeterminate Checks")
		for _, ind := range report.Indeterminate {
			if ind.Scope != "" {
				fmt.Fprintf(w, "  %-8s  [%s] %s\n", ind.RuleID, ind.Scope, ind.Cause)
			} else {
				fmt.Fprintf(w, "  %-8s  %s\n", ind.RuleID, ind.Cause)
			}
		}
	}
}

// topFindingsByViolations returns up to n findings from the provided slice,
// ordered by violation count descending. Ties keep report order, so the
// output is deterministic. The original slice is not modified.
func topFindingsByViolations(findings []models.Finding, n int) []models.Finding {
	sorted := make([]models.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Details) > len(sorted[j].Details)
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// printTable renders a one-line run header followed by the findings table
// and any indeterminate checks.
func printTable(report *models.AuditReport, remediation, colored bool) {
	s := report.Summary
	fmt.Printf(
		"Asset: %-24s  Findings: %d  Violations: %d  Indeterminate: %d\n",
		report.AssetID,
		s.TotalFindings,
		s.TotalViolations,
		s.IndeterminateChecks,
	)

	fmt.Println()
	output.RenderTable(os.Stdout, report.Findings, output.TableOptions{
		Colored:            colored,
		IncludeRemediation: remediation,
	})

	if len(report.Indeterminate) > 0 {
		fmt.Println()
		fmt.Printf("%d check(s) could not be evaluated:\n", len(report.Indeterminate))
		for _, ind := range report.Indeterminate {
			if ind.Scope != "" {
				fmt.Printf("  %-8s  [%s] %s\n", ind.RuleID, ind.Scope, ind.Cause)
			} else {
				fmt.Printf("  %-8s  %s\n", ind.RuleID, ind.Cause)
			}
		}
	}
}
