package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudtriage/gcpaudit/internal/policy"
	gcpcommon "github.com/cloudtriage/gcpaudit/internal/providers/gcp/common"
	gcpinventory "github.com/cloudtriage/gcpaudit/internal/providers/gcp/inventory"
	loggingpack "github.com/cloudtriage/gcpaudit/internal/rulepacks/logging"
)

// DoctorResult is the structured output of gcpaudit doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable
// table (default).
type DoctorResult struct {
	GCP struct {
		CredentialsOK     bool   `json:"credentials_ok"`
		CredentialProject string `json:"credential_project,omitempty"`
		ProjectsOK        bool   `json:"projects_ok"`
		ProjectCount      int    `json:"project_count"`
		Error             string `json:"error,omitempty"`
	} `json:"gcp"`

	Policy struct {
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

// accessorFactory builds an inventory accessor from an initialised service
// set. The indirection lets diagnostics run without real Google API handles.
type accessorFactory func(*gcpcommon.ServiceSet) gcpinventory.Accessor

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			credentials, _ := cmd.Flags().GetString("credentials")
			result, err := runDoctor(
				context.Background(),
				gcpcommon.NewDefaultGCPClientProvider(credentials, ""),
				func(s *gcpcommon.ServiceSet) gcpinventory.Accessor {
					return gcpinventory.NewDefaultAccessor(s)
				},
				cmd.OutOrStdout(),
				format,
			)
			if err != nil {
				// Rendering failure; let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main.go's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("credentials", "", "Service account key file (default: application default credentials)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy; runDoctor itself never returns an error for an
// unhealthy result so that no error text leaks to callers (such as main).
func runDoctor(ctx context.Context, provider gcpcommon.GCPClientProvider, newAccessor accessorFactory, w io.Writer, format string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, provider, newAccessor)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a
// DoctorResult. It performs no rendering; callers decide how to present
// the result.
func collectDoctorResult(ctx context.Context, provider gcpcommon.GCPClientProvider, newAccessor accessorFactory) DoctorResult {
	var result DoctorResult

	// GCP: credential resolution, then a project listing probe. The probe
	// exercises the same Resource Manager and Service Usage calls the
	// audit's scope enumeration performs.
	services, err := provider.Services(ctx)
	if err != nil {
		result.GCP.Error = err.Error()
	} else {
		result.GCP.CredentialsOK = true
		result.GCP.CredentialProject = services.CredentialProjectID
		projects, err := newAccessor(services).ListLoggingEnabledProjects(ctx)
		if err != nil {
			result.GCP.Error = err.Error()
		} else {
			result.GCP.ProjectsOK = true
			result.GCP.ProjectCount = len(projects)
		}
	}

	// Policy: stat, load, validate (file is optional).
	_, statErr := os.Stat("./" + defaultPolicyFile)
	if statErr == nil {
		result.Policy.Present = true
		cfg, loadErr := policy.LoadPolicy("./" + defaultPolicyFile)
		if loadErr != nil {
			result.Policy.Errors = []string{loadErr.Error()}
		} else {
			errs := policy.Validate(cfg, doctorAllRuleIDs())
			if len(errs) == 0 {
				result.Policy.Valid = true
			} else {
				for _, e := range errs {
					result.Policy.Errors = append(result.Policy.Errors, e.Error())
				}
			}
		}
	} else if !os.IsNotExist(statErr) {
		// Stat failed for a reason other than absence; report the file as
		// present but unreadable.
		result.Policy.Present = true
		result.Policy.Errors = []string{statErr.Error()}
	}

	result.OverallHealthy = result.GCP.CredentialsOK &&
		result.GCP.ProjectsOK &&
		(!result.Policy.Present || result.Policy.Valid)

	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nGCP:")
	if !result.GCP.CredentialsOK {
		doctorPrint(w, "Credentials", "FAIL", result.GCP.Error)
		doctorPrint(w, "Projects API", "FAIL", "skipped")
	} else {
		if result.GCP.CredentialProject != "" {
			doctorPrint(w, "Credentials", "OK", "Project: "+result.GCP.CredentialProject)
		} else {
			doctorPrint(w, "Credentials", "OK", "")
		}
		if result.GCP.ProjectsOK {
			doctorPrint(w, "Projects API", "OK", fmt.Sprintf("%d logging-enabled project(s)", result.GCP.ProjectCount))
		} else {
			doctorPrint(w, "Projects API", "FAIL", result.GCP.Error)
		}
	}

	fmt.Fprintln(w, "\nPolicy:")
	if !result.Policy.Present {
		doctorPrint(w, defaultPolicyFile+" present", "Not found (optional)", "")
	} else {
		doctorPrint(w, defaultPolicyFile+" present", "YES", "")
		if result.Policy.Valid {
			doctorPrint(w, "Policy valid", "OK", "")
		} else {
			for _, e := range result.Policy.Errors {
				doctorPrint(w, "Policy valid", "FAIL", e)
			}
		}
	}
}

// doctorAllRuleIDs returns the union of all known rule IDs from every rule pack.
func doctorAllRuleIDs() []string {
	var ids []string
	for _, r := range loggingpack.New() {
		ids = append(ids, r.ID())
	}
	return ids
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
