package policy

import (
	"github.com/cloudtriage/gcpaudit/internal/models"
)

// ShouldFail reports whether any finding in findings has a severity at or above
// the configured fail_on_severity threshold for the given domain.
//
// It returns false when:
//   - cfg is nil (no policy loaded)
//   - no enforcement block is configured for domain
//   - fail_on_severity is empty or an unrecognised value
//   - findings is empty
//
// It returns true when at least one finding has a severity at or above the
// configured threshold on the numeric scale, 5 (CRITICAL) down to 1 (INFO).
func ShouldFail(domain string, findings []models.Finding, cfg *PolicyConfig) bool {
	if cfg == nil {
		return false
	}
	enfCfg, ok := cfg.Enforcement[domain]
	if !ok || enfCfg.FailOnSeverity == "" {
		return false
	}
	threshold, ok := models.ParseSeverity(enfCfg.FailOnSeverity)
	if !ok {
		return false
	}
	for _, f := range findings {
		if f.Severity >= threshold {
			return true
		}
	}
	return false
}
