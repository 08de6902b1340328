package policy

import (
	"github.com/cloudtriage/gcpaudit/internal/models"
)

func ApplyPolicy(findings []models.Finding, domain string, cfg *PolicyConfig) []models.Finding {
	if cfg == nil {
		return findings
	}

	dcfg, hasDomain := cfg.Domains[domain]

	// Domain-level disable
	if hasDomain && !dcfg.Enabled {
		return []models.Finding{}
	}

	var minSeverity models.Severity
	if hasDomain && dcfg.MinSeverity != "" {
		if floor, ok := models.ParseSeverity(dcfg.MinSeverity); ok {
			minSeverity = floor
		}
	}

	var result []models.Finding

	for _, f := range findings {
		ruleCfg, hasRule := cfg.Rules[f.RuleID]

		// Rule-level disable
		if hasRule && ruleCfg.Enabled != nil && !*ruleCfg.Enabled {
			continue
		}

		// Severity override
		if hasRule && ruleCfg.Severity != "" {
			if sev, ok := models.ParseSeverity(ruleCfg.Severity); ok {
				f.Severity = sev
			}
		}

		// Domain severity floor, applied after any override
		if f.Severity < minSeverity {
			continue
		}

		result = append(result, f)
	}

	return result
}
