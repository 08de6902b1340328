package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/cloudtriage/gcpaudit/internal/models"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls which columns RenderTable renders and how severity is coloured.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeRemediation adds a REMEDIATION column when any finding carries
	// remediation text.
	IncludeRemediation bool
}

// ColorSeverity wraps a severity label with ANSI codes when colored is true.
// When colored is false the label is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	s := sev.Label()
	if !colored {
		return s
	}
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed + s + ansiReset
	case models.SeverityHigh:
		return ansiRed + s + ansiReset
	case models.SeverityMedium:
		return ansiYellow + s + ansiReset
	case models.SeverityLow:
		return ansiBlue + s + ansiReset
	default:
		return s
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// hasRemediation reports whether any finding carries remediation text.
func hasRemediation(findings []models.Finding) bool {
	for _, f := range findings {
		if f.Remediation != "" {
			return true
		}
	}
	return false
}

// severityCell returns the severity label padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := sev.Label()
	if !colored {
		return fmt.Sprintf("%-*s", width, text)
	}
	var code string
	switch sev {
	case models.SeverityCritical:
		code = ansiBoldRed
	case models.SeverityHigh:
		code = ansiRed
	case models.SeverityMedium:
		code = ansiYellow
	case models.SeverityLow:
		code = ansiBlue
	default:
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for ID/label columns.
// A single-char ellipsis replaces the last byte when truncation occurs.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// RenderTable writes a formatted findings table to w, one row per check.
// The VIOLATIONS column counts the finding's detail lines; the separator
// line width is derived from the header row so all rows align correctly.
//
// Column order:
//
//	RULE ID  SEVERITY  VIOLATIONS  TITLE  [REMEDIATION]
func RenderTable(w io.Writer, findings []models.Finding, opts TableOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	showRemediation := opts.IncludeRemediation && hasRemediation(findings)

	// Fixed column display widths.
	const (
		wRule       = 8
		wSeverity   = 10
		wViolations = 10
		wTitle      = 70
		wRemedy     = 60
	)

	// Build the header row.
	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wRule, "RULE ID"))
	hb.WriteString(fmt.Sprintf("  %-*s", wSeverity, "SEVERITY"))
	hb.WriteString(fmt.Sprintf("  %-*s", wViolations, "VIOLATIONS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wTitle, "TITLE"))
	if showRemediation {
		hb.WriteString("  REMEDIATION")
	}
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, f := range findings {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wRule, truncateField(f.RuleID, wRule)))
		rb.WriteString("  " + severityCell(f.Severity, wSeverity, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*d", wViolations, len(f.Details)))
		rb.WriteString(fmt.Sprintf("  %-*s", wTitle, ShortenMessage(f.Title, wTitle)))
		if showRemediation {
			rb.WriteString("  " + ShortenMessage(f.Remediation, wRemedy))
		}
		fmt.Fprintln(w, rb.String())
	}
}
