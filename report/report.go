package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/S-Chan/cspm/assess"
)

// Format selects how findings are printed
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat accepts a format name in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (want json or table)", s)
	}
}

var severityColors = map[assess.Severity]*color.Color{
	assess.SeverityCritical: color.New(color.FgRed, color.Bold),
	assess.SeverityHigh:     color.New(color.FgRed),
	assess.SeverityMedium:   color.New(color.FgYellow),
	assess.SeverityLow:      color.New(color.FgCyan),
}

// Write prints findings to w in the given format
func Write(w io.Writer, findings []assess.Finding, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, findings)
	case FormatTable:
		return writeTable(w, findings)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(w io.Writer, findings []assess.Finding) error {
	if findings == nil {
		findings = []assess.Finding{}
	}
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling findings to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeTable keeps severity in the last column so color escapes do not
// disturb tabwriter alignment.
func writeTable(w io.Writer, findings []assess.Finding) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "RESOURCE\tISSUE\tSEVERITY")
	fmt.Fprintln(tw, "--------\t-----\t--------")
	for _, f := range findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", displayResource(f.Resource), f.Issue, colorSeverity(f.Severity))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := assess.Summarize(findings)
	parts := make([]string, 0, len(assess.Severities))
	for i := len(assess.Severities) - 1; i >= 0; i-- {
		sev := assess.Severities[i]
		parts = append(parts, fmt.Sprintf("%s: %d", colorSeverity(sev), summary.Counts[sev]))
	}
	_, err := fmt.Fprintf(w, "\nSummary: %d findings (%s)\n", summary.Total, strings.Join(parts, ", "))
	return err
}

func colorSeverity(sev assess.Severity) string {
	if c, ok := severityColors[sev]; ok {
		return c.Sprint(string(sev))
	}
	return string(sev)
}

func displayResource(id string) string {
	if id == "" {
		return "<unnamed>"
	}
	return id
}
