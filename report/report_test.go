package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S-Chan/cspm/assess"
	"github.com/S-Chan/cspm/report"
)

var findings = []assess.Finding{
	{Resource: "public-logs", Issue: "Bucket is public", Severity: assess.SeverityHigh},
	{Resource: "admin", Issue: "Role has FullAccess policies", Severity: assess.SeverityCritical},
	{Resource: "", Issue: "Instance has public IP", Severity: assess.SeverityMedium},
}

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, findings, report.FormatJSON))

	var got []assess.Finding
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, findings, got)
	assert.Contains(t, buf.String(), `"severity": "Critical"`)
}

func TestWrite_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, nil, report.FormatJSON))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, findings, report.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "RESOURCE", "table output should contain the header")
	assert.Contains(t, out, "public-logs")
	assert.Contains(t, out, "Role has FullAccess policies")
	assert.Contains(t, out, "<unnamed>", "empty resource ids should be marked")
	assert.Contains(t, out, "Summary: 3 findings (Critical: 1, High: 1, Medium: 1, Low: 0)")
}

func TestWrite_InvalidFormat(t *testing.T) {
	err := report.Write(&bytes.Buffer{}, findings, "xml")
	assert.Error(t, err, "expected error for invalid output format")
}

func TestParseFormat(t *testing.T) {
	f, err := report.ParseFormat("TABLE")
	require.NoError(t, err)
	assert.Equal(t, report.FormatTable, f)

	f, err = report.ParseFormat(" json ")
	require.NoError(t, err)
	assert.Equal(t, report.FormatJSON, f)

	_, err = report.ParseFormat("yaml")
	assert.Error(t, err)
}
