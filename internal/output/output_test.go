// Package output provides formatters for odoosentry reports.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/odoosentry/internal/types"
)

func injectionReport() *types.Report {
	report := types.NewReport("0.1.0", types.CheckInjection)
	report.AddResult(types.NewFileResult("models/sale.py", []types.Finding{
		{
			File:     "models/sale.py",
			RuleID:   "SQL002",
			Severity: types.SeverityCritical,
			Message:  "CRITICAL: f-string used in SQL execute() call. This is a SQL injection vulnerability!",
		},
		{
			File:     "models/sale.py",
			Line:     12,
			RuleID:   "SQL101",
			Severity: types.SeverityCritical,
			Message:  "Potential SQL injection: SQL string uses concatenation or f-string. Use parameterized queries instead.",
		},
	}))
	report.AddResult(types.SkippedResult("tests/test_sale.py"))
	report.AddResult(types.NewFileResult("models/partner.py", nil))
	report.AddResult(types.NewFileResult("models/gone.py", []types.Finding{
		{File: "models/gone.py", Severity: types.SeverityError, Message: "Error analyzing file: file does not exist"},
	}))
	return report
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"", &TextFormatter{}},
		{"text", &TextFormatter{}},
		{"json", &JSONFormatter{}},
		{"sarif", &SARIFFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ForFormat(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}

	_, err := ForFormat("xml")
	assert.EqualError(t, err, "unknown format: xml (use text, json, or sarif)")
}

func TestTextFormatter_Injection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter().Format(&buf, injectionReport()))

	assert.Equal(t,
		"❌ models/sale.py: CRITICAL: f-string used in SQL execute() call. This is a SQL injection vulnerability!\n"+
			"❌ models/sale.py:12: Potential SQL injection: SQL string uses concatenation or f-string. Use parameterized queries instead.\n"+
			"❌ models/gone.py: Error analyzing file: file does not exist\n",
		buf.String())
}

func TestTextFormatter_SQL(t *testing.T) {
	report := types.NewReport("0.1.0", types.CheckSQL)
	report.AddResult(types.NewFileResult("data/ok.sql", nil))
	report.AddResult(types.NewFileResult("data/bad.sql", []types.Finding{
		{File: "data/bad.sql", Line: 4, Statement: 2, RuleID: "SQL201", Severity: types.SeverityWarning,
			Message: "Potentially dangerous pattern 'exec(' found"},
	}))

	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter().Format(&buf, report))

	assert.Equal(t,
		"✅ data/ok.sql: SQL syntax OK\n"+
			"❌ data/bad.sql:2: Potentially dangerous pattern 'exec(' found\n",
		buf.String())
}

func TestTextFormatter_Module(t *testing.T) {
	report := types.NewReport("0.1.0", types.CheckModule)
	report.AddResult(types.NewFileResult("addons/sale_ext/__manifest__.py", nil))
	report.AddResult(types.NewFileResult("addons/stock_ext/__manifest__.py", []types.Finding{
		{File: "addons/stock_ext/__manifest__.py", RuleID: "MOD001", Severity: types.SeverityError,
			Message: "Missing required keys: {'license'}"},
		{File: "addons/stock_ext", RuleID: "MOD101", Severity: types.SeverityError,
			Message: "Missing required file: LICENSE"},
	}))

	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter().Format(&buf, report))

	assert.Equal(t,
		"✅ Module sale_ext is Odoo compliant\n"+
			"\n❌ Validation failed for stock_ext (Odoo):\n"+
			"  - Missing required keys: {'license'}\n"+
			"  - Missing required file: LICENSE\n",
		buf.String())
}

func TestTextFormatter_AllSafe(t *testing.T) {
	report := types.NewReport("0.1.0", types.CheckInjection)
	report.AddResult(types.NewFileResult("models/partner.py", nil))

	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter().Format(&buf, report))
	assert.Empty(t, buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, injectionReport()))

	var parsed types.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Equal(t, "0.1", parsed.SchemaVersion)
	assert.Equal(t, "0.1.0", parsed.ToolVersion)
	assert.Equal(t, types.CheckInjection, parsed.Check)
	assert.False(t, parsed.Passed)
	require.Len(t, parsed.Files, 4)
	assert.True(t, parsed.Files[1].Skipped)
	assert.True(t, parsed.Files[2].Safe)
	assert.Equal(t, 12, parsed.Files[0].Findings[1].Line)
	assert.Equal(t, "SQL101", parsed.Files[0].Findings[1].RuleID)
}

func TestJSONFormatter_NoHTMLEscape(t *testing.T) {
	report := types.NewReport("0.1.0", types.CheckSQL)
	report.AddResult(types.NewFileResult("a.sql", []types.Finding{
		{File: "a.sql", Statement: 1, Severity: types.SeverityWarning, Message: "Potentially dangerous pattern '<script>' found"},
	}))

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, report))
	assert.Contains(t, buf.String(), "'<script>'")
}

func TestSARIFFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSARIFFormatter().Format(&buf, injectionReport()))

	var parsed struct {
		Schema  string `json:"$schema"`
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region *struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Contains(t, parsed.Schema, "sarif")
	assert.Equal(t, "2.1.0", parsed.Version)
	require.Len(t, parsed.Runs, 1)

	run := parsed.Runs[0]
	assert.Equal(t, "odoosentry", run.Tool.Driver.Name)
	assert.Equal(t, "0.1.0", run.Tool.Driver.Version)
	require.Len(t, run.Results, 3)

	assert.Equal(t, "SQL002", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Nil(t, run.Results[0].Locations[0].PhysicalLocation.Region)

	assert.Equal(t, "SQL101", run.Results[1].RuleID)
	require.NotNil(t, run.Results[1].Locations[0].PhysicalLocation.Region)
	assert.Equal(t, 12, run.Results[1].Locations[0].PhysicalLocation.Region.StartLine)

	assert.Equal(t, "injection/error", run.Results[2].RuleID)
	assert.Equal(t, "models/gone.py", run.Results[2].Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestSeverityToLevel(t *testing.T) {
	assert.Equal(t, "error", severityToLevel(types.SeverityCritical))
	assert.Equal(t, "error", severityToLevel(types.SeverityError))
	assert.Equal(t, "warning", severityToLevel(types.SeverityWarning))
	assert.Equal(t, "none", severityToLevel(types.Severity("other")))
}

func TestFallbackRuleID(t *testing.T) {
	assert.Equal(t, "sql/error", fallbackRuleID(types.CheckSQL))
	assert.Equal(t, "odoosentry/error", fallbackRuleID(""))
}
