// Package analyzer provides the SQL injection checking engine for odoosentry.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/3leaps/odoosentry/internal/logger"
	"github.com/3leaps/odoosentry/internal/types"
)

// Test source generators for programmatic fixture creation.

func generateSafeModel() string {
	return `from odoo import models


class SaleReport(models.Model):
    _name = "sale.report.extra"

    def _refresh(self, partner_id):
        self.env.cr.execute(
            "SELECT id FROM sale_order WHERE partner_id = %s",
            (partner_id,),
        )
        return self.env.cr.fetchall()
`
}

func generateFStringModel() string {
	return `from odoo import models


class SaleReport(models.Model):
    def _refresh(self, x):
        self.env.cr.execute(f"SELECT * FROM t WHERE id={x}")
`
}

func newTestEngine(t *testing.T, files map[string]string) *Engine {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return NewInjectionEngine(Options{Fs: fs})
}

func TestEngine_NewEngine(t *testing.T) {
	engine := NewEngine(Options{})

	require.NotNil(t, engine)
	assert.Empty(t, engine.analyzers)
	assert.NotNil(t, engine.fs, "defaults to the OS filesystem")
}

func TestEngine_NewInjectionEngine_Order(t *testing.T) {
	engine := NewInjectionEngine(Options{})

	require.Len(t, engine.analyzers, 2)
	assert.Equal(t, "textual-patterns", engine.analyzers[0].Name())
	assert.Equal(t, "syntax-tree", engine.analyzers[1].Name())
}

func TestEngine_CheckFile_Safe(t *testing.T) {
	engine := newTestEngine(t, map[string]string{"models/sale.py": generateSafeModel()})

	res := engine.CheckFile(context.Background(), "models/sale.py")

	assert.True(t, res.Safe)
	assert.Empty(t, res.Findings)
	assert.Equal(t, "models/sale.py", res.Path)
}

func TestEngine_CheckFile_TextualBeforeStructural(t *testing.T) {
	engine := newTestEngine(t, map[string]string{"models/sale.py": generateFStringModel()})

	res := engine.CheckFile(context.Background(), "models/sale.py")

	assert.False(t, res.Safe)
	require.Len(t, res.Findings, 2)

	assert.Equal(t, "SQL002", res.Findings[0].RuleID)
	assert.Equal(t, 0, res.Findings[0].Line)
	assert.Equal(t, types.SeverityCritical, res.Findings[0].Severity)

	assert.Equal(t, "SQL101", res.Findings[1].RuleID)
	assert.Equal(t, 6, res.Findings[1].Line)
}

func TestEngine_CheckFile_FormatCall(t *testing.T) {
	engine := newTestEngine(t, map[string]string{
		"report.py": "def run(cursor, query, name):\n    cursor.execute(query.format(name))\n",
	})

	res := engine.CheckFile(context.Background(), "report.py")

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "SQL102", res.Findings[0].RuleID)
	assert.Equal(t, 2, res.Findings[0].Line)
}

func TestEngine_CheckFile_PercentOperator(t *testing.T) {
	engine := newTestEngine(t, map[string]string{
		"report.py": "def run(cursor, x):\n" +
			"    cursor.execute(\"SELECT * FROM t WHERE id=%s\" % x)\n" +
			"    _logger.info('done')\n",
	})

	res := engine.CheckFile(context.Background(), "report.py")

	var ids []string
	for _, f := range res.Findings {
		ids = append(ids, f.RuleID)
	}
	assert.Equal(t, []string{"SQL001", "SQL101"}, ids)
}

func TestEngine_CheckFile_PercentOperatorAlone(t *testing.T) {
	engine := newTestEngine(t, map[string]string{
		"report.py": "cursor.execute(\"SELECT * FROM t WHERE id=%s\" % x)\n",
	})

	res := engine.CheckFile(context.Background(), "report.py")

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "SQL101", res.Findings[0].RuleID)
	assert.Equal(t, 1, res.Findings[0].Line)
}

func TestEngine_CheckFile_UnparseableKeepsTextualFindings(t *testing.T) {
	engine := newTestEngine(t, map[string]string{
		"broken.py": "def broken(:\n    cr.execute(f\"SELECT {x}\")\n",
	})

	res := engine.CheckFile(context.Background(), "broken.py")

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "SQL002", res.Findings[0].RuleID)
}

func TestEngine_CheckFile_InvalidUTF8(t *testing.T) {
	engine := newTestEngine(t, map[string]string{
		"latin1.py": "name = '\xe9t\xe9'\ncr.execute('a' + b)\n",
	})

	res := engine.CheckFile(context.Background(), "latin1.py")

	assert.False(t, res.Safe)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, types.SeverityError, res.Findings[0].Severity)
	assert.Equal(t, "latin1.py: File encoding error (expected UTF-8)", res.Findings[0].String())
}

func TestEngine_CheckFile_Missing(t *testing.T) {
	engine := newTestEngine(t, nil)

	res := engine.CheckFile(context.Background(), "missing.py")

	assert.False(t, res.Safe)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "missing.py", res.Findings[0].File)
	assert.Contains(t, res.Findings[0].Message, "Error analyzing file:")
	assert.Contains(t, res.Findings[0].Message, "missing.py")
}

func TestEngine_CheckFile_Idempotent(t *testing.T) {
	engine := newTestEngine(t, map[string]string{"models/sale.py": generateFStringModel()})

	first := engine.CheckFile(context.Background(), "models/sale.py")
	second := engine.CheckFile(context.Background(), "models/sale.py")

	assert.Equal(t, first, second)
}

type failingAnalyzer struct{}

func (failingAnalyzer) Name() string { return "failing" }

func (failingAnalyzer) Analyze(context.Context, []byte, string) ([]types.Finding, error) {
	return nil, errors.New("boom")
}

func TestEngine_Check_AnalyzerError(t *testing.T) {
	engine := NewEngine(Options{Fs: afero.NewMemMapFs()})
	engine.RegisterAnalyzer(NewPatternAnalyzer())
	engine.RegisterAnalyzer(failingAnalyzer{})

	res := engine.Check(context.Background(), "x.py", []byte("cr.execute('a' + b)\n"))

	require.Len(t, res.Findings, 1, "an analysis error replaces partial findings")
	assert.Equal(t, "x.py: Error analyzing file: boom", res.Findings[0].String())
}

func TestPatternAnalyzer(t *testing.T) {
	a := NewPatternAnalyzer()
	assert.Equal(t, "textual-patterns", a.Name())

	findings, err := a.Analyze(context.Background(), []byte("x = 1\n"), "x.py")
	require.NoError(t, err)
	assert.Empty(t, findings)

	findings, err = a.Analyze(context.Background(), []byte(`cursor.execute(f"SELECT * FROM t WHERE id={x}")`), "x.py")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, types.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "x.py: CRITICAL: f-string used in SQL execute() call. This is a SQL injection vulnerability!",
		findings[0].String())
}

func TestPatternAnalyzer_LogsMatchLine(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	content := []byte("import os\n\ncr.execute('a' + b)\n")
	findings, err := NewPatternAnalyzer().Analyze(context.Background(), content, "x.py")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 0, findings[0].Line)

	entries := logs.FilterMessage("pattern matched").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "SQL003", fields["rule"])
	assert.Equal(t, int64(3), fields["line"])
}
