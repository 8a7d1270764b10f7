// Package sqlcheck checks SQL scripts for dangerous constructs.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package sqlcheck

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/logger"
	"github.com/3leaps/odoosentry/internal/types"
)

// RuleID identifies findings raised for dangerous statement content.
const RuleID = "SQL201"

// DangerousPatterns are matched case-insensitively against every statement,
// in this order.
var DangerousPatterns = []string{
	"exec(",
	"execute(",
	"eval(",
	"';",
	`";`,
}

// Checker checks SQL files.
type Checker struct {
	fs afero.Fs
}

// New creates a checker reading from fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Checker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Checker{fs: fs}
}

// CheckFile reads path and checks it. It never fails; problems reading the
// file are reported as a finding.
func (c *Checker) CheckFile(ctx context.Context, path string) types.FileResult {
	content, err := afero.ReadFile(c.fs, path)
	if err != nil {
		logger.Debug("read failed", zap.String("file", path), zap.Error(err))
		return types.NewFileResult(path, []types.Finding{
			errorFinding(path, "Error parsing SQL: "+err.Error()),
		})
	}
	return c.Check(ctx, path, content)
}

// Check scans every statement of content for dangerous patterns.
func (c *Checker) Check(ctx context.Context, path string, content []byte) types.FileResult {
	if !utf8.Valid(content) {
		return types.NewFileResult(path, []types.Finding{
			errorFinding(path, "File encoding error (expected UTF-8)"),
		})
	}

	stmts := Split(string(content))
	if len(stmts) == 0 {
		return types.NewFileResult(path, []types.Finding{
			errorFinding(path, "Empty or invalid SQL file"),
		})
	}

	var findings []types.Finding
	for _, stmt := range stmts {
		if ctx.Err() != nil {
			return types.NewFileResult(path, []types.Finding{
				errorFinding(path, "Error parsing SQL: "+ctx.Err().Error()),
			})
		}

		text := strings.TrimSpace(stmt.Text)
		if text == "" || strings.HasPrefix(text, "--") {
			continue
		}

		lower := strings.ToLower(text)
		for _, p := range DangerousPatterns {
			if !strings.Contains(lower, p) {
				continue
			}
			findings = append(findings, types.Finding{
				File:      path,
				Line:      stmt.Line,
				Statement: stmt.Index,
				RuleID:    RuleID,
				Severity:  types.SeverityWarning,
				Message:   "Potentially dangerous pattern '" + p + "' found",
			})
		}
	}

	logger.Debug("sql file checked",
		zap.String("file", path),
		zap.Int("statements", len(stmts)),
		zap.Int("findings", len(findings)),
	)
	return types.NewFileResult(path, findings)
}

func errorFinding(path, msg string) types.Finding {
	return types.Finding{
		File:     path,
		Severity: types.SeverityError,
		Message:  msg,
	}
}
