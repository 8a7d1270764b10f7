// Package cli provides the command-line interface for odoosentry.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/analyzer"
	"github.com/3leaps/odoosentry/internal/logger"
	"github.com/3leaps/odoosentry/internal/manifest"
	"github.com/3leaps/odoosentry/internal/output"
	"github.com/3leaps/odoosentry/internal/sqlcheck"
	"github.com/3leaps/odoosentry/internal/types"
	"github.com/3leaps/odoosentry/internal/worker"
)

// fileChecker checks one path and never fails.
type fileChecker func(ctx context.Context, path string) types.FileResult

// check describes one command.
type check struct {
	name  string
	use   string
	short string
	usage string

	// skip excludes paths from checking. Nil checks every path.
	skip func(path string) bool

	newChecker func(fs afero.Fs) fileChecker
}

var injectionCheck = check{
	name:  types.CheckInjection,
	use:   "injection <file.py>...",
	short: "Check Python files for SQL injection patterns",
	usage: "Usage: odoosentry injection <file1.py> [file2.py ...]",
	skip:  skipInjection,
	newChecker: func(fs afero.Fs) fileChecker {
		return analyzer.NewInjectionEngine(analyzer.Options{Fs: fs}).CheckFile
	},
}

var sqlCheck = check{
	name:  types.CheckSQL,
	use:   "sql <file.sql>...",
	short: "Check SQL scripts for dangerous patterns",
	usage: "Usage: odoosentry sql <file1.sql> [file2.sql ...]",
	newChecker: func(fs afero.Fs) fileChecker {
		return sqlcheck.New(fs).CheckFile
	},
}

var moduleCheck = check{
	name:  types.CheckModule,
	use:   "module <__manifest__.py>...",
	short: "Validate Odoo module manifests and layout",
	usage: "Usage: odoosentry module <manifest_path>",
	newChecker: func(fs afero.Fs) fileChecker {
		return manifest.NewValidator(fs).Validate
	},
}

// skipInjection excludes test files and package initializers. Matching is by
// substring, so any path containing "test" in any case is skipped.
func skipInjection(path string) bool {
	return strings.Contains(strings.ToLower(path), "test") || strings.Contains(path, "__init__")
}

type runConfig struct {
	output io.Writer
	fs     afero.Fs
	format string
	jobs   int
	quiet  bool
}

// runChecks checks every path, prints the report and returns the exit code.
// Results keep input order whatever the number of jobs.
func runChecks(ctx context.Context, cfg runConfig, c check, paths []string) (exitCode int, err error) {
	formatter, err := output.ForFormat(cfg.format)
	if err != nil {
		return 0, err
	}

	checkFile := c.newChecker(cfg.fs)
	results, err := worker.Map(ctx, cfg.jobs, paths, func(ctx context.Context, path string) types.FileResult {
		if c.skip != nil && c.skip(path) {
			logger.Debug("file skipped", zap.String("check", c.name), zap.String("file", path))
			return types.SkippedResult(path)
		}
		return checkFile(ctx, path)
	})
	if err != nil {
		return 0, err
	}

	report := types.NewReport(Version, c.name)
	for _, res := range results {
		report.AddResult(res)
	}

	logger.Debug("check finished",
		zap.String("check", c.name),
		zap.Int("files", len(paths)),
		zap.Int("findings", len(report.Findings())),
		zap.Bool("passed", report.Passed),
	)

	exitCode = report.ExitCode()
	if cfg.quiet {
		return exitCode, nil
	}

	if err := formatter.Format(cfg.output, report); err != nil {
		return exitCode, err
	}

	return exitCode, nil
}
