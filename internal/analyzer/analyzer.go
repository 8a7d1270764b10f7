// Package analyzer provides the SQL injection checking engine for odoosentry.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package analyzer

import (
	"context"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/logger"
	"github.com/3leaps/odoosentry/internal/types"
)

// Analyzer is the interface for source analysis passes.
type Analyzer interface {
	// Analyze performs analysis on the given file content.
	// Returns findings discovered by this analyzer.
	Analyze(ctx context.Context, content []byte, filename string) ([]types.Finding, error)

	// Name returns the analyzer's identifier.
	Name() string
}

// Options configures the analysis engine.
type Options struct {
	// Fs is the filesystem files are read from. Defaults to the OS filesystem.
	Fs afero.Fs
}

// Engine runs registered analyzers over one file at a time.
// It holds no per-file state, so a single Engine may check files concurrently.
type Engine struct {
	analyzers []Analyzer
	fs        afero.Fs
}

// NewEngine creates an engine with no analyzers.
func NewEngine(opts Options) *Engine {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Engine{
		analyzers: []Analyzer{},
		fs:        fs,
	}
}

// NewInjectionEngine creates an engine running the textual pass followed by
// the structural pass.
func NewInjectionEngine(opts Options) *Engine {
	e := NewEngine(opts)
	e.RegisterAnalyzer(NewPatternAnalyzer())
	e.RegisterAnalyzer(NewSyntaxAnalyzer())
	return e
}

// RegisterAnalyzer adds an analyzer to the engine. Analyzers run in
// registration order.
func (e *Engine) RegisterAnalyzer(a Analyzer) {
	e.analyzers = append(e.analyzers, a)
}

// CheckFile reads path and checks it. Unreadable input becomes a single
// error finding; CheckFile never fails.
func (e *Engine) CheckFile(ctx context.Context, path string) types.FileResult {
	content, err := afero.ReadFile(e.fs, path)
	if err != nil {
		logger.Debug("read failed", zap.String("file", path), zap.Error(err))
		return types.NewFileResult(path, []types.Finding{
			errorFinding(path, "Error analyzing file: "+err.Error()),
		})
	}
	return e.Check(ctx, path, content)
}

// Check runs every analyzer over content and merges their findings in
// registration order.
func (e *Engine) Check(ctx context.Context, path string, content []byte) types.FileResult {
	if !utf8.Valid(content) {
		return types.NewFileResult(path, []types.Finding{
			errorFinding(path, "File encoding error (expected UTF-8)"),
		})
	}

	var findings []types.Finding
	for _, a := range e.analyzers {
		found, err := a.Analyze(ctx, content, path)
		if err != nil {
			logger.Debug("analyzer failed",
				zap.String("file", path),
				zap.String("analyzer", a.Name()),
				zap.Error(err),
			)
			return types.NewFileResult(path, []types.Finding{
				errorFinding(path, "Error analyzing file: "+err.Error()),
			})
		}
		findings = append(findings, found...)
	}

	logger.Debug("file checked",
		zap.String("file", path),
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
