// Package analyzer provides the SQL injection checking engine for odoosentry.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package analyzer

import (
	"context"

	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/logger"
	"github.com/3leaps/odoosentry/internal/patterns"
	"github.com/3leaps/odoosentry/internal/types"
)

// PatternAnalyzer is the cheap textual pre-filter. It never parses the file.
type PatternAnalyzer struct {
	patterns *patterns.PatternSet
}

// NewPatternAnalyzer creates a pattern analyzer with the builtin rules.
func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{
		patterns: patterns.BuiltinPatterns(),
	}
}

// Name returns the analyzer identifier.
func (a *PatternAnalyzer) Name() string {
	return "textual-patterns"
}

// Analyze emits one whole-file finding per rule that matches content.
func (a *PatternAnalyzer) Analyze(ctx context.Context, content []byte, filename string) ([]types.Finding, error) {
	matches := a.patterns.MatchAll(content)

	findings := make([]types.Finding, 0, len(matches))
	for _, m := range matches {
		logger.Debug("pattern matched",
			zap.String("file", filename),
			zap.String("rule", m.Pattern.ID),
			zap.Int("line", m.Line),
		)
		findings = append(findings, m.ToFinding(filename))
	}
	return findings, nil
}
