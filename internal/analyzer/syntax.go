// Package analyzer provides the SQL injection checking engine for odoosentry.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package analyzer

import (
	"context"
	"errors"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/logger"
	"github.com/3leaps/odoosentry/internal/parser"
	"github.com/3leaps/odoosentry/internal/types"
)

// executeMethod is the cursor method whose first argument is inspected.
const executeMethod = "execute"

// stringMutators are str methods that build SQL text from values.
var stringMutators = map[string]bool{
	"format":  true,
	"replace": true,
}

// SyntaxAnalyzer performs syntax-tree analysis of execute() calls.
// It sees how the first argument is built, which the textual rules cannot,
// e.g. a concatenation that spans nested calls.
type SyntaxAnalyzer struct{}

// NewSyntaxAnalyzer creates a new structural analyzer.
func NewSyntaxAnalyzer() *SyntaxAnalyzer {
	return &SyntaxAnalyzer{}
}

// Name returns the analyzer identifier.
func (a *SyntaxAnalyzer) Name() string {
	return "syntax-tree"
}

// Analyze parses content and inspects every execute() call.
// Source that does not parse yields no findings; syntax checking belongs to
// other tools.
func (a *SyntaxAnalyzer) Analyze(ctx context.Context, content []byte, filename string) ([]types.Finding, error) {
	result, err := parser.Parse(ctx, content)
	if err != nil {
		result.Close()
		if errors.Is(err, parser.ErrSyntax) {
			logger.Debug("structural pass skipped",
				zap.String("file", filename),
				zap.Error(err),
			)
			return nil, nil
		}
		return nil, err
	}
	defer result.Close()

	var findings []types.Finding
	for _, call := range parser.FindCalls(result.Root) {
		if finding := a.checkExecute(result, call, filename); finding != nil {
			findings = append(findings, *finding)
		}
	}
	return findings, nil
}

// checkExecute applies the unsafe-first-argument rule to one call.
func (a *SyntaxAnalyzer) checkExecute(result *parser.Result, call *sitter.Node, filename string) *types.Finding {
	name, ok := result.MethodName(call)
	if !ok || name != executeMethod {
		return nil
	}

	args := parser.PositionalArgs(call)
	if len(args) == 0 {
		return nil
	}
	first := parser.Unparen(args[0])

	switch {
	case first.Type() == "binary_operator" || result.IsFString(first):
		return &types.Finding{
			File:     filename,
			Line:     parser.Line(call),
			RuleID:   "SQL101",
			Severity: types.SeverityCritical,
			Message: "Potential SQL injection: SQL string uses concatenation or f-string. " +
				"Use parameterized queries instead.",
		}
	case first.Type() == "call":
		if method, ok := result.MethodName(first); ok && stringMutators[method] {
			return &types.Finding{
				File:     filename,
				Line:     parser.Line(call),
				RuleID:   "SQL102",
				Severity: types.SeverityCritical,
				Message: "Potential SQL injection: SQL string uses .format() or .replace(). " +
					"Use parameterized queries with %s placeholders.",
			}
		}
	}

	return nil
}
