// Package patterns provides textual rule matching for Python sources.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package patterns

import "github.com/3leaps/odoosentry/internal/types"

// BuiltinPatterns returns the fixed execute() rule catalogue.
// These patterns are compiled into the binary.
func BuiltinPatterns() *PatternSet {
	ps := NewPatternSet()
	for _, p := range executePatterns() {
		_ = ps.Add(p) // Builtins should never fail to compile
	}
	return ps
}

func executePatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "SQL001",
			Name:        "execute-implicit-format",
			Severity:    types.SeverityWarning,
			Description: "Detects a string literal passed to execute() that contains a % not followed by s",
			Patterns: []PatternMatch{
				// RE2 has no lookahead: "%(?!s)" becomes "% then quote" or "% then non-s, later quote".
				{Regex: `\.execute\(["'].*?%(?:["']|[^s"'].*?["'])`, Flags: "is"},
			},
			Message: "Detected string formatting in SQL execute() call. Use parameterized queries.",
		},
		{
			ID:          "SQL002",
			Name:        "execute-fstring",
			Severity:    types.SeverityCritical,
			Description: "Detects an f-string with embedded expressions passed to execute()",
			Patterns: []PatternMatch{
				{Regex: `\.execute\(f["'].*?\{.*?\}.*?["']`, Flags: "is"},
			},
			Message: "CRITICAL: f-string used in SQL execute() call. This is a SQL injection vulnerability!",
		},
		{
			ID:          "SQL003",
			Name:        "execute-concatenation",
			Severity:    types.SeverityWarning,
			Description: "Detects a + operator inside the execute() argument list",
			Patterns: []PatternMatch{
				{Regex: `\.execute\([^)]*\+[^)]*\)`, Flags: "is"},
			},
			Message: "String concatenation detected in SQL execute(). Use parameterized queries.",
		},
	}
}
