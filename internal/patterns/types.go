// Package patterns provides textual rule matching for Python sources.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package patterns

import (
	"fmt"
	"regexp"

	"github.com/3leaps/odoosentry/internal/types"
)

// Pattern defines a textual detection rule.
type Pattern struct {
	// ID is the unique identifier (e.g., "SQL001").
	ID string

	// Name is a short name for the pattern.
	Name string

	// Severity is the urgency level.
	Severity types.Severity

	// Description explains what this pattern detects.
	Description string

	// Patterns contains the regex patterns to match.
	Patterns []PatternMatch

	// Message is the human-readable finding message.
	Message string

	// compiled holds the compiled regexes, in Patterns order.
	compiled []*regexp.Regexp
}

// PatternMatch defines a single regex pattern.
type PatternMatch struct {
	// Regex is the RE2 expression to match.
	Regex string

	// Flags are inline RE2 flags applied to Regex (e.g., "is").
	Flags string
}

// expr returns the regex with its flags applied.
func (pm PatternMatch) expr() string {
	if pm.Flags == "" {
		return pm.Regex
	}
	return "(?" + pm.Flags + ")" + pm.Regex
}

// Compile compiles all regex patterns. Returns error if any fail.
func (p *Pattern) Compile() error {
	p.compiled = make([]*regexp.Regexp, 0, len(p.Patterns))
	for _, pm := range p.Patterns {
		re, err := regexp.Compile(pm.expr())
		if err != nil {
			return fmt.Errorf("pattern %s: %w", p.ID, err)
		}
		p.compiled = append(p.compiled, re)
	}
	return nil
}

// Match reports the first location where any of the pattern's regexes
// matches content, or nil when none does.
func (p *Pattern) Match(content []byte) *Match {
	for _, re := range p.compiled {
		loc := re.FindIndex(content)
		if loc == nil {
			continue
		}
		return &Match{
			Pattern: p,
			Line:    lineOf(content, loc[0]),
		}
	}
	return nil
}

// Match represents a pattern match in the content.
type Match struct {
	Pattern *Pattern

	// Line is the 1-based line where the first match starts.
	Line int
}

// ToFinding converts a match to a whole-file Finding.
// Textual rules are not attributed to a line.
func (m *Match) ToFinding(file string) types.Finding {
	return types.Finding{
		File:     file,
		RuleID:   m.Pattern.ID,
		Severity: m.Pattern.Severity,
		Message:  m.Pattern.Message,
	}
}

// lineOf converts a byte offset to a 1-based line number.
func lineOf(content []byte, pos int) int {
	line := 1
	for i := 0; i < pos && i < len(content); i++ {
		if content[i] == '\n' {
			line++
		}
	}
	return line
}

// PatternSet is an ordered collection of patterns.
type PatternSet struct {
	Patterns []*Pattern
}

// NewPatternSet creates an empty pattern set.
func NewPatternSet() *PatternSet {
	return &PatternSet{
		Patterns: []*Pattern{},
	}
}

// Add compiles and appends a pattern to the set.
func (ps *PatternSet) Add(p *Pattern) error {
	if err := p.Compile(); err != nil {
		return err
	}
	ps.Patterns = append(ps.Patterns, p)
	return nil
}

// MatchAll runs every pattern against content in catalogue order.
// Each pattern contributes at most one match.
func (ps *PatternSet) MatchAll(content []byte) []Match {
	var matches []Match
	for _, p := range ps.Patterns {
		if m := p.Match(content); m != nil {
			matches = append(matches, *m)
		}
	}
	return matches
}
