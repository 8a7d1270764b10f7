// Package types defines core types for odoosentry.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package types

import (
	"strconv"
	"time"
)

// Severity is the urgency of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical" // Active injection vector
	SeverityWarning  Severity = "warning"  // Suspicious construction
	SeverityError    Severity = "error"    // Input could not be analyzed
)

// Check names, one per command.
const (
	CheckInjection = "injection"
	CheckSQL       = "sql"
	CheckModule    = "module"
)

// Finding represents a single detected issue.
type Finding struct {
	// File is the path of the analyzed file.
	File string `json:"file"`

	// Line is the 1-based line of the offending call.
	// Zero means the rule matched the file as a whole.
	Line int `json:"line,omitempty"`

	// Statement is the 1-based SQL statement index, when applicable.
	Statement int `json:"statement,omitempty"`

	// RuleID is the identifier of the rule that fired (e.g., "SQL002").
	RuleID string `json:"rule_id,omitempty"`

	// Severity indicates urgency.
	Severity Severity `json:"severity"`

	// Message is a human-readable description and remediation.
	Message string `json:"message"`
}

// Location renders "path", "path:line" or "path:statement".
func (f Finding) Location() string {
	switch {
	case f.Statement > 0:
		return f.File + ":" + strconv.Itoa(f.Statement)
	case f.Line > 0:
		return f.File + ":" + strconv.Itoa(f.Line)
	default:
		return f.File
	}
}

// String formats the finding the way the text report prints it.
func (f Finding) String() string {
	return f.Location() + ": " + f.Message
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	// Path is the file as given on the command line.
	Path string `json:"path"`

	// Skipped is set when the driver excluded the file.
	Skipped bool `json:"skipped,omitempty"`

	// Safe is true iff Findings is empty.
	Safe bool `json:"safe"`

	// Findings in emission order.
	Findings []Finding `json:"findings"`
}

// NewFileResult builds a result whose Safe flag agrees with its findings.
func NewFileResult(path string, findings []Finding) FileResult {
	if findings == nil {
		findings = []Finding{}
	}
	return FileResult{
		Path:     path,
		Safe:     len(findings) == 0,
		Findings: findings,
	}
}

// SkippedResult marks a path excluded from analysis. Skipped paths are safe.
func SkippedResult(path string) FileResult {
	return FileResult{
		Path:     path,
		Skipped:  true,
		Safe:     true,
		Findings: []Finding{},
	}
}

// Report is the complete output of one invocation.
type Report struct {
	// SchemaVersion is the schema version (e.g., "0.1").
	SchemaVersion string `json:"schema_version"`

	// ToolVersion is the odoosentry version that produced this report.
	ToolVersion string `json:"tool_version"`

	// Check names the checker that produced the report.
	Check string `json:"check"`

	// AnalyzedAt is the ISO 8601 timestamp of analysis.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Passed is true iff every eligible file is safe.
	Passed bool `json:"passed"`

	// Files lists per-file results in input order.
	Files []FileResult `json:"files"`
}

// NewReport creates an empty, passing report.
func NewReport(toolVersion, check string) *Report {
	return &Report{
		SchemaVersion: "0.1",
		ToolVersion:   toolVersion,
		Check:         check,
		AnalyzedAt:    time.Now().UTC(),
		Passed:        true,
		Files:         []FileResult{},
	}
}

// AddResult appends a file result and folds it into the aggregate.
func (r *Report) AddResult(res FileResult) {
	r.Files = append(r.Files, res)
	if !res.Safe {
		r.Passed = false
	}
}

// Findings returns every finding across all files, in order.
func (r *Report) Findings() []Finding {
	var all []Finding
	for _, f := range r.Files {
		all = append(all, f.Findings...)
	}
	return all
}

// ExitCode returns 0 when the run passed and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.Passed {
		return 0
	}
	return 1
}
