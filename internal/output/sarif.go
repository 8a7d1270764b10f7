// Package output provides formatters for odoosentry reports.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/3leaps/odoosentry/internal/types"
)

const (
	toolName       = "odoosentry"
	informationURI = "https://github.com/3leaps/odoosentry"
)

// SARIFFormatter formats reports as SARIF 2.1.0.
type SARIFFormatter struct{}

// NewSARIFFormatter creates a new SARIF formatter.
func NewSARIFFormatter() *SARIFFormatter {
	return &SARIFFormatter{}
}

// Format writes a SARIF log with one run holding every finding.
func (f *SARIFFormatter) Format(w io.Writer, report *types.Report) error {
	log, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, informationURI)
	if report.ToolVersion != "" {
		version := report.ToolVersion
		run.Tool.Driver.Version = &version
	}

	for _, finding := range report.Findings() {
		ruleID := finding.RuleID
		if ruleID == "" {
			ruleID = fallbackRuleID(report.Check)
		}
		level := severityToLevel(finding.Severity)

		run.AddRule(ruleID).
			WithDescription(ruleDescription(ruleID, finding)).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})

		artifact := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(finding.File))
		if finding.Line > 0 {
			artifact = artifact.WithRegion(sarif.NewRegion().WithStartLine(finding.Line))
		}

		result := sarif.NewRuleResult(ruleID).
			WithMessage(sarif.NewTextMessage(finding.Message)).
			WithLevel(level).
			WithLocations([]*sarif.Location{sarif.NewLocation().WithPhysicalLocation(artifact)})
		run.AddResult(result)
	}

	log.AddRun(run)
	return log.PrettyWrite(w)
}

// fallbackRuleID names findings raised outside any rule, such as read errors.
func fallbackRuleID(check string) string {
	if check == "" {
		return "odoosentry/error"
	}
	return check + "/error"
}

func ruleDescription(ruleID string, finding types.Finding) string {
	if finding.Severity == types.SeverityError && finding.RuleID == "" {
		return "Input could not be analyzed"
	}
	return ruleID + ": " + finding.Message
}

func severityToLevel(s types.Severity) string {
	switch s {
	case types.SeverityCritical, types.SeverityError:
		return "error"
	case types.SeverityWarning:
		return "warning"
	default:
		return "none"
	}
}
