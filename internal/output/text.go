// Package output provides formatters for odoosentry reports.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package output

import (
	"fmt"
	"io"

	"github.com/3leaps/odoosentry/internal/manifest"
	"github.com/3leaps/odoosentry/internal/types"
)

const (
	failMark = "❌"
	passMark = "✅"
)

// TextFormatter formats reports as the line-oriented console output each
// command prints.
type TextFormatter struct{}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format writes a text report. Skipped files print nothing.
func (f *TextFormatter) Format(w io.Writer, report *types.Report) error {
	var err error
	writef := func(format string, args ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format, args...)
	}

	for _, res := range report.Files {
		if res.Skipped {
			continue
		}

		switch report.Check {
		case types.CheckModule:
			name := manifest.ModuleName(res.Path)
			if res.Safe {
				writef("%s Module %s is Odoo compliant\n", passMark, name)
				continue
			}
			writef("\n%s Validation failed for %s (Odoo):\n", failMark, name)
			for _, finding := range res.Findings {
				writef("  - %s\n", finding.Message)
			}

		case types.CheckSQL:
			if res.Safe {
				writef("%s %s: SQL syntax OK\n", passMark, res.Path)
				continue
			}
			for _, finding := range res.Findings {
				writef("%s %s\n", failMark, finding.String())
			}

		default:
			for _, finding := range res.Findings {
				writef("%s %s\n", failMark, finding.String())
			}
		}
	}

	return err
}
