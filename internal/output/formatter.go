// Package output provides formatters for odoosentry reports.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package output

import (
	"fmt"
	"io"

	"github.com/3leaps/odoosentry/internal/types"
)

// Formatter formats a report for output.
type Formatter interface {
	Format(w io.Writer, report *types.Report) error
}

// ForFormat returns the formatter for a format name: text, json or sarif.
func ForFormat(name string) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "sarif":
		return NewSARIFFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (use text, json, or sarif)", name)
	}
}
