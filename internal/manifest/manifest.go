// Package manifest validates Odoo module manifests and directory layout.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/3leaps/odoosentry/internal/parser"
)

// ErrNotDict is returned when the manifest literal is not a dictionary.
var ErrNotDict = errors.New("manifest is not a dictionary")

// Manifest is the decoded content of __manifest__.py.
type Manifest struct {
	Name        string   `mapstructure:"name"`
	Version     string   `mapstructure:"version"`
	Depends     []string `mapstructure:"depends"`
	License     string   `mapstructure:"license"`
	Author      string   `mapstructure:"author"`
	Data        []string `mapstructure:"data"`
	Installable any      `mapstructure:"installable"`

	// Extra holds every key not mapped above.
	Extra map[string]any `mapstructure:",remain"`

	raw map[string]any
}

// Parse evaluates content as a Python literal and decodes it.
func Parse(ctx context.Context, content []byte) (*Manifest, error) {
	v, err := parser.EvalLiteral(ctx, content)
	if err != nil {
		return nil, err
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotDict
	}

	m := &Manifest{raw: raw}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: m,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}

// Has reports whether key is present, whatever its value.
func (m *Manifest) Has(key string) bool {
	_, ok := m.raw[key]
	return ok
}

// IsInstallable reports whether the module may be installed. A missing key
// means installable; any falsy value (False, None, 0, "", empty container)
// means not.
func (m *Manifest) IsInstallable() bool {
	if !m.Has("installable") {
		return true
	}
	return truthy(m.Installable)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}
