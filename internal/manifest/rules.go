// Package manifest validates Odoo module manifests and directory layout.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package manifest

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// Rules is the catalogue of module conventions.
type Rules struct {
	Manifest  ManifestRules  `yaml:"manifest"`
	Structure StructureRules `yaml:"structure"`
}

// ManifestRules constrain the contents of __manifest__.py.
type ManifestRules struct {
	RequiredKeys    []string `yaml:"required_keys"`
	DeprecatedKeys  []string `yaml:"deprecated_keys"`
	AllowedLicenses []string `yaml:"allowed_licenses"`
	Version         struct {
		Prefix string `yaml:"prefix"`
		Parts  int    `yaml:"parts"`
	} `yaml:"version"`
	AI struct {
		DependencyMarker string `yaml:"dependency_marker"`
		DataMarker       string `yaml:"data_marker"`
	} `yaml:"ai"`
}

// StructureRules constrain the module directory.
type StructureRules struct {
	RequiredFiles []string `yaml:"required_files"`
	Readme        struct {
		File      string `yaml:"file"`
		MinLength int    `yaml:"min_length"`
	} `yaml:"readme"`
	ContentDirs []string `yaml:"content_dirs"`
	Frontend    struct {
		Root         string   `yaml:"root"`
		ExpectedDirs []string `yaml:"expected_dirs"`
	} `yaml:"frontend"`
	Security struct {
		Dir        string `yaml:"dir"`
		AccessFile string `yaml:"access_file"`
	} `yaml:"security"`
}

var defaultRules = mustParseRules(rulesYAML)

// DefaultRules returns the builtin catalogue. Callers must not modify it.
func DefaultRules() *Rules {
	return defaultRules
}

// ParseRules decodes a YAML catalogue.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if r.Manifest.Version.Parts <= 0 {
		return nil, fmt.Errorf("failed to parse rules: version.parts must be positive")
	}
	return &r, nil
}

func mustParseRules(data []byte) *Rules {
	r, err := ParseRules(data)
	if err != nil {
		panic(err)
	}
	return r
}
