// Package manifest validates Odoo module manifests and directory layout.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/logger"
	"github.com/3leaps/odoosentry/internal/types"
)

// Rule identifiers, one per convention.
const (
	RuleParse           = "MOD000"
	RuleRequiredKeys    = "MOD001"
	RuleDeprecatedKeys  = "MOD002"
	RuleLicense         = "MOD003"
	RuleVersionPrefix   = "MOD004"
	RuleVersionFormat   = "MOD005"
	RuleAIServerActions = "MOD006"
	RuleInstallable     = "MOD007"
	RuleRequiredFile    = "MOD101"
	RuleReadmeLength    = "MOD102"
	RuleContentDir      = "MOD103"
	RuleFrontendLayout  = "MOD104"
	RuleAccessFile      = "MOD105"
)

// Validator checks a module against a rule catalogue.
type Validator struct {
	fs    afero.Fs
	rules *Rules
}

// NewValidator creates a validator reading from fs with the builtin rules.
// A nil fs means the OS filesystem.
func NewValidator(fs afero.Fs) *Validator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Validator{fs: fs, rules: DefaultRules()}
}

// WithRules returns a copy of v using rules.
func (v *Validator) WithRules(rules *Rules) *Validator {
	return &Validator{fs: v.fs, rules: rules}
}

// Validate checks the manifest at manifestPath and the directory holding it.
// Manifest problems are reported before layout problems.
func (v *Validator) Validate(ctx context.Context, manifestPath string) types.FileResult {
	findings := v.ValidateManifest(ctx, manifestPath)
	findings = append(findings, v.ValidateStructure(filepath.Dir(manifestPath))...)

	logger.Debug("module validated",
		zap.String("manifest", manifestPath),
		zap.Int("errors", len(findings)),
	)
	return types.NewFileResult(manifestPath, findings)
}

// ValidateManifest checks the keys and values of a manifest file. A manifest
// that cannot be read or evaluated yields a single finding.
func (v *Validator) ValidateManifest(ctx context.Context, path string) []types.Finding {
	var findings []types.Finding
	add := func(rule, msg string) {
		findings = append(findings, types.Finding{
			File:     path,
			RuleID:   rule,
			Severity: types.SeverityError,
			Message:  msg,
		})
	}

	m, err := v.load(ctx, path)
	if err != nil {
		logger.Debug("manifest unreadable", zap.String("manifest", path), zap.Error(err))
		add(RuleParse, "Error parsing manifest: "+err.Error())
		return findings
	}

	r := v.rules.Manifest

	var missing []string
	for _, k := range r.RequiredKeys {
		if !m.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		add(RuleRequiredKeys, "Missing required keys: "+setString(missing))
	}

	var deprecated []string
	for _, k := range r.DeprecatedKeys {
		if m.Has(k) {
			deprecated = append(deprecated, k)
		}
	}
	if len(deprecated) > 0 {
		add(RuleDeprecatedKeys, "Deprecated keys found: "+setString(deprecated)+
			". Remove these keys from manifest.")
	}

	if m.License != "" && !slices.Contains(r.AllowedLicenses, m.License) {
		add(RuleLicense, fmt.Sprintf("Invalid license '%s'. Must be one of: %s",
			m.License, setString(r.AllowedLicenses)))
	}

	if !strings.HasPrefix(m.Version, r.Version.Prefix) {
		add(RuleVersionPrefix, fmt.Sprintf("Version '%s' must start with '%s' for Odoo",
			m.Version, r.Version.Prefix))
	}
	if len(strings.Split(m.Version, ".")) != r.Version.Parts {
		add(RuleVersionFormat, fmt.Sprintf("Version '%s' should have format %s",
			m.Version, versionTemplate(r.Version.Prefix, r.Version.Parts)))
	}

	if usesAI(m.Depends, r.AI.DependencyMarker) && !hasServerAction(m.Data, r.AI.DataMarker) {
		add(RuleAIServerActions, "Module uses AI dependencies but no AI server actions found")
	}

	if !m.IsInstallable() {
		add(RuleInstallable, "Module is marked as not installable")
	}

	return findings
}

// ValidateStructure checks the layout of the module directory dir.
func (v *Validator) ValidateStructure(dir string) []types.Finding {
	var findings []types.Finding
	add := func(file, rule, msg string) {
		findings = append(findings, types.Finding{
			File:     file,
			RuleID:   rule,
			Severity: types.SeverityError,
			Message:  msg,
		})
	}

	r := v.rules.Structure

	for _, name := range r.RequiredFiles {
		if !v.exists(filepath.Join(dir, name)) {
			add(filepath.Join(dir, name), RuleRequiredFile, "Missing required file: "+name)
		}
	}

	readme := filepath.Join(dir, r.Readme.File)
	if v.exists(readme) {
		content, err := afero.ReadFile(v.fs, readme)
		if err == nil && utf8.RuneCount(content) < r.Readme.MinLength {
			add(readme, RuleReadmeLength, fmt.Sprintf("%s is too short (< %d chars)",
				r.Readme.File, r.Readme.MinLength))
		}
	}

	hasContent := slices.ContainsFunc(r.ContentDirs, func(name string) bool {
		return v.exists(filepath.Join(dir, name))
	})
	if !hasContent {
		add(dir, RuleContentDir, "Module should have at least one of: "+setString(r.ContentDirs))
	}

	frontend := filepath.Join(dir, filepath.FromSlash(r.Frontend.Root))
	if v.exists(frontend) {
		hasLayout := slices.ContainsFunc(r.Frontend.ExpectedDirs, func(name string) bool {
			return v.exists(filepath.Join(dir, filepath.FromSlash(name)))
		})
		if !hasLayout {
			add(frontend, RuleFrontendLayout, fmt.Sprintf(
				"Module has %s but doesn't follow OWL structure. Expected one of: %s",
				r.Frontend.Root, setString(r.Frontend.ExpectedDirs)))
		}
	}

	security := filepath.Join(dir, r.Security.Dir)
	if v.exists(security) && !v.exists(filepath.Join(security, r.Security.AccessFile)) {
		add(security, RuleAccessFile, fmt.Sprintf("%s/ folder exists but no %s found",
			r.Security.Dir, r.Security.AccessFile))
	}

	return findings
}

func (v *Validator) load(ctx context.Context, path string) (*Manifest, error) {
	content, err := afero.ReadFile(v.fs, path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s is not valid UTF-8", filepath.Base(path))
	}
	return Parse(ctx, content)
}

func (v *Validator) exists(path string) bool {
	ok, err := afero.Exists(v.fs, path)
	return err == nil && ok
}

// ModuleName returns the name of the module whose manifest is at manifestPath.
func ModuleName(manifestPath string) string {
	dir := filepath.Dir(manifestPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Base(dir)
}

func usesAI(depends []string, marker string) bool {
	return slices.ContainsFunc(depends, func(dep string) bool {
		return strings.Contains(strings.ToLower(dep), marker)
	})
}

func hasServerAction(data []string, marker string) bool {
	return slices.ContainsFunc(data, func(f string) bool {
		return strings.Contains(f, marker)
	})
}

// setString renders names as a sorted brace-delimited set, e.g. {'a', 'b'}.
func setString(names []string) string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	quoted := make([]string, len(sorted))
	for i, n := range sorted {
		quoted[i] = "'" + n + "'"
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

// versionTemplate renders the expected version shape, e.g. 19.0.X.Y.Z.
func versionTemplate(prefix string, parts int) string {
	fixed := strings.Count(prefix, ".")
	placeholders := []string{"X", "Y", "Z", "W", "V"}
	out := prefix
	for i := 0; i < parts-fixed; i++ {
		if i > 0 {
			out += "."
		}
		if i < len(placeholders) {
			out += placeholders[i]
		} else {
			out += "N"
		}
	}
	return out
}
