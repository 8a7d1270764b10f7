// Package config provides configuration management for odoosentry.
//
// Configuration is resolved in this order, highest first:
//  1. command-line flags that were set explicitly
//  2. environment variables with the ODOOSENTRY_ prefix (ODOOSENTRY_LOG_LEVEL)
//  3. odoosentry.yaml in the working directory, or the file named by --config
//  4. defaults
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ODOOSENTRY"

// Formats lists the accepted report formats.
var Formats = []string{"text", "json", "sarif"}

// Config is the root configuration structure.
type Config struct {
	Format string    `mapstructure:"format"`
	Jobs   int       `mapstructure:"jobs"`
	Log    LogConfig `mapstructure:"log"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. When empty, odoosentry.yaml is looked
	// up in the working directory and its absence is not an error.
	File string

	// Flags binds command-line flags. Only flags the user set override
	// lower layers. Bound names: format, jobs, log-level.
	Flags *pflag.FlagSet

	// Fs is the filesystem config files are read from.
	Fs afero.Fs
}

// flagKeys maps config keys to flag names.
var flagKeys = map[string]string{
	"format":    "format",
	"jobs":      "jobs",
	"log.level": "log-level",
}

// Load reads configuration from defaults, file, environment and flags.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	if opts.Fs != nil {
		v.SetFs(opts.Fs)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("odoosentry")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if opts.Flags != nil {
		for key, name := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for configuration errors.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(Formats, ", "), c.Format)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "text")
	v.SetDefault("jobs", 1)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}
