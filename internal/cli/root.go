// Package cli provides the command-line interface for odoosentry.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/config"
	"github.com/3leaps/odoosentry/internal/logger"
)

// Build-time variables (injected via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// CLI flags
var (
	formatFlag   string
	jobsFlag     int
	logLevelFlag string
	configFlag   string
	outputFile   string
	quietFlag    bool
)

// CLI flags for version
var (
	versionFlag         bool
	versionExtendedFlag bool
)

// ExitError signals an intentional process exit with a specific code.
// The caller (main) is responsible for turning this into os.Exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

func resetFlags() {
	formatFlag = "text"
	jobsFlag = 1
	logLevelFlag = "warn"
	configFlag = ""
	outputFile = ""
	quietFlag = false

	versionFlag = false
	versionExtendedFlag = false
}

// app carries state shared by the commands of one invocation.
type app struct {
	fs  afero.Fs
	cfg *config.Config
}

// NewRootCmd creates the root command for odoosentry.
func NewRootCmd() *cobra.Command {
	return newRootCmd(afero.NewOsFs())
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	resetFlags()
	a := &app{fs: fs}

	rootCmd := &cobra.Command{
		Use:   "odoosentry [flags] [file.py ...]",
		Short: "Static checks for Odoo addons",
		Long: `odoosentry - static checks for Odoo addon code.

Flags SQL built from untrusted values in Python sources, dangerous constructs
in SQL scripts, and Odoo 19 module manifests and layouts that do not follow
conventions.

Examples:
  odoosentry models/*.py                     # Same as "odoosentry injection"
  odoosentry injection models/sale.py        # SQL injection check
  odoosentry sql data/*.sql                  # SQL script check
  odoosentry module sale_ext/__manifest__.py # Module validation
  odoosentry --format sarif models/*.py      # SARIF for code scanning`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle --version and --version-extended flags
			if versionExtendedFlag {
				if err := printExtendedVersionTo(cmd.ErrOrStderr()); err != nil {
					return err
				}
				return &ExitError{Code: 0}
			}
			if versionFlag {
				if err := printVersionTo(cmd.ErrOrStderr()); err != nil {
					return err
				}
				return &ExitError{Code: 0}
			}

			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, injectionCheck, args)
		},
	}

	// Output flags
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text, json, sarif")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Quiet mode (no output, just exit code)")

	// Execution flags
	rootCmd.PersistentFlags().IntVar(&jobsFlag, "jobs", 1, "Number of files checked concurrently")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "Diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ./odoosentry.yaml if present)")

	// Version flags (on root command for --version convention)
	rootCmd.PersistentFlags().BoolVar(&versionFlag, "version", false, "Print version and exit")
	rootCmd.PersistentFlags().BoolVar(&versionExtendedFlag, "version-extended", false, "Print extended version info and exit")

	rootCmd.AddCommand(newCheckCmd(a, injectionCheck))
	rootCmd.AddCommand(newCheckCmd(a, sqlCheck))
	rootCmd.AddCommand(newCheckCmd(a, moduleCheck))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup resolves configuration and starts logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{
		File:  configFlag,
		Flags: cmd.Flags(),
		Fs:    a.fs,
	})
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg

	logger.Debug("configuration loaded",
		zap.String("format", cfg.Format),
		zap.Int("jobs", cfg.Jobs),
		zap.String("log_level", cfg.Log.Level),
	)
	return nil
}

func newCheckCmd(a *app, c check) *cobra.Command {
	return &cobra.Command{
		Use:   c.use,
		Short: c.short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, c, args)
		},
	}
}

func (a *app) run(cmd *cobra.Command, c check, args []string) (err error) {
	if len(args) == 0 {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), c.usage); err != nil {
			return err
		}
		return &ExitError{Code: 1}
	}

	out := cmd.OutOrStdout()
	if outputFile != "" && !quietFlag {
		f, err := a.fs.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close %s: %w", outputFile, cerr)
			}
		}()
		out = f
	}

	exitCode, err := runChecks(cmd.Context(), runConfig{
		output: out,
		fs:     a.fs,
		format: a.cfg.Format,
		jobs:   a.cfg.Jobs,
		quiet:  quietFlag,
	}, c, args)
	if err != nil {
		return fmt.Errorf("failed to run %s check: %w", c.name, err)
	}

	return &ExitError{Code: exitCode}
}

func newVersionCmd() *cobra.Command {
	var extended bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version information. Use --extended for full build details.",
		// Printing the version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if extended {
				return printExtendedVersionTo(cmd.ErrOrStderr())
			}
			return printVersionTo(cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVarP(&extended, "extended", "e", false, "Show extended version information")

	return cmd
}

// printVersionTo outputs the version to the provided writer.
func printVersionTo(w io.Writer) error {
	_, err := fmt.Fprintf(w, "odoosentry %s\n", Version)
	return err
}

// printExtendedVersionTo outputs full build and runtime details to the provided writer.
func printExtendedVersionTo(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "odoosentry %s\n", Version); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Commit:    %s\n", GitCommit); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Built:     %s\n", BuildTime); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Go:        %s\n", runtime.Version()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "  OS/Arch:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return err
}

// ExecuteContext runs the root command with ctx, which cancels in-flight
// checks when done.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
