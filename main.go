// odoosentry - Static checks for Odoo addons
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/3leaps/odoosentry/internal/cli"
	"github.com/3leaps/odoosentry/internal/logger"
)

// Build-time variables (injected via ldflags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Inject build info into CLI package
	cli.Version = version
	cli.BuildTime = buildTime
	cli.GitCommit = gitCommit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Sync() }()

	if err := cli.ExecuteContext(ctx); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 4
	}
	return 0
}
