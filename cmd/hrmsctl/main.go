// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Command hrmsctl is the operator CLI for HRMS backups. It runs the same
// backup service as the server, against the same configuration, as a
// built-in super administrator.
//
//	hrmsctl export
//	hrmsctl list
//	hrmsctl status
//	hrmsctl validate FILE
//	hrmsctl restore FILE --yes
//	hrmsctl cleanup --max-age 1h
//	hrmsctl token --user u-1 --name "Ada" --role super_admin
//
// A DuckDB datastore is opened exclusively, so stop the server first when
// both point at the same file.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cliPrincipal is the identity every CLI operation runs as.
var cliPrincipal = backup.Principal{ID: "cli", Name: "CLI", Role: backup.RoleSuperAdmin}

// cli holds global flags and the loaded configuration.
type cli struct {
	configPath string
	verbose    bool
	quiet      bool
	jsonOutput bool

	cfg *config.Config
	out io.Writer
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "hrmsctl",
		Short:         "HRMS backup and restore tool",
		Long:          "hrmsctl creates, inspects, validates and restores HRMS backup archives.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to config.yaml (overrides "+config.ConfigPathEnvVar+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Verbose logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "No progress bars")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Print results as JSON")

	root.AddCommand(
		c.exportCommand(),
		c.listCommand(),
		c.statusCommand(),
		c.validateCommand(),
		c.restoreCommand(),
		c.cleanupCommand(),
		c.tokenCommand(),
	)
	return root
}

// load reads configuration and sets up console logging on stderr.
func (c *cli) load() error {
	if c.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, c.configPath); err != nil {
			return err
		}
	}

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	logging.Init(logging.Config{
		Level:     level,
		Format:    "console",
		Timestamp: true,
		Output:    os.Stderr,
	})

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}
