// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the fedeportal CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fedeportal",
		Short: "Fedeportal - federation member portal",
		Long: `Fedeportal serves the member portal of the provincial sports
federation: member registration, login, and the session-gated
member area, backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCreateAdminCmd())

	return cmd
}
