// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fedeportal/fedeportal/internal/auth"
	authpg "github.com/fedeportal/fedeportal/internal/auth/postgres"
	"github.com/fedeportal/fedeportal/internal/config"
	"github.com/fedeportal/fedeportal/internal/store"
)

// Default timeout for the create-admin command.
const defaultCreateAdminTimeout = 30 * time.Second

// adminInput holds the flag values for the create-admin command.
type adminInput struct {
	firstNames  string
	lastNames   string
	nationalID  string
	institution string
	canton      string
	email       string
	username    string
	password    string
	timeout     time.Duration
}

// NewCreateAdminCmd creates the create-admin subcommand.
func NewCreateAdminCmd() *cobra.Command {
	in := &adminInput{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the administrator account",
		Long: `Creates the single administrator account. The command goes through
the same registration path as the web form, so it fails cleanly when an
administrator already exists.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateAdmin(cmd, in)
		},
	}

	cmd.Flags().StringVar(&in.firstNames, "first-names", "", "administrator first names")
	cmd.Flags().StringVar(&in.lastNames, "last-names", "", "administrator last names")
	cmd.Flags().StringVar(&in.nationalID, "national-id", "", "national identity number")
	cmd.Flags().StringVar(&in.institution, "institution", "", "sport institution")
	cmd.Flags().StringVar(&in.canton, "canton", "", "canton")
	cmd.Flags().StringVar(&in.email, "email", "", "contact email")
	cmd.Flags().StringVar(&in.username, "username", "", "login username")
	cmd.Flags().StringVar(&in.password, "password", "", "login password")
	cmd.Flags().String("database-url", "", "PostgreSQL connection string")
	cmd.Flags().DurationVar(&in.timeout, "timeout", defaultCreateAdminTimeout, "timeout for database operations")

	return cmd
}

func runCreateAdmin(cmd *cobra.Command, in *adminInput) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM
	ctx, cancel := context.WithTimeout(cmd.Context(), in.timeout)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return err
	}
	if err := migrator.Close(); err != nil {
		return err
	}

	accounts := authpg.NewAccountRepository(pool)
	service, err := auth.NewRegistrationService(accounts, auth.NewArgon2idHasher())
	if err != nil {
		return err
	}

	account, err := service.Register(ctx, auth.RegistrationInput{
		FirstNames:      in.firstNames,
		LastNames:       in.lastNames,
		NationalID:      in.nationalID,
		Institution:     in.institution,
		Canton:          in.canton,
		Email:           in.email,
		Username:        in.username,
		Password:        in.password,
		ConfirmPassword: in.password,
		Role:            auth.RoleAdministrator,
	})
	if err != nil {
		if errors.Is(err, auth.ErrAdminExists) {
			cmd.Println("an administrator account already exists, nothing to do")
			return nil
		}
		return err
	}

	cmd.Printf("administrator account created: %s (%s)\n", account.Username, account.ID.String())
	return nil
}
