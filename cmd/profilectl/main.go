// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

// Command profilectl is the operator tool for admin access requests.
//
// Users can only move their own profile from none to pending. Approving,
// rejecting and resetting are operator decisions made here, directly
// against the profile table.
//
// # Usage
//
//	profilectl list [--status pending]
//	profilectl show <user-id>
//	profilectl approve <user-id> [--role admin|super_admin]
//	profilectl reject <user-id>
//	profilectl reset <user-id>
//	profilectl status
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/flowimmersive/flowsite/internal/platform/config"
	"github.com/flowimmersive/flowsite/internal/platform/migration"
	pgstore "github.com/flowimmersive/flowsite/internal/platform/postgres"
	"github.com/flowimmersive/flowsite/internal/platform/sec"
	"github.com/flowimmersive/flowsite/internal/platform/validate"
	"github.com/flowimmersive/flowsite/internal/users/auth"
)

const commandTimeout = 30 * time.Second

var errUsage = errors.New("usage: profilectl <list|show|approve|reject|reset|status> [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		role   string
		status string
	)

	flagSet := pflag.NewFlagSet("profilectl", pflag.ContinueOnError)
	flagSet.StringVar(&role, "role", string(sec.RoleAdmin), "role granted by approve (admin or super_admin)")
	flagSet.StringVar(&status, "status", string(auth.RequestPending), "request status listed by list")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		return errUsage
	}
	command, rest := positional[0], positional[1:]

	if err := checkFlags(role, status); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if command == "status" {
		current, err := migration.CurrentStatus(cfg.DatabaseURL, cfg.MigrationPath, logger)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "schema version %d (dirty=%t)\n", current.Version, current.Dirty)
		return err
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, pgstore.Options{StatementTimeout: cfg.StoreCallTimeout}, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := auth.NewProfileStore(pool)

	if command == "list" {
		return list(ctx, store, status, out)
	}

	if len(rest) != 1 {
		return errUsage
	}
	userID := rest[0]
	op := &operator{profiles: store, out: out}

	switch command {
	case "show":
		return op.show(ctx, userID)
	case "approve":
		parsed, err := sec.ParseRole(role)
		if err != nil {
			return err
		}
		return op.approve(ctx, userID, parsed)
	case "reject":
		return op.reject(ctx, userID)
	case "reset":
		return op.reset(ctx, userID)
	default:
		return errUsage
	}
}

// checkFlags rejects unknown --role and --status values before any connection is opened.
func checkFlags(role, status string) error {
	validator := &validate.Validator{}
	validator.OneOf("role", role, string(sec.RoleAdmin), string(sec.RoleSuperAdmin))
	validator.OneOf("status", status, string(auth.RequestNone), string(auth.RequestPending), string(auth.RequestRejected))
	return validator.Err()
}

func list(ctx context.Context, store *auth.PostgresProfileStore, rawStatus string, out io.Writer) error {
	status, err := auth.ParseRequestStatus(rawStatus)
	if err != nil {
		return err
	}

	profiles, quarantined, err := store.ListByRequestStatus(ctx, status)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(profiles); err != nil {
		return err
	}
	if quarantined > 0 {
		_, err = fmt.Fprintf(out, "%d malformed profile(s) skipped; repair them before deciding\n", quarantined)
	}
	return err
}
