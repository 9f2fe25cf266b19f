// Package main is the ops CLI: schema migration and account seeding.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/snaptaplaque/plateapi/internal/auth"
	"github.com/snaptaplaque/plateapi/internal/config"
	"github.com/snaptaplaque/plateapi/internal/database"
	"github.com/snaptaplaque/plateapi/internal/model"
	"github.com/snaptaplaque/plateapi/internal/repository"
	"github.com/snaptaplaque/plateapi/internal/s3storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "plateapi: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "plateapi",
		Short:        "Plate recognition service ops CLI",
		Long:         `plateapi manages the service database: applying the schema and seeding accounts. Safe to run repeatedly; every command is idempotent.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newSeedAdminCmd(),
		newCreateUserCmd(),
		newFetchArchiveCmd(),
	)
	return cmd
}

// connect loads config and opens the database with the schema applied.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pool, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			fmt.Println("schema up to date")
			return nil
		},
	}
}

func newSeedAdminCmd() *cobra.Command {
	var username, email, password, fullName string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("admin password required (--password or PLATE_ADMIN_PASSWORD)")
			}
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			hashed, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			users := repository.NewUserRepository(pool)
			user, created, err := users.Ensure(ctx, model.User{
				Email:          email,
				Username:       username,
				HashedPassword: hashed,
				FullName:       fullName,
				IsActive:       true,
				IsAdmin:        true,
			})
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("admin %q created (id=%d)\n", user.Username, user.ID)
			} else {
				fmt.Printf("admin %q already exists (id=%d), left untouched\n", user.Username, user.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", envOr("PLATE_ADMIN_USERNAME", "admin"), "Admin username")
	cmd.Flags().StringVar(&email, "email", envOr("PLATE_ADMIN_EMAIL", "admin@snaptaplaque.local"), "Admin email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("PLATE_ADMIN_PASSWORD"), "Admin password")
	cmd.Flags().StringVar(&fullName, "full-name", "Administrator", "Admin display name")
	return cmd
}

func newCreateUserCmd() *cobra.Command {
	var username, email, password, fullName string
	var admin bool
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a regular account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" || password == "" {
				return errors.New("--username, --email and --password are required")
			}
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			hashed, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			users := repository.NewUserRepository(pool)
			user, err := users.Create(ctx, model.User{
				Email:          email,
				Username:       username,
				HashedPassword: hashed,
				FullName:       fullName,
				IsActive:       true,
				IsAdmin:        admin,
			})
			if err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return fmt.Errorf("user %q already exists", username)
				}
				return err
			}
			fmt.Printf("user %q created (id=%d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin privileges")
	return cmd
}

func newFetchArchiveCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "fetch-archive <object-key>",
		Short: "Download an archived image for a spot check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := s3storage.New(cfg)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			data, err := store.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("wrote %d bytes to %s\n", len(data), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write the image to this file instead of stdout")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
