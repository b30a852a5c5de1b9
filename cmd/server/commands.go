package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZertGraf/cresp/internal/bootstrap"
)

const shutdownTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cresp",
		Short:         "Cresp creative network API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newAdminCmd(),
		newVersionCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	// create context for graceful shutdown
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	app, err := bootstrap.New()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err = app.Init(ctx); err != nil {
		app.Logger.Error("failed to start application", "error", err)
		shutdown(app)
		return err
	}

	setupGracefulShutdown(ctx, cancel, app)

	app.Logger.Info("cresp service started",
		"version", version,
		"environment", app.Config.Environment,
		"log_level", app.Config.LogLevel,
		"storage", app.Storage.Name())

	// wait for shutdown signal
	<-ctx.Done()
	app.Logger.Info("initiating graceful shutdown")

	if err = shutdown(app); err != nil {
		return fmt.Errorf("application shutdown failed: %w", err)
	}

	app.Logger.Info("service stopped gracefully")
	return nil
}

func shutdown(app *bootstrap.Application) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(ctx)
}

// setupGracefulShutdown configures signal handling for clean shutdown
func setupGracefulShutdown(ctx context.Context, cancel context.CancelFunc, app *bootstrap.Application) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			app.Logger.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Postgres.Close()

			app.Config.DatabaseMigrationEnabled = true
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}

			st, err := app.Migrator.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d of %d\n", st.Current, st.Latest)
			return nil
		},
	}
}

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	setRole := func(grant bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Postgres.Close()

			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			if err := app.Wire(cmd.Context()); err != nil {
				return err
			}

			user, err := app.AuthService.SetAdmin(cmd.Context(), args[0], grant)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		}
	}

	admin.AddCommand(
		&cobra.Command{
			Use:   "grant <email>",
			Short: "Give a user the admin role",
			Args:  cobra.ExactArgs(1),
			RunE:  setRole(true),
		},
		&cobra.Command{
			Use:   "revoke <email>",
			Short: "Return an admin to the member role",
			Args:  cobra.ExactArgs(1),
			RunE:  setRole(false),
		},
	)
	return admin
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
