package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"opsboard/internal/config"
	"opsboard/internal/database"
	"opsboard/internal/middleware"
	"opsboard/internal/retention"
	"opsboard/internal/services"
	"opsboard/internal/storage"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "opsboard",
		Short:         "OpsBoard Kanban backend",
		Long:          "OpsBoard serves the board, column, task and attachment API and purges expired attachments.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to an optional YAML config file")

	load := func() (*config.Config, error) {
		return config.LoadConfigFile(configPath)
	}

	cmd.AddCommand(newServeCmd(load))
	cmd.AddCommand(newMigrateCmd(load))
	cmd.AddCommand(newSweepCmd(load))
	cmd.AddCommand(newTokenCmd(load))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the retention sweeper and the job worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed default labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			pool, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database migrated (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func newSweepCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge attachments whose retention window has passed, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return runSweep(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func runSweep(ctx context.Context, out io.Writer, cfg *config.Config) error {
	pool, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	files, err := storage.NewLocalStore(cfg.Storage.UploadsPath)
	if err != nil {
		return err
	}

	attachments := services.NewAttachmentService(pool.DB, files, services.NewActivityRecorder(pool.DB), services.AttachmentConfig{
		RetentionWindow: cfg.Retention.Window,
		MaxUploadSize:   cfg.Storage.MaxUploadSize,
	})
	sweeper, err := retention.NewSweeper(attachments, retention.Config{
		Window:   cfg.Retention.Window,
		Schedule: cfg.Retention.Schedule,
	})
	if err != nil {
		return err
	}

	result, err := sweeper.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Sweep finished: %d candidate(s), %d purged, %d failed in %s\n",
		result.Candidates, result.Purged, result.Failed, result.Duration)
	if result.Failed > 0 {
		return fmt.Errorf("%d attachment(s) could not be purged", result.Failed)
	}
	return nil
}

func newTokenCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || userID == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			pool, err := database.NewDatabasePool(&database.PoolConfig{
				Driver:   cfg.Database.Driver,
				DSN:      cfg.GetDatabaseDSN(),
				LogLevel: logger.Silent,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			user, err := services.NewUserService(pool.DB).GetUser(cmd.Context(), uint(userID))
			if err != nil {
				return err
			}

			token, err := middleware.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, user.ID, cfg.Auth.TokenTTL)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opsboard %s (commit: %s)\n", Version, Commit)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
