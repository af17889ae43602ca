package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/Abrechen2/sublarr-sub006/internal/app"
	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/backup"
	"github.com/Abrechen2/sublarr-sub006/internal/config"
	"github.com/Abrechen2/sublarr-sub006/internal/logging"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// Exit codes, per the CLI's documented contract: 0 success, 1 configuration
// error, 2 runtime error, 3 migration required.
const (
	exitOK               = 0
	exitConfigError      = 1
	exitRuntimeError     = 2
	exitMigrationPending = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		var code *exitCodeError
		if errors.As(err, &code) {
			if !errors.Is(err, context.Canceled) {
				fmt.Fprintln(os.Stderr, code.err)
			}
			return code.code
		}
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeError
	}
	return exitOK
}

// exitCodeError pairs an error with the process exit code it demands, so
// cobra's RunE can return a single error value that main still maps to the
// CLI's documented exit codes.
type exitCodeError struct {
	err  error
	code int
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func configErr(err error) error   { return &exitCodeError{err: err, code: exitConfigError} }
func runtimeErr(err error) error  { return &exitCodeError{err: err, code: exitRuntimeError} }
func migrationErr(err error) error { return &exitCodeError{err: err, code: exitMigrationPending} }

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sublarr",
		Short:         "Sublarr subtitle management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Configuration file path")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newBackupCommand(&configPath),
		newRestoreCommand(&configPath),
		newScanOnceCommand(&configPath),
		newSearchOnceCommand(&configPath),
	)
	return root
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/sublarr/settings.json"
	}
	return "settings.json"
}

func loadSettings(configPath string) (config.Settings, error) {
	mgr := config.NewManager(configPath)
	if err := mgr.EnsureDir(); err != nil {
		return config.Settings{}, err
	}
	return mgr.Load()
}

// checkMigrationGate opens a bare connection (no goose.Up) to report
// whether pending migrations exist, without applying them. serve/backup/
// scan-once/search-once all refuse to run against a schema behind the
// binary's embedded migrations; `migrate` proceeds, and `restore` does not
// consult this gate.
func checkMigrationGate(dbPath string) (pending bool, err error) {
	if dbPath == "" {
		return false, nil
	}
	if _, statErr := os.Stat(dbPath); errors.Is(statErr, os.ErrNotExist) {
		return false, nil
	}
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	return store.MigrationStatus(conn)
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Sublarr service: HTTP API plus background scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*configPath)
			if err != nil {
				return configErr(err)
			}

			pending, err := checkMigrationGate(settings.Database.Path)
			if err != nil {
				return runtimeErr(err)
			}
			if pending {
				return migrationErr(errors.New("database schema is behind; run `sublarr migrate` first"))
			}

			fileWriter := logging.Setup(settings.Log)
			if fileWriter != nil {
				defer fileWriter.Close()
			}

			a, err := app.New(settings)
			if err != nil {
				return runtimeErr(err)
			}
			a.ConfigPath = *configPath
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := a.Serve(ctx); err != nil {
				return runtimeErr(err)
			}
			return nil
		},
	}
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*configPath)
			if err != nil {
				return configErr(err)
			}
			// NewDB applies every pending goose migration on open.
			db, err := store.NewDB(store.Config{DatabasePath: settings.Database.Path})
			if err != nil {
				return runtimeErr(err)
			}
			defer db.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newBackupCommand(configPath *string) *cobra.Command {
	var destPath string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a ZIP archive containing the database and settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*configPath)
			if err != nil {
				return configErr(err)
			}
			pending, err := checkMigrationGate(settings.Database.Path)
			if err != nil {
				return runtimeErr(err)
			}
			if pending {
				return migrationErr(errors.New("database schema is behind; run `sublarr migrate` first"))
			}
			if destPath == "" {
				destPath = fmt.Sprintf("sublarr-backup-%d.zip", os.Getpid())
			}
			if err := backup.Create(destPath, settings.Database.Path, *configPath); err != nil {
				return runtimeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote backup to %s\n", destPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&destPath, "output", "o", "", "Destination path for the archive")
	return cmd
}

func newRestoreCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <path>",
		Short: "Restore the database and settings from a backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*configPath)
			if err != nil {
				return configErr(err)
			}
			if err := backup.Restore(args[0], settings.Database.Path, *configPath); err != nil {
				if asAppErr(err, apperr.ContentInvalid) {
					return configErr(err)
				}
				return runtimeErr(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Restore complete")
			return nil
		},
	}
}

func newScanOnceCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan-once",
		Short: "Run a single wanted-item reconciliation scan and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.App) error {
				return a.WantedScanner.Reconcile(ctx)
			})
		},
	}
}

func newSearchOnceCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search-once",
		Short: "Run a single search cycle over every wanted item and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.App) error {
				return a.RunSearchCycle(ctx)
			})
		},
	}
}

func withApp(configPath string, fn func(ctx context.Context, a *app.App) error) error {
	settings, err := loadSettings(configPath)
	if err != nil {
		return configErr(err)
	}

	pending, err := checkMigrationGate(settings.Database.Path)
	if err != nil {
		return runtimeErr(err)
	}
	if pending {
		return migrationErr(errors.New("database schema is behind; run `sublarr migrate` first"))
	}

	fileWriter := logging.Setup(settings.Log)
	if fileWriter != nil {
		defer fileWriter.Close()
	}

	a, err := app.New(settings)
	if err != nil {
		return runtimeErr(err)
	}
	a.ConfigPath = configPath
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := fn(ctx, a); err != nil {
		return runtimeErr(err)
	}
	return nil
}

func asAppErr(err error, kind apperr.Kind) bool {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
