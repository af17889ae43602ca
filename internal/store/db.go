// Package store is Sublarr's persistent store: a SQLite-backed database
// wrapped by one repository per entity, with schema migrations applied via
// goose on startup.
package store

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config configures the database connection.
type Config struct {
	DatabasePath string
}

// DB wraps the underlying *sql.DB connection shared by every repository.
type DB struct {
	conn *sql.DB
}

// NewDB opens (creating if necessary) the SQLite database at cfg.DatabasePath
// and applies any pending goose migrations.
func NewDB(cfg Config) (*DB, error) {
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("store: database path is required")
	}
	conn, err := sql.Open("sqlite3", cfg.DatabasePath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	conn.SetMaxOpenConns(1) // single-writer discipline; SQLite serializes writers anyway

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("store: set dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Connection returns the underlying *sql.DB for repository construction.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// MigrationStatus reports whether the schema is up to date, used by the
// `migrate` and `serve` CLI commands to decide whether to exit with the
// migration-required status code.
func MigrationStatus(conn *sql.DB) (pending bool, err error) {
	current, err := goose.GetDBVersion(conn)
	if err != nil {
		return false, err
	}
	migrations, err := goose.CollectMigrations("migrations", 0, goose.MaxVersion)
	if err != nil {
		return false, err
	}
	if len(migrations) == 0 {
		return false, nil
	}
	latest := migrations[len(migrations)-1].Version
	return latest > current, nil
}
