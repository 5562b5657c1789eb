package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/config"
	"github.com/Kellerman81/go_movie_catalog/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DBLogLevel enables query logging when set to debug.
var DBLogLevel string

// DB is an open catalog database. It is safe for concurrent use; every
// write goes through a Session.
type DB struct {
	*sqlx.DB
	driver  string
	dsn     string
	version uint
}

// sqliteDSN builds the connection string used for the database file.
func sqliteDSN(path string) string {
	return "file:" + path + "?_fk=1&mode=rwc&_mutex=full&_busy_timeout=5000&_txlock=immediate&_cslike=0"
}

// Open connects to the database described by cfg. A missing sqlite file and
// its directory are created.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	var dsn string
	switch cfg.Driver {
	case config.DriverSqlite:
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "open_database", "create directory failed", dir, err)
			}
		}
		dsn = sqliteDSN(cfg.Path)
	case config.DriverPostgres:
		dsn = cfg.DSN
	default:
		return nil, apperrors.NewWithContext(apperrors.ErrClassConfig, "open_database", "unsupported driver",
			map[string]any{"driver": cfg.Driver})
	}

	db, err := sqlx.Connect(cfg.Driver, dsn)
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "open_database", "connect failed", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	logger.LogDynamicany(logger.StrDebug, "Database opened", logger.StrDriver, cfg.Driver)
	return &DB{DB: db, driver: cfg.Driver, dsn: dsn}, nil
}

// SetLogLevel sets DBLogLevel from the general configuration value.
func SetLogLevel(level string) {
	DBLogLevel = strings.ToLower(level)
}

// Version returns the schema version applied by Migrate.
func (db *DB) Version() uint {
	return db.version
}

// Close closes the connection pool. Calling Close on a nil DB is a no-op.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Backup writes a consistent copy of a sqlite database to backupPath.
func (db *DB) Backup(ctx context.Context, backupPath string) error {
	if db.driver != config.DriverSqlite {
		return apperrors.NewWithContext(apperrors.ErrClassValidation, "backup_database", "backup is only supported for sqlite",
			map[string]any{"driver": db.driver})
	}
	if _, err := os.Stat(backupPath); err == nil {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassValidation, "backup_database", "target exists", backupPath, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "backup_database", "stat failed", backupPath, err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(backupPath, "'", "''"))); err != nil {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "backup_database", "vacuum failed", backupPath, err)
	}
	logger.LogDynamicany(logger.StrInfo, "Database backup written", logger.StrFile, backupPath)
	return nil
}

func logQuery(query string, args []any) {
	if DBLogLevel != logger.StrDebug {
		return
	}
	logger.LogDynamicany(logger.StrDebug, "query", logger.StrQuery, query, logger.StrArgs, args)
}
