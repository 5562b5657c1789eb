package database

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/config"
	"github.com/Kellerman81/go_movie_catalog/logger"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed schema/sqlite3/*.sql schema/postgres/*.sql
var schemaFS embed.FS

// Migrate brings the schema up to the latest version. The migration runs on
// its own connection, which is closed afterwards.
func (db *DB) Migrate() error {
	src, err := iofs.New(schemaFS, "schema/"+db.driver)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}

	conn, err := sql.Open(db.driver, db.dsn)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}

	var driver migratedb.Driver
	switch db.driver {
	case config.DriverPostgres:
		driver, err = migratepg.WithInstance(conn, &migratepg.Config{})
	default:
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	}
	if err != nil {
		conn.Close()
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.driver, driver)
	if err != nil {
		driver.Close()
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}

	vers, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}
	db.version = vers
	logger.LogDynamicany(logger.StrDebug, "Schema migrated", logger.StrDriver, db.driver, logger.StrVersion, int(vers))
	return nil
}
