package database

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mbolis/quest-editor/log"
)

//go:embed migrations
var dbMigrations embed.FS

func migrateDB(db *DB) error {
	src, err := iofs.New(dbMigrations, "migrations/"+db.Driver)
	if err != nil {
		return err
	}

	var dst migratedb.Driver
	switch db.Driver {
	case DriverPostgres:
		dst, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		dst, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	}
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, db.Driver, dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug("db.migrate: schema up to date")
	case err != nil:
		return err
	}
	return nil
}
