package database

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	ErrSurveyNotFound = errors.New("survey not found")
	ErrUserNotFound   = errors.New("user not found")
)

// DB is the survey store. Queries are written with '?' placeholders and
// rebound for the driver in use.
type DB struct {
	*sql.DB
	Driver string
}

// Open connects to url and brings the schema up to date. A postgres://
// (or postgresql://) url selects postgres, anything else is taken as the
// path of a SQLite3 file.
func Open(url string) (db *DB, err error) {
	driver, dsn := DriverSQLite, url
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		driver = DriverPostgres
	} else {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return
	}
	db = &DB{DB: conn, Driver: driver}

	// db tuning options
	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(20)
		conn.SetMaxIdleConns(10)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return
}

// Rebind rewrites '?' placeholders as $1, $2... for postgres.
func (db *DB) Rebind(query string) string {
	if db.Driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c != '?' {
			sb.WriteRune(c)
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}
