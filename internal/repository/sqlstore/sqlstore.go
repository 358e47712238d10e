// Package sqlstore implements the repository interfaces on database/sql.
//
// Two drivers are supported: SQLite through modernc.org/sqlite (the default,
// an embedded file) and PostgreSQL through github.com/lib/pq. Queries are
// written once with "?" placeholders and rebound for Postgres.
//
// The invariants that the legacy flat-file storage could not hold under
// concurrent requests are enforced here: usernames through a UNIQUE
// constraint and an ON CONFLICT insert, project creation through a
// transaction that reads (and on Postgres share-locks) the backing request.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DB struct {
	conn   *sql.DB
	driver string
}

// New opens a SQLite database at dbPath. ":memory:" gives a private
// in-memory database, which is what the tests use.
func New(dbPath string) (*DB, error) {
	return Open(DriverSQLite, dbPath)
}

// Open connects with the named driver and brings the schema up to date.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening database: %w", err)
	}

	if driver == DriverSQLite {
		// One connection: SQLite allows a single writer, and ":memory:"
		// databases are per-connection.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging database: %w", err)
	}

	db := &DB{conn: conn, driver: driver}

	if driver == DriverSQLite {
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := conn.Exec(pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("sqlstore: %s: %w", pragma, err)
			}
		}
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the driver name the store was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Ping checks the connection, for health reporting.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate() error {
	timeType, realType := "DATETIME", "REAL"
	if db.driver == DriverPostgres {
		timeType, realType = "TIMESTAMPTZ", "DOUBLE PRECISION"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			created_at      ` + timeType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS requests (
			id            TEXT PRIMARY KEY,
			from_username TEXT NOT NULL,
			to_username   TEXT NOT NULL,
			project_name  TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'requested',
			created_at    ` + timeType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_from_username ON requests(from_username)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_to_username ON requests(to_username)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			request_id  TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'in_progress',
			created_at  ` + timeType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_request_id ON projects(request_id)`,
		// project_id is deliberately not a foreign key: comments are accepted
		// for any project ID.
		`CREATE TABLE IF NOT EXISTS comments (
			id             TEXT PRIMARY KEY,
			project_id     TEXT NOT NULL,
			username       TEXT NOT NULL,
			text           TEXT NOT NULL,
			offset_seconds ` + realType + `,
			created_at     ` + timeType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_project_id ON comments(project_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}

	// Added after the first release; older databases lack it.
	if err := db.addColumnIfNotExists("users", "github_id", "BIGINT"); err != nil {
		return fmt.Errorf("adding github_id to users: %w", err)
	}
	if _, err := db.conn.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id)`,
	); err != nil {
		return fmt.Errorf("creating users github_id index: %w", err)
	}
	return nil
}

// addColumnIfNotExists makes ALTER TABLE ... ADD COLUMN idempotent.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	if db.driver == DriverPostgres {
		_, err := db.conn.Exec(fmt.Sprintf(
			`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s`, table, column, definition,
		))
		return err
	}

	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lockShare and lockUpdate are appended to SELECTs inside transactions.
// SQLite already serializes writers, so it needs no row locks.
func (db *DB) lockShare() string {
	if db.driver == DriverPostgres {
		return " FOR SHARE"
	}
	return ""
}

func (db *DB) lockUpdate() string {
	if db.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.rebind(query), args...)
}

// withTx runs fn inside a transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// now is the creation time stamped on new rows: UTC without a monotonic
// reading, at the microsecond precision both drivers round-trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
