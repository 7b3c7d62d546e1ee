package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps the database connection and remembers which dialect it speaks
type DB struct {
	*sql.DB
	driver string
}

// NewDB creates a new database connection
// For postgres, dsn is a lib/pq connection string: "host=localhost port=5432 user=postgres password=postgres dbname=wealthflow sslmode=disable"
// For sqlite, dsn is a file path or ":memory:"
func NewDB(driver, dsn string) (*DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if driver == DriverSQLite {
		// One writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the driver name the connection was opened with
func (db *DB) Driver() string {
	return db.driver
}

// Migrate creates the tables if they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema/" + db.driver + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// rebind rewrites $N placeholders into the dialect of the connection.
// Queries are written once in postgres style; SQLite gets numbered ?N parameters.
func (db *DB) rebind(query string) string {
	if db.driver != DriverSQLite {
		return query
	}
	return strings.ReplaceAll(query, "$", "?")
}
