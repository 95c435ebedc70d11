package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQLite string

//go:embed schema_mysql.sql
var schemaMySQL string

// DB wraps database/sql with the schema bootstrapped. Both SQLite (dev, tests)
// and MySQL (production, matching the hosted deployment) are supported.
type DB struct {
	*sql.DB
}

// New opens the database described by dsn and applies the schema.
// A DSN containing '@' is treated as MySQL (user:pass@tcp(host)/name),
// anything else as a SQLite file path or URI.
func New(dsn string) (*DB, error) {
	var database *sql.DB
	var err error

	mysqlDSN := strings.Contains(dsn, "@")
	if mysqlDSN {
		database, err = sql.Open("mysql", dsn)
	} else {
		database, err = openSQLite(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := schemaSQLite
	if mysqlDSN {
		schema = schemaMySQL
	}
	if err := applySchema(database, schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{database}, nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Pragmas go through the DSN so every pooled connection gets them.
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(30000)",
		"_pragma=synchronous(NORMAL)",
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + strings.Join(pragmas, "&")

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Enough connections for concurrent request handlers; the busy timeout
	// serializes conflicting writers.
	database.SetMaxOpenConns(25)
	return database, nil
}

func applySchema(database *sql.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("%q: %w", stmt[:min(len(stmt), 40)], err)
		}
	}
	return nil
}

// WithTx runs fn inside a transaction, rolling back on error.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
