package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQL connection and the dialect its queries are written for.
// Queries use "?" placeholders; the dialect rebinds them for Postgres.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// New opens (or creates) the SQLite file at dbPath.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	return open(conn, SQLite)
}

// OpenSQL connects to a Postgres or MySQL server and migrates it.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return open(conn, dialect)
}

func open(conn *sql.DB, dialect Dialect) (*DB, error) {
	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[Store] %s ready", dialect)
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// ─────────────────────────────────────────────────────────────
// Dialects
// ─────────────────────────────────────────────────────────────

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// Rebind rewrites "?" placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
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

// columnTypes are the column types the schema is written against.
type columnTypes struct {
	key, text, real, integer, stamp string
}

func (d Dialect) types() columnTypes {
	switch d {
	case Postgres:
		return columnTypes{key: "TEXT", text: "TEXT", real: "DOUBLE PRECISION", integer: "INTEGER", stamp: "TIMESTAMPTZ"}
	case MySQL:
		return columnTypes{key: "VARCHAR(64)", text: "LONGTEXT", real: "DOUBLE", integer: "INT", stamp: "DATETIME(6)"}
	default:
		return columnTypes{key: "TEXT", text: "TEXT", real: "REAL", integer: "INTEGER", stamp: "DATETIME"}
	}
}

func (db *DB) migrate() error {
	t := db.dialect.types()
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS slides (
			id ` + t.key + ` PRIMARY KEY,
			background_color ` + t.text + ` NOT NULL,
			background_image ` + t.text + ` NOT NULL,
			transition_effect ` + t.text + ` NOT NULL,
			transition_duration ` + t.real + ` NOT NULL DEFAULT 0,
			auto_advance_seconds ` + t.real + ` NOT NULL DEFAULT 0,
			created_at ` + t.stamp + ` NOT NULL,
			updated_at ` + t.stamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS slide_elements (
			id ` + t.key + ` PRIMARY KEY,
			slide_id ` + t.key + ` NOT NULL REFERENCES slides(id),
			type ` + t.key + ` NOT NULL,
			position_x ` + t.real + ` NOT NULL DEFAULT 0,
			position_y ` + t.real + ` NOT NULL DEFAULT 0,
			width ` + t.real + ` NOT NULL DEFAULT 0,
			height ` + t.real + ` NOT NULL DEFAULT 0,
			rotation ` + t.real + ` NOT NULL DEFAULT 0,
			layer_order ` + t.integer + ` NOT NULL DEFAULT 0,
			display_order ` + t.integer + ` NOT NULL DEFAULT 0,
			content ` + t.text + `,
			source_url ` + t.text + `,
			entry_animation ` + t.key + `,
			entry_animation_duration ` + t.real + `,
			entry_animation_delay ` + t.real + `,
			exit_animation ` + t.key + `,
			exit_animation_duration ` + t.real + `,
			exit_animation_delay ` + t.real + `,
			created_at ` + t.stamp + ` NOT NULL,
			updated_at ` + t.stamp + ` NOT NULL
		)`,
	}
	if db.dialect == MySQL {
		// MySQL has no CREATE INDEX IF NOT EXISTS; a duplicate key name is ignored below
		migrations = append(migrations, `CREATE INDEX idx_slide_elements_slide ON slide_elements(slide_id)`)
	} else {
		migrations = append(migrations, `CREATE INDEX IF NOT EXISTS idx_slide_elements_slide ON slide_elements(slide_id)`)
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			if db.dialect == MySQL && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}
