package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// DialectOf: "postgres://..." o "postgresql://..." es Postgres;
// "sqlite:<path>" es un archivo local.
func DialectOf(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite:"), nil
	}
	return "", "", fmt.Errorf("unsupported DATABASE_URL %q", dsn)
}

// Open abre la conexión (pgx stdlib o sqlite) y verifica health.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect, target, err := DialectOf(dsn)
	if err != nil {
		return nil, "", err
	}

	var db *sql.DB
	switch dialect {
	case Postgres:
		db, err = sql.Open("pgx", target)
		if err != nil {
			return nil, "", err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(1 * time.Hour)
	case SQLite:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, "", err
		}
		db, err = sql.Open("sqlite", target)
		if err != nil {
			return nil, "", err
		}
		// un solo escritor
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("db ping: %w", err)
	}
	return db, dialect, nil
}

// Migrate aplica las migraciones embebidas del dialecto.
func Migrate(db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return err
	}
	dir := "migrations/postgres"
	if dialect == SQLite {
		dir = "migrations/sqlite"
	}
	return goose.Up(db, dir)
}
