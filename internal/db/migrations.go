package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS _migrations (
	filename   TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

// Migrate applies every migrations/*.sql file in fsys that has not been
// recorded yet, in lexical order, each in its own transaction.
func Migrate(database *sql.DB, fsys fs.FS) error {
	if _, err := database.Exec(migrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		file := path.Base(name)
		var done bool
		if err := database.QueryRow("SELECT COUNT(*) > 0 FROM _migrations WHERE filename = ?", file).Scan(&done); err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if done {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if err := applyMigration(database, file, string(content)); err != nil {
			return err
		}
		applied++
		slog.Info("applied migration", "file", file)
	}
	slog.Debug("migrations up to date", "total", len(names), "applied", applied)
	return nil
}

func applyMigration(database *sql.DB, file, content string) error {
	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", file, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(content); err != nil {
		return fmt.Errorf("exec migration %s: %w", file, err)
	}
	if _, err := tx.Exec("INSERT INTO _migrations (filename) VALUES (?)", file); err != nil {
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}
