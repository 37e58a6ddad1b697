// Package migrations carries the catalog schema as embedded goose SQL files.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS holds the embedded catalog schema migrations, including the rubric
// seed data.
//
//go:embed *.sql
var FS embed.FS

// Run brings the catalog database up to the latest schema version.
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
