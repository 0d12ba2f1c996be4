// Package db opens and migrates the embedded sqlite store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the store filename used when the CLI is given none.
const DefaultPath = "history4feed.sqlite"

// Open opens (creating if absent) the sqlite file at path, enables foreign
// keys for cascade delete, and runs the schema migration.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: sql.Open: %w", err)
	}
	// modernc.org/sqlite does not support concurrent writers well; this
	// store is single-process, single-writer by design.
	database.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("Open: PingContext: %w", err)
	}

	if err := Migrate(ctx, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("Open: Migrate: %w", err)
	}

	return database, nil
}
