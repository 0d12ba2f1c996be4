package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema mirrors DBHelper.initialize_database in the original tool: three
// tables, Blog and Post cascading from Feed on delete.
const schema = `
CREATE TABLE IF NOT EXISTS Feed (
    id TEXT PRIMARY KEY,
    type TEXT,
    url TEXT,
    created TEXT,
    last_run TEXT,
    retries INTEGER,
    sleep_seconds REAL,
    earliest_entry TEXT,
    latest_entry TEXT,
    ignore_live_feed_entries BOOLEAN,
    pretty BOOLEAN,
    UNIQUE (id),
    UNIQUE (url)
);

CREATE TABLE IF NOT EXISTS Blog (
    id TEXT PRIMARY KEY,
    title TEXT,
    description TEXT,
    url TEXT,
    latest_post TEXT,
    earliest_post TEXT,
    full_rss TEXT,
    FOREIGN KEY(id) REFERENCES Feed(id) ON DELETE CASCADE,
    UNIQUE (id)
);

CREATE TABLE IF NOT EXISTS Post (
    id TEXT PRIMARY KEY,
    blog_id TEXT,
    title TEXT,
    link TEXT,
    author TEXT,
    created TEXT,
    added TEXT,
    categories TEXT,
    description TEXT,
    raw_xml TEXT,
    FOREIGN KEY(blog_id) REFERENCES Blog(id) ON DELETE CASCADE,
    UNIQUE (id)
);
`

// Migrate creates the schema if absent. Idempotent.
func Migrate(ctx context.Context, database *sql.DB) error {
	if _, err := database.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("Migrate: ExecContext: %w", err)
	}
	return nil
}
