package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sqlx.Tx) error
}

// migrations run in order. Each step must be safe to re-run and must never
// drop user rows.
var migrations = []migration{
	{version: 1, name: "markers and snapshots", apply: execAll(`
CREATE TABLE IF NOT EXISTS articles (
    link         TEXT PRIMARY KEY,
    title        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    image_url    TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL DEFAULT '',
    source_id    TEXT NOT NULL DEFAULT '',
    source_name  TEXT NOT NULL DEFAULT '',
    saved_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bookmarks (
    link     TEXT PRIMARY KEY,
    saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS offline_articles (
    link     TEXT PRIMARY KEY,
    saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS favorite_categories (
    category TEXT PRIMARY KEY,
    saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS search_history (
    keyword     TEXT PRIMARY KEY,
    searched_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookmarks_saved_at ON bookmarks(saved_at);
CREATE INDEX IF NOT EXISTS idx_offline_saved_at ON offline_articles(saved_at);
CREATE INDEX IF NOT EXISTS idx_history_searched_at ON search_history(searched_at);
`)},
	{version: 2, name: "profiles", apply: execAll(`
CREATE TABLE IF NOT EXISTS profiles (
    email      TEXT PRIMARY KEY,
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);
`)},
	{version: 3, name: "article body", apply: addColumn("articles", "content", "TEXT NOT NULL DEFAULT ''")},
}

// SchemaVersion is the version written by this build.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

func execAll(stmts string) func(context.Context, *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, stmts)
		return err
	}
}

func addColumn(table, column, decl string) func(context.Context, *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		var n int
		err := tx.GetContext(ctx, &n,
			"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		if n > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
		return err
	}
}

// migrate brings db up to SchemaVersion in a single transaction.
func migrate(ctx context.Context, db *sqlx.DB) error {
	var current int
	if err := db.GetContext(ctx, &current, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	latest := SchemaVersion()
	if current > latest {
		return fmt.Errorf("schema version %d is newer than supported %d", current, latest)
	}
	if current == latest {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := m.apply(ctx, tx); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", latest)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return tx.Commit()
}
