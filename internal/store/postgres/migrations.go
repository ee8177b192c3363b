package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Migration 資料庫遷移
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations 依版本遞增執行；已套用的版本記錄在 schema_migrations
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_recommendation_history",
		Up: `
			CREATE TABLE IF NOT EXISTS recommendation_history (
				seq          BIGSERIAL PRIMARY KEY,
				id           TEXT NOT NULL UNIQUE,
				user_id      TEXT NOT NULL,
				category     TEXT NOT NULL,
				title        TEXT NOT NULL,
				search_query TEXT NOT NULL DEFAULT '',
				created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_history_user_category_created
				ON recommendation_history (user_id, category, created_at DESC, seq DESC);
		`,
	},
	{
		Version: 2,
		Name:    "create_user_preferences",
		Up: `
			CREATE TABLE IF NOT EXISTS user_preferences (
				user_id    TEXT NOT NULL,
				category   TEXT NOT NULL,
				tags       TEXT[] NOT NULL DEFAULT '{}',
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (user_id, category)
			);
		`,
	},
}

// Migrate 執行所有尚未套用的遷移
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, m := range sorted {
		if m.Version <= current {
			continue
		}
		if err := runMigration(ctx, db, m); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func runMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.Up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name,
	); err != nil {
		return err
	}
	return tx.Commit()
}
