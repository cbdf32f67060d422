package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS assetsync_kv (
    entry_key   TEXT PRIMARY KEY,
    entry_value TEXT NOT NULL,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Migrations is the grove migration group for the assetsync store (SQLite).
var Migrations = migrate.NewGroup("assetsync")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_assetsync_kv",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, createTableSQL)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS assetsync_kv`)
				return err
			},
		},
	)
}
