package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the assetsync PostgreSQL store.
// It can be registered with a grove orchestrator for locking, version tracking
// and rollback support.
var Migrations = migrate.NewGroup("assetsync")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_assetsync_kv",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS assetsync_kv (
    entry_key   TEXT PRIMARY KEY,
    entry_value TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_assetsync_kv_prefix ON assetsync_kv (entry_key text_pattern_ops);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS assetsync_kv`)
				return err
			},
		},
	)
}
