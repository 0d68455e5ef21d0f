package objectstore

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS blobs (
		path TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		body BYTEA NOT NULL,
		size BIGINT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blobs_path_prefix ON blobs (path text_pattern_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_blobs_uploaded_at ON blobs (uploaded_at)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
