package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaStatements returns the DDL for the prefixed tables, in
// application order. The unique (site_id, file_id, revision_number)
// index keeps the revision sequence gapless under concurrent writers
// and doubles as the access path for "latest by file" and range scans.
func SchemaStatements(tables *TableNames) []string {
	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				page_id BIGINT NOT NULL,
				site_id BIGINT NOT NULL,
				slug VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (site_id, page_id)
			)
		`, tables.Pages),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				revision_id UUID PRIMARY KEY,
				revision_type VARCHAR(16) NOT NULL,
				revision_number INT NOT NULL CHECK (revision_number >= 1),
				site_id BIGINT NOT NULL,
				page_id BIGINT NOT NULL,
				file_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				name VARCHAR(255) NOT NULL,
				content_hash BYTEA NOT NULL,
				size_hint BIGINT NOT NULL,
				mime_hint TEXT NOT NULL,
				licensing JSONB,
				changes TEXT[] NOT NULL DEFAULT '{}',
				hidden TEXT[] NOT NULL DEFAULT '{}',
				comments TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.FileRevisions),
		fmt.Sprintf(`
			CREATE UNIQUE INDEX IF NOT EXISTS %s_file_number_idx
			ON %s (site_id, file_id, revision_number)
		`, tables.FileRevisions, tables.FileRevisions),
	}
}

// ApplySchema runs the DDL inside one transaction.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	tm := NewTransactionManager(pool)
	return tm.ExecTx(ctx, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, pool)
		for _, stmt := range SchemaStatements(tables) {
			if _, err := executor.Exec(txCtx, stmt); err != nil {
				return fmt.Errorf("apply schema statement: %w", err)
			}
		}
		return nil
	})
}
