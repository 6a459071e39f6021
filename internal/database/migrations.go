package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
//
// expense_records is append-only: record_id is assigned by the repository
// under an advisory lock so ids stay gapless and strictly increasing.
// classification_decisions is append-only too; the current decision for a
// record is the one with the highest id, earlier rows are its history.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS expense_records (
			record_id BIGINT PRIMARY KEY,
			raw_text TEXT NOT NULL,
			source TEXT NOT NULL,
			merchant TEXT NOT NULL DEFAULT '',
			amount DECIMAL(12, 2),
			submitted_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS classification_decisions (
			id BIGSERIAL PRIMARY KEY,
			record_id BIGINT NOT NULL REFERENCES expense_records(record_id),
			category TEXT NOT NULL,
			justification TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			decided_at TIMESTAMPTZ NOT NULL,
			model_version TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_decisions_record_id ON classification_decisions(record_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_merchant ON expense_records(LOWER(merchant))`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
