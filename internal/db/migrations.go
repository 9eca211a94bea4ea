package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// review_datasets: one row per processed upload. The comparison groups
	// live in review_groups; the two aggregate reports are jsonb snapshots
	// recomputed wholesale on every upload.
	`CREATE TABLE IF NOT EXISTS review_datasets (
		id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name            TEXT NOT NULL,
		inspection_ids  JSONB NOT NULL,
		failed_ids      JSONB,
		source_file_url TEXT,
		metrics         JSONB NOT NULL,
		validation      JSONB NOT NULL,
		created_by      UUID,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_review_datasets_created_at ON review_datasets(created_at DESC);`,

	// review_groups: one row per comparison group. group_id is
	// inspection_id + ':' + group_key, stable across re-uploads of the same
	// inspection, so votes can reference groups durably.
	`CREATE TABLE IF NOT EXISTS review_groups (
		dataset_id     UUID REFERENCES review_datasets(id) ON DELETE CASCADE,
		group_id       TEXT NOT NULL,
		inspection_id  TEXT NOT NULL,
		group_key      TEXT NOT NULL,
		position       INT NOT NULL,
		published      BOOLEAN NOT NULL DEFAULT false,
		payload        JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (dataset_id, group_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_review_groups_inspection ON review_groups(dataset_id, inspection_id);`,
	`CREATE INDEX IF NOT EXISTS idx_review_groups_position ON review_groups(dataset_id, position);`,

	// review_votes: one vote per user per group within a dataset.
	`CREATE TABLE IF NOT EXISTS review_votes (
		id          UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		dataset_id  UUID REFERENCES review_datasets(id) ON DELETE CASCADE,
		group_id    TEXT NOT NULL,
		user_id     UUID NOT NULL,
		verdict     TEXT NOT NULL,
		note        TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_review_votes_group_user ON review_votes(dataset_id, group_id, user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_review_votes_dataset ON review_votes(dataset_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
