package postgres

import (
	"context"
)

// entitiesSchema holds every registered kind in one table; the ID is unique
// within its kind's key space.
const entitiesSchema = `
CREATE TABLE IF NOT EXISTS entities (
	id          TEXT        NOT NULL,
	display_id  TEXT        NOT NULL DEFAULT '',
	kind        TEXT        NOT NULL,
	owner_id    TEXT        NOT NULL,
	attributes  JSONB       NOT NULL DEFAULT '{}'::jsonb,
	status      TEXT        NOT NULL DEFAULT 'active',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (kind, id)
);

CREATE INDEX IF NOT EXISTS idx_entities_kind_owner ON entities (kind, owner_id);
CREATE INDEX IF NOT EXISTS idx_entities_kind_status ON entities (kind, status);
CREATE INDEX IF NOT EXISTS idx_entities_created_at ON entities (created_at);
`

// Migrate applies the entity store schema
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, entitiesSchema)
	return err
}
