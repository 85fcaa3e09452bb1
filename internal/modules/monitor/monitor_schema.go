package monitor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS zone_checks (
    id          UUID PRIMARY KEY,
    sweep_id    UUID NOT NULL,
    worker_id   INTEGER NOT NULL,
    status      TEXT NOT NULL,
    longitude   DOUBLE PRECISION,
    latitude    DOUBLE PRECISION,
    zone_count  INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    alerted     BOOLEAN NOT NULL DEFAULT FALSE,
    checked_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS zone_checks_worker_checked_at_idx ON zone_checks (worker_id, checked_at DESC);
`

// EnsureSchema creates the zone_checks table if it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("monitor.EnsureSchema: %w", err)
	}
	return nil
}
