package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// Executed as one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS worlds (
    name     TEXT PRIMARY KEY,
    payload  BYTEA NOT NULL,
    counts   JSONB NOT NULL DEFAULT '{}',
    saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_worlds_saved_at ON worlds (saved_at);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
