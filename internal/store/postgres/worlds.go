package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"worldforge/internal/store"
	"worldforge/internal/world"
)

func (c *Client) SaveWorld(ctx context.Context, name string, m *world.WorldModel) error {
	snap, err := store.EncodeWorld(name, m)
	if err != nil {
		return err
	}
	counts, err := store.MarshalCounts(snap.Counts)
	if err != nil {
		return err
	}

	query := `
INSERT INTO worlds (name, payload, counts, saved_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (name) DO UPDATE SET
    payload = EXCLUDED.payload,
    counts = EXCLUDED.counts,
    saved_at = EXCLUDED.saved_at
`
	if _, err := c.pool.Exec(ctx, query, snap.Name, snap.Payload, counts); err != nil {
		return fmt.Errorf("saving world %q: %w", snap.Name, err)
	}
	return nil
}

func (c *Client) LoadWorld(ctx context.Context, name string) (*world.WorldModel, error) {
	name, err := store.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = c.pool.QueryRow(ctx, `SELECT payload FROM worlds WHERE name = $1`, name).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading world %q: %w", name, err)
	}

	m, err := store.DecodeWorld(payload)
	if err != nil {
		return nil, fmt.Errorf("loading world %q: %w", name, err)
	}
	return m, nil
}

func (c *Client) ListWorlds(ctx context.Context) ([]store.WorldSummary, error) {
	rows, err := c.pool.Query(ctx, `SELECT name, counts, saved_at FROM worlds ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing worlds: %w", err)
	}
	defer rows.Close()

	results := make([]store.WorldSummary, 0)
	for rows.Next() {
		var (
			summary store.WorldSummary
			counts  []byte
		)
		if err := rows.Scan(&summary.Name, &counts, &summary.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning world row: %w", err)
		}
		if summary.Counts, err = store.UnmarshalCounts(counts); err != nil {
			return nil, fmt.Errorf("world %q: %w", summary.Name, err)
		}
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating world rows: %w", err)
	}
	return results, nil
}

func (c *Client) DeleteWorld(ctx context.Context, name string) (bool, error) {
	name, err := store.NormalizeName(name)
	if err != nil {
		return false, err
	}
	tag, err := c.pool.Exec(ctx, `DELETE FROM worlds WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("deleting world %q: %w", name, err)
	}
	return tag.RowsAffected() > 0, nil
}
