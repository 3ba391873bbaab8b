package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"worldforge/internal/store"
	"worldforge/internal/world"
)

// savedAtLayout is fixed width so saved_at sorts lexically.
const savedAtLayout = "2006-01-02T15:04:05.000000000Z"

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
	VALUES (?, ?, ?, ?)
	ON CONFLICT (name) DO UPDATE SET
		payload = excluded.payload,
		counts = excluded.counts,
		saved_at = excluded.saved_at
	`
	savedAt := c.now().UTC().Format(savedAtLayout)
	if _, err := c.db.ExecContext(ctx, query, snap.Name, snap.Payload, string(counts), savedAt); err != nil {
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
	err = c.db.QueryRowContext(ctx, `SELECT payload FROM worlds WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := c.db.QueryContext(ctx, `SELECT name, counts, saved_at FROM worlds ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing worlds: %w", err)
	}
	defer rows.Close()

	results := make([]store.WorldSummary, 0)
	for rows.Next() {
		var (
			summary store.WorldSummary
			counts  string
			savedAt string
		)
		if err := rows.Scan(&summary.Name, &counts, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning world row: %w", err)
		}
		if summary.Counts, err = store.UnmarshalCounts([]byte(counts)); err != nil {
			return nil, fmt.Errorf("world %q: %w", summary.Name, err)
		}
		if summary.SavedAt, err = time.Parse(savedAtLayout, savedAt); err != nil {
			return nil, fmt.Errorf("world %q: parsing saved_at: %w", summary.Name, err)
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
	res, err := c.db.ExecContext(ctx, `DELETE FROM worlds WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("deleting world %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting world %q: %w", name, err)
	}
	return n > 0, nil
}
